package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	itemhttp "github.com/shelfwatch/shelfwatch/internal/item/delivery/http"
	itemdomain "github.com/shelfwatch/shelfwatch/internal/item/domain"
	itemrepository "github.com/shelfwatch/shelfwatch/internal/item/repository"
	itemcommand "github.com/shelfwatch/shelfwatch/internal/item/usecase/command"
	"github.com/shelfwatch/shelfwatch/internal/notification/channel"
	notifhttp "github.com/shelfwatch/shelfwatch/internal/notification/delivery/http"
	notifdomain "github.com/shelfwatch/shelfwatch/internal/notification/domain"
	notifrepository "github.com/shelfwatch/shelfwatch/internal/notification/repository"
	notifcommand "github.com/shelfwatch/shelfwatch/internal/notification/usecase/command"
	notifquery "github.com/shelfwatch/shelfwatch/internal/notification/usecase/query"
	"github.com/shelfwatch/shelfwatch/internal/ocr"
	"github.com/shelfwatch/shelfwatch/internal/reconciler"
	synchttp "github.com/shelfwatch/shelfwatch/internal/reconciler/delivery/http"
	"github.com/shelfwatch/shelfwatch/internal/reconciler/zoho"
	userhttp "github.com/shelfwatch/shelfwatch/internal/user/delivery/http"
	userdomain "github.com/shelfwatch/shelfwatch/internal/user/domain"
	userrepository "github.com/shelfwatch/shelfwatch/internal/user/repository"
	usercommand "github.com/shelfwatch/shelfwatch/internal/user/usecase/command"
	userquery "github.com/shelfwatch/shelfwatch/internal/user/usecase/query"
	"github.com/shelfwatch/shelfwatch/kafka"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
	"github.com/shelfwatch/shelfwatch/pkg/database"
	"github.com/shelfwatch/shelfwatch/pkg/locker"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
	"github.com/shelfwatch/shelfwatch/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "shelfwatch-server")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting shelfwatch server")

	// Initialize tracing
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer")
	}
	defer func() {
		if err := tracing.Shutdown(context.Background(), tp); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to shut down tracer")
		}
	}()

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "shelfwatch"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Connect to database
	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := db.AutoMigrate(&userdomain.User{}, &itemdomain.Item{}, &notifdomain.Notification{}); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	// Redis backs the advisory locks that serialize sweeps and per-user syncs
	redisClient := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})
	defer redisClient.Close()
	locks := locker.NewRedisLocker(redisClient)

	// Kafka carries email and SMS deliveries to the notifier worker
	brokers := []string{getEnv("KAFKA_BROKERS", "localhost:9092")}
	publisher, err := kafka.NewPublisher(brokers)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka publisher")
	}
	defer publisher.Close()

	clk := clock.System{}

	// Repositories
	itemRepo := itemrepository.NewGormItemRepositoryWithTracing(db)
	userRepo := userrepository.NewGormUserRepository(db)
	notifRepo := notifrepository.NewGormNotificationRepository(db)
	if err := notifRepo.EnsureIndexes(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to create notification indexes")
	}

	// Remote inventory provider; mirroring of local writes only happens
	// when service credentials are configured
	zohoClient := zoho.NewClient(getEnv("ZOHO_API_URL", ""))
	var mirror itemcommand.ItemMirror
	if token := os.Getenv("ZOHO_ACCESS_TOKEN"); token != "" {
		mirror = reconciler.NewMirror(itemRepo, zohoClient, reconciler.Credentials{
			AccessToken:    token,
			OrganizationID: os.Getenv("ZOHO_ORGANIZATION_ID"),
		})
	}

	// Item module
	extractor := ocr.NewHTTPExtractor(getEnv("OCR_SERVICE_URL", "http://localhost:8090/ocr"))
	itemHandler := itemhttp.NewItemHandler(itemRepo, extractor, clk, mirror)

	// User module
	userHandler := userhttp.NewUserHandlerWithDI(
		usercommand.NewRegisterUserHandler(userRepo),
		usercommand.NewLoginUserHandler(userRepo),
		usercommand.NewUpdatePreferencesHandler(userRepo),
		usercommand.NewDeleteUserHandler(userRepo, itemRepo),
		userquery.NewGetUserHandler(userRepo),
		userquery.NewGetStatsHandler(userRepo),
		userRepo,
	)

	// Notification module
	dispatcher := channel.NewDispatcher(
		channel.NewInAppSender(notifRepo),
		channel.NewEmailSender(publisher),
		channel.NewSMSSender(publisher),
	)
	notifHandler := notifhttp.NewNotificationHandlerWithDI(
		notifcommand.NewMarkReadHandler(notifRepo),
		notifcommand.NewSendTestNotificationHandler(notifRepo, userRepo, dispatcher),
		notifquery.NewListNotificationsHandler(notifRepo),
		notifquery.NewCountUnreadHandler(notifRepo),
	)

	// Sync module
	rec := reconciler.NewReconciler(itemRepo, zohoClient, clk, locks)
	syncHandler := synchttp.NewSyncHandler(rec)

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8080")
	go startHTTPServer(itemHandler, userHandler, notifHandler, syncHandler, sqlDB, httpPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

func startHTTPServer(
	itemHandler *itemhttp.ItemHandler,
	userHandler *userhttp.UserHandler,
	notifHandler *notifhttp.NotificationHandler,
	syncHandler *synchttp.SyncHandler,
	db *sql.DB,
	port string,
) {
	// Setup router
	router := mux.NewRouter()

	// Register routes
	itemHandler.RegisterRoutes(router)
	userHandler.RegisterRoutes(router)
	notifHandler.RegisterRoutes(router)
	syncHandler.RegisterRoutes(router)

	// Health check endpoint
	itemHandler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Trace every inbound request
	traced := otelhttp.NewHandler(c.Handler(router), "http.server")

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	if err := http.ListenAndServe(":"+port, traced); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
