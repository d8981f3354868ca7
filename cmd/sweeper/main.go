package main

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/shelfwatch/shelfwatch/internal/cleanup"
	itemrepository "github.com/shelfwatch/shelfwatch/internal/item/repository"
	"github.com/shelfwatch/shelfwatch/internal/notification/channel"
	notifrepository "github.com/shelfwatch/shelfwatch/internal/notification/repository"
	"github.com/shelfwatch/shelfwatch/internal/notification/sweep"
	"github.com/shelfwatch/shelfwatch/internal/reconciler"
	"github.com/shelfwatch/shelfwatch/internal/reconciler/zoho"
	userrepository "github.com/shelfwatch/shelfwatch/internal/user/repository"
	"github.com/shelfwatch/shelfwatch/kafka"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
	"github.com/shelfwatch/shelfwatch/pkg/database"
	"github.com/shelfwatch/shelfwatch/pkg/locker"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
	"github.com/shelfwatch/shelfwatch/pkg/tracing"
)

// The sweeper runs once per invocation and exits; cron or a Kubernetes
// CronJob supplies the daily cadence.
func main() {
	serviceName := getEnv("OTEL_SERVICE_NAME", "shelfwatch-sweeper")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)
	logger.SetLevel(getEnv("LOG_LEVEL", "info"))

	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer")
	}
	defer func() {
		if err := tracing.Shutdown(context.Background(), tp); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to shut down tracer")
		}
	}()

	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "shelfwatch"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})
	defer redisClient.Close()
	locks := locker.NewRedisLocker(redisClient)

	brokers := []string{getEnv("KAFKA_BROKERS", "localhost:9092")}
	publisher, err := kafka.NewPublisher(brokers)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka publisher")
	}
	defer publisher.Close()

	clk := clock.System{}
	itemRepo := itemrepository.NewGormItemRepository(db)
	userRepo := userrepository.NewGormUserRepository(db)
	notifRepo := notifrepository.NewGormNotificationRepository(db)
	mailer := channel.NewEmailSender(publisher)

	ctx := context.Background()

	sweeper := sweep.NewSweeper(itemRepo, notifRepo, userRepo, mailer, clk, locks, nil)
	result, err := sweeper.Run(ctx)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Sweep failed")
	}
	if result.Skipped {
		logger.Logger.Warn().Msg("Sweep skipped, another run holds the lock")
		return
	}

	// Purge items whose expiry passed the grace period. Remote
	// deactivation only happens when service credentials are configured.
	var remote cleanup.RemoteDeactivator
	creds := reconciler.Credentials{
		AccessToken:    os.Getenv("ZOHO_ACCESS_TOKEN"),
		OrganizationID: os.Getenv("ZOHO_ORGANIZATION_ID"),
	}
	if creds.AccessToken != "" {
		remote = zoho.NewClient(getEnv("ZOHO_API_URL", ""))
	}

	purger := cleanup.NewPurger(itemRepo, notifRepo, remote, clk)
	if _, err := purger.Run(ctx, creds); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Cleanup failed")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
