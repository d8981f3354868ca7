package main

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
	"os/signal"
	"strings"
	"syscall"

	notifdomain "github.com/shelfwatch/shelfwatch/internal/notification/domain"
	notifrepository "github.com/shelfwatch/shelfwatch/internal/notification/repository"
	"github.com/shelfwatch/shelfwatch/kafka"
	"github.com/shelfwatch/shelfwatch/pkg/database"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
	"github.com/shelfwatch/shelfwatch/pkg/tracing"
)

// The notifier consumes delivery events from Kafka and performs the
// actual out-of-process sends. Delivery outcomes are written back to
// the notification records; in-app notifications never pass through
// here.
func main() {
	serviceName := getEnv("OTEL_SERVICE_NAME", "shelfwatch-notifier")
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

	notifRepo := notifrepository.NewGormNotificationRepository(db)

	mailer := &smtpMailer{
		addr: os.Getenv("SMTP_ADDR"),
		from: getEnv("SMTP_FROM", "alerts@shelfwatch.local"),
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASSWORD"),
	}

	brokers := []string{getEnv("KAFKA_BROKERS", "localhost:9092")}
	consumer, err := kafka.NewConsumer(
		brokers,
		getEnv("KAFKA_GROUP_ID", "shelfwatch-notifier"),
		[]string{kafka.TopicEmailBatch, kafka.TopicDispatch},
	)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka consumer")
	}
	defer consumer.Close()

	worker := &worker{repo: notifRepo, mailer: mailer}
	consumer.OnEmailBatch(worker.handleEmailBatch)
	consumer.OnDispatch(worker.handleDispatch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.Start(ctx); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start consumer")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down notifier...")
}

type worker struct {
	repo   notifdomain.NotificationRepository
	mailer *smtpMailer
}

// handleEmailBatch delivers a daily expiry summary. The 24-hour window
// sentinel was already recorded by the sweep; only the send happens
// here.
func (w *worker) handleEmailBatch(ctx context.Context, event kafka.EmailBatchEvent) error {
	var body strings.Builder
	body.WriteString("The following items need your attention:\n\n")
	for _, e := range event.Entries {
		if e.DaysUntilExpiry <= 0 {
			fmt.Fprintf(&body, "- %s: expired\n", e.Name)
		} else {
			fmt.Fprintf(&body, "- %s: expires in %d days\n", e.Name, e.DaysUntilExpiry)
		}
	}

	if err := w.mailer.send(event.Email, "Daily expiry alert", body.String()); err != nil {
		return fmt.Errorf("failed to send summary email: %w", err)
	}

	logger.WithContext(ctx).Info().
		Uint("user_id", event.UserID).
		Int("entries", len(event.Entries)).
		Msg("Summary email delivered")
	return nil
}

// handleDispatch delivers a single notification and records the outcome
func (w *worker) handleDispatch(ctx context.Context, event kafka.DispatchEvent) error {
	n, err := w.repo.FindByID(event.NotificationID)
	if err != nil {
		return fmt.Errorf("notification %d not found: %w", event.NotificationID, err)
	}
	if n.Status != notifdomain.StatusPending {
		// Already resolved, likely a redelivered message
		return nil
	}

	var sendErr error
	switch notifdomain.Channel(event.Channel) {
	case notifdomain.ChannelEmail:
		sendErr = w.mailer.send(event.Recipient, "Expiry notification", event.Message)
	case notifdomain.ChannelSMS:
		// No SMS provider is wired up yet; treat as undeliverable so
		// the failure is visible on the record
		sendErr = fmt.Errorf("no SMS provider configured")
	default:
		return fmt.Errorf("unsupported dispatch channel %q", event.Channel)
	}

	if sendErr != nil {
		logger.WithContext(ctx).Error().
			Err(sendErr).
			Uint("notification_id", n.ID).
			Str("channel", event.Channel).
			Msg("Delivery failed")
		if err := n.MarkFailed(); err != nil {
			return err
		}
		return w.repo.Update(n)
	}

	if err := n.MarkSent(); err != nil {
		return err
	}
	return w.repo.Update(n)
}

// smtpMailer sends plain-text mail. With no SMTP_ADDR configured it
// logs the message instead, which keeps local development working
// without a relay.
type smtpMailer struct {
	addr string
	from string
	user string
	pass string
}

func (m *smtpMailer) send(to, subject, body string) error {
	if m.addr == "" {
		logger.Logger.Info().
			Str("to", to).
			Str("subject", subject).
			Msg("SMTP not configured, logging email instead")
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)

	var auth smtp.Auth
	if m.user != "" {
		host := m.addr
		if i := strings.Index(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.user, m.pass, host)
	}
	return smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
