package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// Publisher wraps a Kafka sync producer
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &Publisher{
		producer: producer,
		brokers:  brokers,
	}, nil
}

// PublishEmailBatch publishes a batched summary email request
func (p *Publisher) PublishEmailBatch(ctx context.Context, event EmailBatchEvent) error {
	event.EventType = EventTypeEmailBatch
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	event.Timestamp = time.Now()

	key := fmt.Sprintf("user_%d", event.UserID)
	return p.publish(ctx, TopicEmailBatch, key, event.EventType, event.EventID, event,
		attribute.Int64("user.id", int64(event.UserID)),
		attribute.Int("batch.entries", len(event.Entries)),
	)
}

// PublishDispatch publishes a single-notification delivery request
func (p *Publisher) PublishDispatch(ctx context.Context, event DispatchEvent) error {
	event.EventType = EventTypeDispatch
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	event.Timestamp = time.Now()

	key := fmt.Sprintf("notification_%d", event.NotificationID)
	return p.publish(ctx, TopicDispatch, key, event.EventType, event.EventID, event,
		attribute.Int64("notification.id", int64(event.NotificationID)),
		attribute.String("notification.channel", event.Channel),
	)
}

func (p *Publisher) publish(ctx context.Context, topic, key, eventType, eventID string, event interface{}, attrs ...attribute.KeyValue) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
		),
	)
	span.SetAttributes(attrs...)
	defer span.End()

	eventBytes, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventType)},
		{Key: []byte("event_id"), Value: []byte(eventID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Logger.Error().
			Err(err).
			Str("topic", topic).
			Str("event_id", eventID).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published successfully")

	logger.Logger.Info().
		Str("event_id", eventID).
		Str("event_type", eventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")

	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
