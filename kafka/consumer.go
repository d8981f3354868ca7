package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// EmailBatchHandler handles batched summary email events
type EmailBatchHandler func(ctx context.Context, event EmailBatchEvent) error

// DispatchHandler handles single-notification delivery events
type DispatchHandler func(ctx context.Context, event DispatchEvent) error

// Consumer wraps a Kafka consumer group
type Consumer struct {
	consumer sarama.ConsumerGroup
	brokers  []string
	groupID  string
	topics   []string

	mu                sync.RWMutex
	emailBatchHandler EmailBatchHandler
	dispatchHandler   DispatchHandler
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(brokers []string, groupID string, topics []string) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Str("group_id", groupID).
		Strs("topics", topics).
		Msg("Kafka consumer initialized")

	return &Consumer{
		consumer: consumer,
		brokers:  brokers,
		groupID:  groupID,
		topics:   topics,
	}, nil
}

// OnEmailBatch registers the handler for email batch events
func (c *Consumer) OnEmailBatch(handler EmailBatchHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emailBatchHandler = handler
}

// OnDispatch registers the handler for dispatch events
func (c *Consumer) OnDispatch(handler DispatchHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchHandler = handler
}

// Start starts consuming messages
func (c *Consumer) Start(ctx context.Context) error {
	handler := &consumerGroupHandler{consumer: c}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Logger.Info().Msg("Consumer context cancelled, stopping...")
				return
			default:
				if err := c.consumer.Consume(ctx, c.topics, handler); err != nil {
					logger.Logger.Error().Err(err).Msg("Error from consumer")
				}
			}
		}
	}()

	go func() {
		for err := range c.consumer.Errors() {
			logger.Logger.Error().Err(err).Msg("Consumer error")
		}
	}()

	logger.Logger.Info().
		Strs("topics", c.topics).
		Str("group_id", c.groupID).
		Msg("Kafka consumer started")

	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	if c.consumer != nil {
		return c.consumer.Close()
	}
	return nil
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *Consumer
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		h.handleMessage(session.Context(), message)
		session.MarkMessage(message, "")
	}
	return nil
}

func (h *consumerGroupHandler) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) {
	// Extract trace context from Kafka headers
	carrier := propagation.MapCarrier{}
	eventType := ""
	eventID := ""
	for _, header := range message.Headers {
		switch key := string(header.Key); key {
		case "traceparent", "tracestate":
			carrier[key] = string(header.Value)
		case "event_type":
			eventType = string(header.Value)
		case "event_id":
			eventID = string(header.Value)
		}
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	tracer := otel.Tracer("kafka-consumer")
	ctx, span := tracer.Start(ctx, "kafka.consume."+eventType,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.source", message.Topic),
			attribute.Int("messaging.kafka.partition", int(message.Partition)),
			attribute.Int64("messaging.kafka.offset", message.Offset),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
		),
	)
	defer span.End()

	if eventType == "" {
		span.SetStatus(codes.Error, "Message without event_type header")
		logger.Logger.Warn().Msg("Message without event_type header")
		return
	}

	h.consumer.mu.RLock()
	emailBatchHandler := h.consumer.emailBatchHandler
	dispatchHandler := h.consumer.dispatchHandler
	h.consumer.mu.RUnlock()

	var err error
	switch eventType {
	case EventTypeEmailBatch:
		if emailBatchHandler == nil {
			span.SetStatus(codes.Error, "No handler registered")
			logger.Logger.Warn().Str("event_type", eventType).Msg("No handler registered for event type")
			return
		}
		var event EmailBatchEvent
		if err = json.Unmarshal(message.Value, &event); err == nil {
			err = emailBatchHandler(ctx, event)
		}

	case EventTypeDispatch:
		if dispatchHandler == nil {
			span.SetStatus(codes.Error, "No handler registered")
			logger.Logger.Warn().Str("event_type", eventType).Msg("No handler registered for event type")
			return
		}
		var event DispatchEvent
		if err = json.Unmarshal(message.Value, &event); err == nil {
			err = dispatchHandler(ctx, event)
		}

	default:
		span.SetStatus(codes.Error, "Unknown event type")
		logger.Logger.Warn().Str("event_type", eventType).Msg("Unknown event type")
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to handle event")
		logger.Logger.Error().
			Err(err).
			Str("event_type", eventType).
			Str("event_id", eventID).
			Msg("Failed to handle event")
		return
	}

	span.SetStatus(codes.Ok, "Event handled successfully")
	logger.Logger.Info().
		Str("event_type", eventType).
		Str("event_id", eventID).
		Msg("Event handled")
}
