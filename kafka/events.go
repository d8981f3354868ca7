package kafka

import "time"

// ExpiryEntry is one line of a batched expiry summary
type ExpiryEntry struct {
	Name            string `json:"name"`
	DaysUntilExpiry int    `json:"days_until_expiry"`
	Priority        string `json:"priority"`
}

// EmailBatchEvent requests delivery of a daily expiry summary email
type EmailBatchEvent struct {
	EventID   string        `json:"event_id"`
	EventType string        `json:"event_type"`
	UserID    uint          `json:"user_id"`
	Email     string        `json:"email"`
	Entries   []ExpiryEntry `json:"entries"`
	Timestamp time.Time     `json:"timestamp"`
}

// DispatchEvent requests delivery of a single notification over an
// out-of-process channel (email or SMS)
type DispatchEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	NotificationID uint      `json:"notification_id"`
	UserID         uint      `json:"user_id"`
	Channel        string    `json:"channel"`
	Recipient      string    `json:"recipient"`
	Message        string    `json:"message"`
	Priority       string    `json:"priority"`
	Timestamp      time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeEmailBatch = "notification.email_batch"
	EventTypeDispatch   = "notification.dispatch"
)

// Kafka topics
const (
	TopicEmailBatch = "notification-email-batch"
	TopicDispatch   = "notification-dispatch"
)
