package channel

import (
	"context"
	"fmt"

	notifdomain "github.com/shelfwatch/shelfwatch/internal/notification/domain"
	userdomain "github.com/shelfwatch/shelfwatch/internal/user/domain"
	"github.com/shelfwatch/shelfwatch/kafka"
)

// EmailSender hands email delivery off to the notifier worker via Kafka
type EmailSender struct {
	publisher *kafka.Publisher
}

// NewEmailSender creates a new email sender
func NewEmailSender(publisher *kafka.Publisher) *EmailSender {
	return &EmailSender{publisher: publisher}
}

// Channel returns the channel this sender serves
func (s *EmailSender) Channel() notifdomain.Channel {
	return notifdomain.ChannelEmail
}

// Send publishes a single-notification delivery event
func (s *EmailSender) Send(ctx context.Context, user *userdomain.User, n *notifdomain.Notification) error {
	if user.Email == "" {
		return fmt.Errorf("user %d has no email address", user.ID)
	}
	return s.publisher.PublishDispatch(ctx, kafka.DispatchEvent{
		NotificationID: n.ID,
		UserID:         user.ID,
		Channel:        string(notifdomain.ChannelEmail),
		Recipient:      user.Email,
		Message:        n.Message,
		Priority:       string(n.Priority),
	})
}

// SendBatchSummary publishes a daily expiry summary for the user
func (s *EmailSender) SendBatchSummary(ctx context.Context, user *userdomain.User, entries []BatchEntry) error {
	if user.Email == "" {
		return fmt.Errorf("user %d has no email address", user.ID)
	}
	if len(entries) == 0 {
		return fmt.Errorf("refusing to send empty summary to user %d", user.ID)
	}

	event := kafka.EmailBatchEvent{
		UserID:  user.ID,
		Email:   user.Email,
		Entries: make([]kafka.ExpiryEntry, 0, len(entries)),
	}
	for _, e := range entries {
		event.Entries = append(event.Entries, kafka.ExpiryEntry{
			Name:            e.ItemName,
			DaysUntilExpiry: e.DaysUntilExpiry,
			Priority:        string(e.Priority),
		})
	}
	return s.publisher.PublishEmailBatch(ctx, event)
}
