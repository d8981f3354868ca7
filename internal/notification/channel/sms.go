package channel

import (
	"context"
	"fmt"

	notifdomain "github.com/shelfwatch/shelfwatch/internal/notification/domain"
	userdomain "github.com/shelfwatch/shelfwatch/internal/user/domain"
	"github.com/shelfwatch/shelfwatch/kafka"
)

// SMSSender hands SMS delivery off to the notifier worker via Kafka
type SMSSender struct {
	publisher *kafka.Publisher
}

// NewSMSSender creates a new SMS sender
func NewSMSSender(publisher *kafka.Publisher) *SMSSender {
	return &SMSSender{publisher: publisher}
}

// Channel returns the channel this sender serves
func (s *SMSSender) Channel() notifdomain.Channel {
	return notifdomain.ChannelSMS
}

// Send publishes a single-notification delivery event
func (s *SMSSender) Send(ctx context.Context, user *userdomain.User, n *notifdomain.Notification) error {
	if user.PhoneNumber == "" {
		return fmt.Errorf("user %d has no phone number", user.ID)
	}
	return s.publisher.PublishDispatch(ctx, kafka.DispatchEvent{
		NotificationID: n.ID,
		UserID:         user.ID,
		Channel:        string(notifdomain.ChannelSMS),
		Recipient:      user.PhoneNumber,
		Message:        n.Message,
		Priority:       string(n.Priority),
	})
}
