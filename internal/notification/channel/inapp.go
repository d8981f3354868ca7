package channel

import (
	"context"
	"fmt"

	notifdomain "github.com/shelfwatch/shelfwatch/internal/notification/domain"
	userdomain "github.com/shelfwatch/shelfwatch/internal/user/domain"
)

// InAppSender marks in-app notifications as delivered. In-app delivery
// is just persistence, the row itself is the notification.
type InAppSender struct {
	repo notifdomain.NotificationRepository
}

// NewInAppSender creates a new in-app sender
func NewInAppSender(repo notifdomain.NotificationRepository) *InAppSender {
	return &InAppSender{repo: repo}
}

// Channel returns the channel this sender serves
func (s *InAppSender) Channel() notifdomain.Channel {
	return notifdomain.ChannelInApp
}

// Send marks the notification as sent
func (s *InAppSender) Send(ctx context.Context, user *userdomain.User, n *notifdomain.Notification) error {
	if err := n.MarkSent(); err != nil {
		return err
	}
	if err := s.repo.Update(n); err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return nil
}
