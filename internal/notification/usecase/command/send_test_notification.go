package command

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/notification/channel"
	"github.com/shelfwatch/shelfwatch/internal/notification/domain"
	userdomain "github.com/shelfwatch/shelfwatch/internal/user/domain"
)

// SendTestNotificationCommand sends a manual notification over a chosen
// channel so users can verify their delivery settings
type SendTestNotificationCommand struct {
	UserID  uint
	Channel domain.Channel
	Message string
}

// SendTestNotificationHandler handles send test notification command
type SendTestNotificationHandler struct {
	repo       domain.NotificationRepository
	users      userdomain.UserRepository
	dispatcher *channel.Dispatcher
}

// NewSendTestNotificationHandler creates a new send test notification handler
func NewSendTestNotificationHandler(
	repo domain.NotificationRepository,
	users userdomain.UserRepository,
	dispatcher *channel.Dispatcher,
) *SendTestNotificationHandler {
	return &SendTestNotificationHandler{repo: repo, users: users, dispatcher: dispatcher}
}

// Handle executes the send test notification command. The notification
// record is always created; a delivery failure marks it failed rather
// than propagating an error.
func (h *SendTestNotificationHandler) Handle(ctx context.Context, cmd SendTestNotificationCommand) (*domain.Notification, error) {
	switch cmd.Channel {
	case domain.ChannelInApp, domain.ChannelEmail, domain.ChannelSMS:
	default:
		return nil, fmt.Errorf("unknown channel: %s", cmd.Channel)
	}

	user, err := h.users.FindByID(cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	message := cmd.Message
	if message == "" {
		message = "This is a test notification"
	}

	n := &domain.Notification{
		UserID:   cmd.UserID,
		Message:  message,
		Channel:  cmd.Channel,
		Priority: domain.PriorityNormal,
		Status:   domain.StatusPending,
	}
	if err := h.repo.Create(n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if err := h.dispatcher.Dispatch(ctx, user, n); err != nil {
		if markErr := n.MarkFailed(); markErr == nil {
			_ = h.repo.Update(n)
		}
		return n, fmt.Errorf("delivery failed: %w", err)
	}
	return n, nil
}
