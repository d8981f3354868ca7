package channel

import (
	"context"
	"fmt"

	notifdomain "github.com/shelfwatch/shelfwatch/internal/notification/domain"
	userdomain "github.com/shelfwatch/shelfwatch/internal/user/domain"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// BatchEntry is one line of a daily expiry summary email
type BatchEntry struct {
	ItemName        string
	DaysUntilExpiry int
	Priority        notifdomain.Priority
}

// Sender delivers a notification over a single channel
type Sender interface {
	Channel() notifdomain.Channel
	Send(ctx context.Context, user *userdomain.User, n *notifdomain.Notification) error
}

// BatchSender additionally delivers batched expiry summaries
type BatchSender interface {
	Sender
	SendBatchSummary(ctx context.Context, user *userdomain.User, entries []BatchEntry) error
}

// Dispatcher routes notifications to the sender for their channel,
// honoring per-user channel opt-ins
type Dispatcher struct {
	senders map[notifdomain.Channel]Sender
}

// NewDispatcher creates a dispatcher over the given senders
func NewDispatcher(senders ...Sender) *Dispatcher {
	m := make(map[notifdomain.Channel]Sender, len(senders))
	for _, s := range senders {
		m[s.Channel()] = s
	}
	return &Dispatcher{senders: m}
}

// Dispatch sends a notification over its channel. Returns an error when
// the channel has no sender or the user has opted out of it.
func (d *Dispatcher) Dispatch(ctx context.Context, user *userdomain.User, n *notifdomain.Notification) error {
	if !optedIn(user, n.Channel) {
		return fmt.Errorf("user %d has opted out of %s notifications", user.ID, n.Channel)
	}

	sender, ok := d.senders[n.Channel]
	if !ok {
		return fmt.Errorf("no sender registered for channel %s", n.Channel)
	}

	if err := sender.Send(ctx, user, n); err != nil {
		return fmt.Errorf("failed to send over %s: %w", n.Channel, err)
	}

	logger.WithContext(ctx).Debug().
		Uint("notification_id", n.ID).
		Str("channel", string(n.Channel)).
		Msg("Notification dispatched")
	return nil
}

func optedIn(user *userdomain.User, ch notifdomain.Channel) bool {
	switch ch {
	case notifdomain.ChannelEmail:
		return user.EmailNotifications
	case notifdomain.ChannelSMS:
		return user.SMSNotifications
	case notifdomain.ChannelInApp:
		return user.InAppNotifications
	default:
		return false
	}
}
