package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	itemdomain "github.com/shelfwatch/shelfwatch/internal/item/domain"
	notifdomain "github.com/shelfwatch/shelfwatch/internal/notification/domain"
	"github.com/shelfwatch/shelfwatch/internal/reconciler"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// grace is how long an expired item survives before the purge
const grace = 24 * time.Hour

var itemsPurged = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cleanup_items_purged_total",
	Help: "Total number of expired items removed by cleanup",
})

// RemoteDeactivator retires the remote counterpart of a purged item.
// Optional; remote failures never block the local purge.
type RemoteDeactivator interface {
	DeactivateItem(ctx context.Context, creds reconciler.Credentials, remoteID string) error
}

// Purger removes items whose expiry date has passed the grace period,
// leaving the user a farewell notification for each
type Purger struct {
	items  itemdomain.ItemRepository
	notifs notifdomain.NotificationRepository
	remote RemoteDeactivator
	clk    clock.Clock
}

// NewPurger creates a purger. remote may be nil when no external
// inventory is configured.
func NewPurger(
	items itemdomain.ItemRepository,
	notifs notifdomain.NotificationRepository,
	remote RemoteDeactivator,
	clk clock.Clock,
) *Purger {
	return &Purger{items: items, notifs: notifs, remote: remote, clk: clk}
}

// Run purges items that expired more than the grace period ago.
// Returns the number of items removed.
func (p *Purger) Run(ctx context.Context, creds reconciler.Credentials) (int, error) {
	now := p.clk.Now()
	cutoff := now.Add(-grace)

	expired, err := p.items.FindExpiredBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to load expired items: %w", err)
	}

	purged := 0
	for i := range expired {
		item := &expired[i]

		itemID := item.ID
		if err := p.notifs.Create(&notifdomain.Notification{
			UserID:   item.UserID,
			ItemID:   &itemID,
			Message:  fmt.Sprintf("Item '%s' (ID: %d) has expired and will be removed from the system.", item.Name, item.ID),
			Channel:  notifdomain.ChannelInApp,
			Priority: notifdomain.PriorityNormal,
			Status:   notifdomain.StatusPending,
		}); err != nil {
			logger.WithContext(ctx).Error().
				Err(err).
				Uint("item_id", item.ID).
				Msg("Failed to create purge notification, item kept")
			continue
		}

		if item.RemoteItemID != nil && p.remote != nil {
			if err := p.remote.DeactivateItem(ctx, creds, *item.RemoteItemID); err != nil {
				// Remote deactivation is best effort
				logger.WithContext(ctx).Warn().
					Err(err).
					Uint("item_id", item.ID).
					Str("remote_id", *item.RemoteItemID).
					Msg("Failed to deactivate remote item")
			}
		}

		if err := p.items.Delete(item.ID); err != nil {
			logger.WithContext(ctx).Error().
				Err(err).
				Uint("item_id", item.ID).
				Msg("Failed to delete expired item")
			continue
		}
		purged++
		itemsPurged.Inc()
	}

	logger.WithContext(ctx).Info().
		Int("purged", purged).
		Int("candidates", len(expired)).
		Msg("Expired item cleanup completed")

	return purged, nil
}
