package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	itemdomain "github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
	"github.com/shelfwatch/shelfwatch/pkg/locker"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// ErrSyncInProgress is returned when a sync for the same user is
// already running
var ErrSyncInProgress = fmt.Errorf("sync already in progress for this user")

const syncLockTTL = 5 * time.Minute

var (
	syncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_runs_total",
		Help: "Total number of inventory sync runs",
	}, []string{"outcome"})

	syncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_duration_seconds",
		Help:    "Duration of inventory sync runs",
		Buckets: prometheus.DefBuckets,
	})
)

// Summary reports what a reconciliation changed
type Summary struct {
	Updated  int `json:"updated"`
	Orphaned int `json:"orphaned"`
	Linked   int `json:"linked"`
	Created  int `json:"created"`
}

// Reconciler merges a remote inventory snapshot into one user's local
// item set. The whole merge commits as a single transaction; any error
// aborts it with no partial sync persisted.
type Reconciler struct {
	items  itemdomain.ItemRepository
	client RemoteClient
	clk    clock.Clock
	locks  locker.Locker
}

// NewReconciler creates a new reconciler
func NewReconciler(items itemdomain.ItemRepository, client RemoteClient, clk clock.Clock, locks locker.Locker) *Reconciler {
	return &Reconciler{items: items, client: client, clk: clk, locks: locks}
}

// Reconcile fetches the remote snapshot and merges it into the user's
// items. Concurrent syncs for the same user are serialized via an
// advisory lock. Running twice against an unchanged snapshot produces
// no net change on the second run.
func (r *Reconciler) Reconcile(ctx context.Context, creds Credentials, userID uint) (*Summary, error) {
	lockKey := fmt.Sprintf("sync:user:%d", userID)
	acquired, err := r.locks.Acquire(ctx, lockKey, syncLockTTL)
	if err != nil {
		syncRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !acquired {
		syncRuns.WithLabelValues("locked").Inc()
		return nil, ErrSyncInProgress
	}
	defer func() {
		if err := r.locks.Release(context.Background(), lockKey); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to release sync lock")
		}
	}()

	tracer := otel.Tracer("reconciler")
	ctx, span := tracer.Start(ctx, "reconciler.Reconcile")
	span.SetAttributes(attribute.Int64("user.id", int64(userID)))
	defer span.End()

	start := time.Now()
	summary, err := r.reconcile(ctx, creds, userID)
	syncDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		syncRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	syncRuns.WithLabelValues("success").Inc()

	logger.WithContext(ctx).Info().
		Uint("user_id", userID).
		Int("updated", summary.Updated).
		Int("orphaned", summary.Orphaned).
		Int("linked", summary.Linked).
		Int("created", summary.Created).
		Msg("Inventory sync completed")

	return summary, nil
}

func (r *Reconciler) reconcile(ctx context.Context, creds Credentials, userID uint) (*Summary, error) {
	// Fetch up front so a provider failure aborts before any local write
	remote, err := r.client.FetchActiveItems(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote inventory: %w", err)
	}

	now := r.clk.Now()
	summary := &Summary{}

	err = r.items.Transaction(func(repo itemdomain.ItemRepository) error {
		locals, err := repo.FindByUser(userID, 0, 0)
		if err != nil {
			return fmt.Errorf("failed to load local items: %w", err)
		}

		byRef := make(map[string]*RemoteItem, len(remote))
		for i := range remote {
			byRef[remote[i].ID] = &remote[i]
		}
		matched := make(map[string]bool, len(remote))

		// Pass 1: locals that carry a reference id
		for i := range locals {
			item := &locals[i]
			if item.RemoteItemID == nil {
				continue
			}
			ref := *item.RemoteItemID

			ri, found := byRef[ref]
			if !found {
				// Locally orphaned: the remote side no longer knows it
				item.RemoteItemID = nil
				item.Status = itemdomain.StatusPending
				item.StatusChangedAt = &now
				if err := repo.Update(item); err != nil {
					return fmt.Errorf("failed to orphan item %d: %w", item.ID, err)
				}
				summary.Orphaned++
				continue
			}

			matched[ref] = true
			if applyRemote(item, ri, now) {
				if err := repo.Update(item); err != nil {
					return fmt.Errorf("failed to update item %d: %w", item.ID, err)
				}
				summary.Updated++
			}
		}

		// Pass 2: remote records with no reference-id match
		for i := range remote {
			ri := &remote[i]
			if matched[ri.ID] {
				continue
			}

			// Name fallback avoids duplicating items created locally
			// before their first sync
			local, err := repo.FindByNameForUser(ri.Name, userID)
			if err == nil && local != nil {
				ref := ri.ID
				changed := applyRemote(local, ri, now)
				if local.RemoteItemID == nil || *local.RemoteItemID != ref {
					local.RemoteItemID = &ref
					changed = true
				}
				if changed {
					if err := repo.Update(local); err != nil {
						return fmt.Errorf("failed to link item %d: %w", local.ID, err)
					}
					summary.Linked++
				}
				continue
			}

			ref := ri.ID
			item := &itemdomain.Item{
				UserID:          userID,
				Name:            ri.Name,
				Description:     ri.Description,
				Unit:            ri.Unit,
				Quantity:        ri.QuantityOnHand,
				SellingPrice:    &ri.Rate,
				RemoteItemID:    &ref,
				StatusChangedAt: &now,
			}
			applyRemote(item, ri, now)
			if err := repo.Create(item); err != nil {
				return fmt.Errorf("failed to create item from remote %s: %w", ref, err)
			}
			summary.Created++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// applyRemote copies the remote record's mutable fields onto the local
// item and re-derives status. Remote deactivation always wins: it
// forces expiry to today and status to Expired regardless of any
// locally tracked date. An active remote record with no expiry date
// leaves the local date untouched. Returns whether anything changed.
func applyRemote(item *itemdomain.Item, ri *RemoteItem, now time.Time) bool {
	changed := false

	if item.Name != ri.Name {
		item.Name = ri.Name
		changed = true
	}
	if item.Description != ri.Description {
		item.Description = ri.Description
		changed = true
	}
	if item.Unit != ri.Unit {
		item.Unit = ri.Unit
		changed = true
	}
	if item.SellingPrice == nil || *item.SellingPrice != ri.Rate {
		rate := ri.Rate
		item.SellingPrice = &rate
		changed = true
	}
	if item.Quantity != ri.QuantityOnHand {
		item.Quantity = ri.QuantityOnHand
		changed = true
	}

	if ri.Status == RemoteStatusInactive {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if item.ExpiryDate == nil || !item.ExpiryDate.Equal(today) {
			item.ExpiryDate = &today
			changed = true
		}
	} else if ri.ExpiryDate != nil {
		if item.ExpiryDate == nil || !item.ExpiryDate.Equal(*ri.ExpiryDate) {
			expiry := *ri.ExpiryDate
			item.ExpiryDate = &expiry
			changed = true
		}
	}

	if item.RefreshStatus(now) {
		changed = true
	}
	return changed
}
