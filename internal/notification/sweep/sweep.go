package sweep

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	itemdomain "github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/internal/notification/channel"
	notifdomain "github.com/shelfwatch/shelfwatch/internal/notification/domain"
	userdomain "github.com/shelfwatch/shelfwatch/internal/user/domain"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
	"github.com/shelfwatch/shelfwatch/pkg/locker"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// DefaultThresholds are the days-until-expiry values that trigger an
// in-app notification
var DefaultThresholds = []int{30, 15, 7, 3, 1}

const (
	// emailWindow is the minimum interval between batched summary
	// emails to the same user
	emailWindow = 24 * time.Hour

	// emailSentSentinel is the marker notification recorded after a
	// successful batch send; its timestamp anchors the email window
	emailSentSentinel = "Daily expiry alert email sent"

	lockKey = "sweep:daily"
	lockTTL = 10 * time.Minute
)

var (
	sweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_runs_total",
		Help: "Total number of expiry sweep runs",
	}, []string{"outcome"})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sweep_duration_seconds",
		Help:    "Duration of expiry sweep runs",
		Buckets: prometheus.DefBuckets,
	})

	notificationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweep_notifications_created_total",
		Help: "Total number of in-app notifications created by the sweep",
	})

	batchEmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweep_batch_emails_sent_total",
		Help: "Total number of batched summary emails handed off",
	})
)

// BatchMailer delivers a batched expiry summary to a user
type BatchMailer interface {
	SendBatchSummary(ctx context.Context, user *userdomain.User, entries []channel.BatchEntry) error
}

// Result summarizes one sweep run
type Result struct {
	ItemsScanned         int  `json:"items_scanned"`
	NotificationsCreated int  `json:"notifications_created"`
	EmailsSent           int  `json:"emails_sent"`
	Skipped              bool `json:"skipped"`
}

// Sweeper is the daily expiry scan. It derives status for every item
// with an expiry date, creates deduplicated in-app notifications at the
// configured thresholds, and batches at most one summary email per user
// per 24-hour window.
type Sweeper struct {
	items      itemdomain.ItemRepository
	notifs     notifdomain.NotificationRepository
	users      userdomain.UserRepository
	mailer     BatchMailer
	clk        clock.Clock
	locks      locker.Locker
	thresholds map[int]bool
}

// NewSweeper creates a sweeper with the given thresholds, or
// DefaultThresholds when none are given
func NewSweeper(
	items itemdomain.ItemRepository,
	notifs notifdomain.NotificationRepository,
	users userdomain.UserRepository,
	mailer BatchMailer,
	clk clock.Clock,
	locks locker.Locker,
	thresholds []int,
) *Sweeper {
	if len(thresholds) == 0 {
		thresholds = DefaultThresholds
	}
	set := make(map[int]bool, len(thresholds))
	for _, t := range thresholds {
		set[t] = true
	}
	return &Sweeper{
		items:      items,
		notifs:     notifs,
		users:      users,
		mailer:     mailer,
		clk:        clk,
		locks:      locks,
		thresholds: set,
	}
}

// Run executes one sweep. Overlapping runs are excluded via an advisory
// lock; a run that loses the lock returns a skipped result, not an
// error. Email delivery failures never roll back the in-app
// notifications already created.
func (s *Sweeper) Run(ctx context.Context) (*Result, error) {
	acquired, err := s.locks.Acquire(ctx, lockKey, lockTTL)
	if err != nil {
		sweepRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	if !acquired {
		logger.WithContext(ctx).Warn().Msg("Sweep already running, skipping")
		sweepRuns.WithLabelValues("skipped").Inc()
		return &Result{Skipped: true}, nil
	}
	defer func() {
		if err := s.locks.Release(context.Background(), lockKey); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to release sweep lock")
		}
	}()

	start := time.Now()
	result, err := s.sweep(ctx)
	sweepDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		sweepRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	sweepRuns.WithLabelValues("success").Inc()
	return result, nil
}

func (s *Sweeper) sweep(ctx context.Context) (*Result, error) {
	now := s.clk.Now()
	result := &Result{}

	// Per-user email batches; expired entries go in first so they lead
	// the summary after the priority sort.
	batches := make(map[uint][]channel.BatchEntry)

	// One user lookup per run, shared by the opt-in checks and the batch
	// sends. A lookup failure caches nil and the user is skipped.
	userCache := make(map[uint]*userdomain.User)
	userFor := func(id uint) *userdomain.User {
		if u, ok := userCache[id]; ok {
			return u
		}
		u, err := s.users.FindByID(id)
		if err != nil {
			u = nil
		}
		userCache[id] = u
		return u
	}

	recentlyExpired, err := s.items.FindExpiredBetween(now.Add(-24*time.Hour), now)
	if err != nil {
		return nil, fmt.Errorf("failed to load recently expired items: %w", err)
	}
	for i := range recentlyExpired {
		item := &recentlyExpired[i]
		result.ItemsScanned++
		if u := userFor(item.UserID); u != nil && u.EmailNotifications {
			batches[item.UserID] = append(batches[item.UserID], channel.BatchEntry{
				ItemName:        item.Name,
				DaysUntilExpiry: 0,
				Priority:        notifdomain.PriorityHigh,
			})
		}
	}

	expiring, err := s.items.FindWithExpiryAfter(now)
	if err != nil {
		return nil, fmt.Errorf("failed to load expiring items: %w", err)
	}
	for i := range expiring {
		item := &expiring[i]
		result.ItemsScanned++

		days := item.DaysUntilExpiry(now)
		if days == nil || !s.thresholds[*days] {
			continue
		}

		message, priority := thresholdMessage(item, *days)
		itemID := item.ID
		created, err := s.notifs.CreateIfAbsent(&notifdomain.Notification{
			UserID:   item.UserID,
			ItemID:   &itemID,
			Message:  message,
			Channel:  notifdomain.ChannelInApp,
			Priority: priority,
			Status:   notifdomain.StatusPending,
		})
		if err != nil {
			logger.WithContext(ctx).Error().
				Err(err).
				Uint("item_id", item.ID).
				Msg("Failed to create expiry notification")
			continue
		}
		if !created {
			continue
		}

		result.NotificationsCreated++
		notificationsCreated.Inc()

		if u := userFor(item.UserID); u != nil && u.EmailNotifications {
			batches[item.UserID] = append(batches[item.UserID], channel.BatchEntry{
				ItemName:        item.Name,
				DaysUntilExpiry: *days,
				Priority:        priority,
			})
		}
	}

	for userID, entries := range batches {
		if len(entries) == 0 {
			continue
		}
		user := userFor(userID)
		if user == nil {
			continue
		}
		sent, err := s.sendBatch(ctx, user, entries, now)
		if err != nil {
			// Delivery failure is isolated from notification creation
			logger.WithContext(ctx).Error().
				Err(err).
				Uint("user_id", userID).
				Msg("Failed to send batched expiry email")
			continue
		}
		if sent {
			result.EmailsSent++
			batchEmailsSent.Inc()
		}
	}

	logger.WithContext(ctx).Info().
		Int("items_scanned", result.ItemsScanned).
		Int("notifications_created", result.NotificationsCreated).
		Int("emails_sent", result.EmailsSent).
		Msg("Expiry sweep completed")

	return result, nil
}

// sendBatch sends one summary email unless the 24-hour window since the
// last sent email notification has not yet elapsed
func (s *Sweeper) sendBatch(ctx context.Context, user *userdomain.User, entries []channel.BatchEntry, now time.Time) (bool, error) {
	lastSent, err := s.notifs.LastSentAt(user.ID, notifdomain.ChannelEmail)
	if err != nil {
		return false, fmt.Errorf("failed to check last email time: %w", err)
	}
	if lastSent != nil && now.Sub(*lastSent) < emailWindow {
		return false, nil
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority.Rank() < entries[j].Priority.Rank()
	})

	if err := s.mailer.SendBatchSummary(ctx, user, entries); err != nil {
		return false, err
	}

	// Sentinel resets the 24-hour window
	if err := s.notifs.Create(&notifdomain.Notification{
		UserID:  user.ID,
		Message: emailSentSentinel,
		Channel: notifdomain.ChannelEmail,
		Status:  notifdomain.StatusSent,
	}); err != nil {
		return false, fmt.Errorf("failed to record email sentinel: %w", err)
	}
	return true, nil
}

func thresholdMessage(item *itemdomain.Item, days int) (string, notifdomain.Priority) {
	switch {
	case days == 1:
		return fmt.Sprintf("Critical: Product %s (ID: %d) expires tomorrow!", item.Name, item.ID), notifdomain.PriorityHigh
	case days <= 3:
		return fmt.Sprintf("Warning: Product %s (ID: %d) expires in %d days!", item.Name, item.ID, days), notifdomain.PriorityHigh
	case days <= 7:
		return fmt.Sprintf("Notice: Product %s (ID: %d) expires in %d days.", item.Name, item.ID, days), notifdomain.PriorityNormal
	default:
		return fmt.Sprintf("Info: Product %s (ID: %d) expires in %d days.", item.Name, item.ID, days), notifdomain.PriorityLow
	}
}
