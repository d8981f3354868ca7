package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelfwatch/shelfwatch/internal/notification/domain"
)

// GormNotificationRepository implements NotificationRepository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GORM notification repository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GormNotificationRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Notification{})
}

// EnsureIndexes creates the partial unique index backing CreateIfAbsent.
// AutoMigrate cannot express a partial index, so it is issued directly.
func (r *GormNotificationRepository) EnsureIndexes() error {
	return r.db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_pending_dedup ` +
			`ON notifications (item_id, channel, message) WHERE status = 'pending'`,
	).Error
}

func (r *GormNotificationRepository) Create(n *domain.Notification) error {
	if err := r.db.Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts unless a pending notification with the same
// (item, channel, message) key already exists. Atomicity comes from the
// partial unique index idx_notifications_pending_dedup: under any
// isolation level two overlapping sweeps race on the index, and the
// loser's ON CONFLICT DO NOTHING reports zero affected rows rather than
// an error.
func (r *GormNotificationRepository) CreateIfAbsent(n *domain.Notification) (bool, error) {
	result := r.db.Clauses(pendingDedupConflict()).Create(n)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create notification: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// pendingDedupConflict targets idx_notifications_pending_dedup
func pendingDedupConflict() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "item_id"}, {Name: "channel"}, {Name: "message"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "status = 'pending'"},
		}},
		DoNothing: true,
	}
}

func (r *GormNotificationRepository) FindByID(id uint) (*domain.Notification, error) {
	var n domain.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("notification not found")
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	return &n, nil
}

func (r *GormNotificationRepository) FindByUser(userID uint, limit int) ([]domain.Notification, error) {
	var notifications []domain.Notification
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to find notifications: %w", err)
	}
	return notifications, nil
}

func (r *GormNotificationRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Notification{}).
		Where("user_id = ? AND channel = ? AND is_read = false", userID, domain.ChannelInApp).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *GormNotificationRepository) LastSentAt(userID uint, channel domain.Channel) (*time.Time, error) {
	var n domain.Notification
	err := r.db.Where("user_id = ? AND channel = ? AND status = ?", userID, channel, domain.StatusSent).
		Order("created_at DESC").
		First(&n).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find last sent notification: %w", err)
	}
	return &n.CreatedAt, nil
}

func (r *GormNotificationRepository) Update(n *domain.Notification) error {
	if err := r.db.Save(n).Error; err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return nil
}
