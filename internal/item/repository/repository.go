package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shelfwatch/shelfwatch/internal/item/domain"
)

// GormItemRepository implements ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GORM item repository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GormItemRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Item{})
}

func (r *GormItemRepository) Create(item *domain.Item) error {
	if err := r.db.Create(item).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

func (r *GormItemRepository) FindByID(id uint) (*domain.Item, error) {
	var item domain.Item
	if err := r.db.First(&item, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("item not found")
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &item, nil
}

func (r *GormItemRepository) FindByIDForUser(id, userID uint) (*domain.Item, error) {
	var item domain.Item
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("item not found")
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &item, nil
}

// FindByUser retrieves a user's items, newest first. A limit of 0 returns
// all items, which the sync reconciler relies on.
func (r *GormItemRepository) FindByUser(userID uint, limit, offset int) ([]domain.Item, error) {
	var items []domain.Item
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to find items: %w", err)
	}
	return items, nil
}

func (r *GormItemRepository) FindByRemoteID(remoteID string) (*domain.Item, error) {
	var item domain.Item
	if err := r.db.Where("remote_item_id = ?", remoteID).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("item not found")
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &item, nil
}

func (r *GormItemRepository) FindByNameForUser(name string, userID uint) (*domain.Item, error) {
	var item domain.Item
	if err := r.db.Where("name = ? AND user_id = ?", name, userID).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("item not found")
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &item, nil
}

func (r *GormItemRepository) FindWithExpiryAfter(t time.Time) ([]domain.Item, error) {
	var items []domain.Item
	if err := r.db.Where("expiry_date IS NOT NULL AND expiry_date > ?", t).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to find items by expiry: %w", err)
	}
	return items, nil
}

func (r *GormItemRepository) FindExpiredBetween(from, to time.Time) ([]domain.Item, error) {
	var items []domain.Item
	err := r.db.Where("expiry_date IS NOT NULL AND expiry_date > ? AND expiry_date <= ?", from, to).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expired items: %w", err)
	}
	return items, nil
}

func (r *GormItemRepository) FindExpiredBefore(t time.Time) ([]domain.Item, error) {
	var items []domain.Item
	if err := r.db.Where("expiry_date IS NOT NULL AND expiry_date < ?", t).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to find expired items: %w", err)
	}
	return items, nil
}

func (r *GormItemRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&domain.Item{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (r *GormItemRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&domain.Item{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (r *GormItemRepository) CountByUserAndStatus(userID uint, status domain.Status) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Item{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count items by status: %w", err)
	}
	return count, nil
}

func (r *GormItemRepository) Update(item *domain.Item) error {
	if err := r.db.Save(item).Error; err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return nil
}

func (r *GormItemRepository) Delete(id uint) error {
	result := r.db.Delete(&domain.Item{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("item not found")
	}
	return nil
}

// Transaction runs fn with a repository bound to a single database
// transaction; the sync reconciler uses this for its all-or-nothing merge
func (r *GormItemRepository) Transaction(fn func(domain.ItemRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormItemRepository{db: tx})
	})
}
