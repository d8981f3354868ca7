package domain

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Item represents a tracked inventory unit owned by a single user
type Item struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	UserID          uint           `json:"user_id" gorm:"not null;index"`
	Name            string         `json:"name" gorm:"not null;size:100"`
	Description     string         `json:"description"`
	Quantity        float64        `json:"quantity" gorm:"not null;default:0"`
	Unit            string         `json:"unit" gorm:"size:20"`
	BatchNumber     string         `json:"batch_number" gorm:"size:50"`
	PurchaseDate    *time.Time     `json:"purchase_date"`
	ExpiryDate      *time.Time     `json:"expiry_date" gorm:"index"`
	PurchasePrice   *float64       `json:"purchase_price"`
	SellingPrice    *float64       `json:"selling_price"`
	CostPrice       *float64       `json:"cost_price"`
	DiscountedPrice *float64       `json:"discounted_price"`
	Location        string         `json:"location" gorm:"size:100"`
	Notes           string         `json:"notes"`
	ImageURL        string         `json:"image_url" gorm:"size:255"`
	RemoteItemID    *string        `json:"remote_item_id" gorm:"uniqueIndex;size:100"`
	Status          Status         `json:"status" gorm:"not null;size:20;default:'Pending Expiry Date'"`
	StatusChangedAt *time.Time     `json:"status_changed_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Item) TableName() string {
	return "items"
}

// Validate checks field consistency before the item is persisted
func (i *Item) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("name is required")
	}
	if i.UserID == 0 {
		return fmt.Errorf("user_id is required")
	}
	if i.Quantity < 0 {
		return fmt.Errorf("quantity cannot be negative")
	}
	for _, p := range []struct {
		name  string
		value *float64
	}{
		{"purchase_price", i.PurchasePrice},
		{"selling_price", i.SellingPrice},
		{"cost_price", i.CostPrice},
		{"discounted_price", i.DiscountedPrice},
	} {
		if p.value != nil && *p.value < 0 {
			return fmt.Errorf("%s cannot be negative", p.name)
		}
	}
	if i.PurchaseDate != nil && i.ExpiryDate != nil && i.PurchaseDate.After(*i.ExpiryDate) {
		return fmt.Errorf("purchase date cannot be after expiry date")
	}
	return nil
}

// DaysUntilExpiry returns the calendar-day distance to the expiry date, or
// nil when no expiry date is set
func (i *Item) DaysUntilExpiry(now time.Time) *int {
	if i.ExpiryDate == nil {
		return nil
	}
	days := DaysBetween(now, *i.ExpiryDate)
	return &days
}

// RefreshStatus re-derives the cached status from the expiry date and
// records the transition time. Returns true when the status changed.
// The persisted status column is a cache of DeriveStatus and must be
// refreshed before being trusted for any business decision.
func (i *Item) RefreshStatus(now time.Time) bool {
	status, _ := DeriveStatus(i.ExpiryDate, i.StatusChangedAt, now)
	if status == i.Status {
		return false
	}
	i.Status = status
	i.StatusChangedAt = &now
	return true
}

// SetDiscount derives the discounted price from a percentage off the
// selling price
func (i *Item) SetDiscount(percentage float64) {
	if i.SellingPrice == nil {
		return
	}
	discounted := *i.SellingPrice * (1 - percentage/100)
	i.DiscountedPrice = &discounted
}

// ItemRepository defines the contract for item data access
type ItemRepository interface {
	Create(item *Item) error
	FindByID(id uint) (*Item, error)
	FindByIDForUser(id, userID uint) (*Item, error)
	FindByUser(userID uint, limit, offset int) ([]Item, error)
	FindByRemoteID(remoteID string) (*Item, error)
	FindByNameForUser(name string, userID uint) (*Item, error)
	FindWithExpiryAfter(t time.Time) ([]Item, error)
	FindExpiredBetween(from, to time.Time) ([]Item, error)
	FindExpiredBefore(t time.Time) ([]Item, error)
	Count() (int64, error)
	CountByUser(userID uint) (int64, error)
	CountByUserAndStatus(userID uint, status Status) (int64, error)
	Update(item *Item) error
	Delete(id uint) error

	// Transaction runs fn against a repository bound to a single
	// transaction; any error rolls back every change made inside fn.
	Transaction(fn func(ItemRepository) error) error
}
