package domain

import (
	"fmt"
	"time"
)

// Channel is the delivery channel of a notification
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Priority orders notifications within a batch
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Rank returns the sort rank of a priority, high first
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityNormal:
		return 1
	default:
		return 2
	}
}

// DeliveryStatus is the delivery state of a notification.
// pending -> sent | failed | read; sent, failed and read are terminal.
type DeliveryStatus string

const (
	StatusPending DeliveryStatus = "pending"
	StatusSent    DeliveryStatus = "sent"
	StatusRead    DeliveryStatus = "read"
	StatusFailed  DeliveryStatus = "failed"
)

// Notification is a unit of outbound communication to a user, optionally
// tied to an item
type Notification struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"not null;index"`
	ItemID    *uint          `json:"item_id" gorm:"index"`
	Message   string         `json:"message" gorm:"not null;size:500"`
	Channel   Channel        `json:"channel" gorm:"not null;size:20;default:'in_app'"`
	Priority  Priority       `json:"priority" gorm:"not null;size:20;default:'normal'"`
	Status    DeliveryStatus `json:"status" gorm:"not null;size:20;default:'pending'"`
	IsRead    bool           `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
}

// TableName specifies the table name
func (Notification) TableName() string {
	return "notifications"
}

// MarkSent transitions pending -> sent
func (n *Notification) MarkSent() error {
	return n.transition(StatusSent)
}

// MarkFailed transitions pending -> failed
func (n *Notification) MarkFailed() error {
	return n.transition(StatusFailed)
}

// MarkRead transitions pending -> read
func (n *Notification) MarkRead() error {
	if err := n.transition(StatusRead); err != nil {
		return err
	}
	n.IsRead = true
	return nil
}

func (n *Notification) transition(to DeliveryStatus) error {
	if n.Status != StatusPending {
		return fmt.Errorf("notification %d is %s, cannot transition to %s", n.ID, n.Status, to)
	}
	n.Status = to
	return nil
}

// NotificationRepository defines the contract for notification data access
type NotificationRepository interface {
	Create(n *Notification) error

	// CreateIfAbsent atomically checks for an existing pending
	// notification with the same item, channel and message, and inserts
	// only when none exists. Returns whether the insert happened. This is
	// the deduplication guarantee: at most one pending in-app
	// notification per (item, message) pair, even under concurrent
	// sweeps.
	CreateIfAbsent(n *Notification) (bool, error)

	FindByID(id uint) (*Notification, error)
	FindByUser(userID uint, limit int) ([]Notification, error)
	CountUnread(userID uint) (int64, error)

	// LastSentAt returns the creation time of the most recent sent
	// notification on the given channel for a user, or nil. The sweep
	// uses it to enforce the 24-hour batched-email window.
	LastSentAt(userID uint, channel Channel) (*time.Time, error)

	Update(n *Notification) error
}
