package reconciler

import (
	"context"
	"time"
)

// Remote item statuses
const (
	RemoteStatusActive   = "active"
	RemoteStatusInactive = "inactive"
)

// RemoteItem is one record from the external inventory snapshot
type RemoteItem struct {
	ID             string     `json:"item_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Unit           string     `json:"unit"`
	Rate           float64    `json:"rate"`
	QuantityOnHand float64    `json:"stock_on_hand"`
	Status         string     `json:"status"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
}

// Credentials carries the per-request external API authorization.
// Token acquisition and refresh happen entirely outside this package.
type Credentials struct {
	AccessToken    string
	OrganizationID string
}

// RemoteClient is the contract with the external inventory provider
type RemoteClient interface {
	FetchActiveItems(ctx context.Context, creds Credentials) ([]RemoteItem, error)
	CreateItem(ctx context.Context, creds Credentials, item RemoteItem) (*RemoteItem, error)
	UpdateItem(ctx context.Context, creds Credentials, item RemoteItem) error
	DeactivateItem(ctx context.Context, creds Credentials, remoteID string) error
}
