package query

import (
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
)

// GetItemQuery represents the query to get an item
type GetItemQuery struct {
	ID     uint
	UserID uint
}

// ItemView is an item together with its freshly derived status
type ItemView struct {
	domain.Item
	DaysUntilExpiry *int `json:"days_until_expiry"`
}

// GetItemHandler handles get item query
type GetItemHandler struct {
	repo  domain.ItemRepository
	clock clock.Clock
}

// NewGetItemHandler creates a new get item handler
func NewGetItemHandler(repo domain.ItemRepository, clk clock.Clock) *GetItemHandler {
	return &GetItemHandler{repo: repo, clock: clk}
}

// Handle executes the get item query. The stored status column is only a
// cache, so the view re-derives status before returning it.
func (h *GetItemHandler) Handle(q GetItemQuery) (*ItemView, error) {
	if q.ID == 0 {
		return nil, fmt.Errorf("id is required")
	}

	item, err := h.repo.FindByIDForUser(q.ID, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("item not found: %w", err)
	}

	return NewItemView(item, h.clock), nil
}

// NewItemView derives the current status into a view of the item
func NewItemView(item *domain.Item, clk clock.Clock) *ItemView {
	now := clk.Now()
	status, days := domain.DeriveStatus(item.ExpiryDate, item.StatusChangedAt, now)

	view := &ItemView{Item: *item, DaysUntilExpiry: days}
	view.Status = status
	return view
}
