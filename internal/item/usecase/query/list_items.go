package query

import (
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
)

// ListItemsQuery represents the query to list a user's items
type ListItemsQuery struct {
	UserID       uint
	Limit        int
	Offset       int
	ExpiringOnly bool
}

// ListItemsHandler handles list items query
type ListItemsHandler struct {
	repo  domain.ItemRepository
	clock clock.Clock
}

// NewListItemsHandler creates a new list items handler
func NewListItemsHandler(repo domain.ItemRepository, clk clock.Clock) *ListItemsHandler {
	return &ListItemsHandler{repo: repo, clock: clk}
}

// Handle executes the list items query
func (h *ListItemsHandler) Handle(q ListItemsQuery) ([]ItemView, error) {
	if q.UserID == 0 {
		return nil, fmt.Errorf("user_id is required")
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}

	items, err := h.repo.FindByUser(q.UserID, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	views := make([]ItemView, 0, len(items))
	for i := range items {
		view := NewItemView(&items[i], h.clock)
		if q.ExpiringOnly && view.Status != domain.StatusExpiringSoon {
			continue
		}
		views = append(views, *view)
	}

	return views, nil
}
