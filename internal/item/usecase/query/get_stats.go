package query

import (
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/item/domain"
)

// GetStatsQuery represents the query to get a user's item statistics
type GetStatsQuery struct {
	UserID uint
}

// ItemStats represents per-status item counts for a user
type ItemStats struct {
	TotalItems   int64 `json:"total_items"`
	Active       int64 `json:"active"`
	ExpiringSoon int64 `json:"expiring_soon"`
	Expired      int64 `json:"expired"`
	Pending      int64 `json:"pending"`
}

// GetStatsHandler handles get stats query
type GetStatsHandler struct {
	repo domain.ItemRepository
}

// NewGetStatsHandler creates a new get stats handler
func NewGetStatsHandler(repo domain.ItemRepository) *GetStatsHandler {
	return &GetStatsHandler{repo: repo}
}

// Handle executes the get stats query. Counts come from the cached status
// column, which the daily sweep keeps fresh.
func (h *GetStatsHandler) Handle(q GetStatsQuery) (*ItemStats, error) {
	if q.UserID == 0 {
		return nil, fmt.Errorf("user_id is required")
	}

	total, err := h.repo.CountByUser(q.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	stats := &ItemStats{TotalItems: total}
	for _, s := range []struct {
		status domain.Status
		dest   *int64
	}{
		{domain.StatusActive, &stats.Active},
		{domain.StatusExpiringSoon, &stats.ExpiringSoon},
		{domain.StatusExpired, &stats.Expired},
		{domain.StatusPending, &stats.Pending},
	} {
		count, err := h.repo.CountByUserAndStatus(q.UserID, s.status)
		if err != nil {
			return nil, fmt.Errorf("failed to count items by status: %w", err)
		}
		*s.dest = count
	}

	return stats, nil
}
