package query

import (
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/user/domain"
)

// GetStatsQuery represents the query to get user statistics (admin only)
type GetStatsQuery struct{}

// UserStats represents user statistics
type UserStats struct {
	TotalUsers  int64 `json:"total_users"`
	ActiveUsers int64 `json:"active_users"`
}

// GetStatsHandler handles get stats query
type GetStatsHandler struct {
	repo domain.UserRepository
}

// NewGetStatsHandler creates a new get stats handler
func NewGetStatsHandler(repo domain.UserRepository) *GetStatsHandler {
	return &GetStatsHandler{repo: repo}
}

// Handle executes the get stats query
func (h *GetStatsHandler) Handle(q GetStatsQuery) (*UserStats, error) {
	total, err := h.repo.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	active, err := h.repo.CountActive()
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	return &UserStats{
		TotalUsers:  total,
		ActiveUsers: active,
	}, nil
}
