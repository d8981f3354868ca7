package query

import (
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/user/domain"
)

// GetUserQuery represents the query to get a user
type GetUserQuery struct {
	ID uint
}

// GetUserHandler handles get user query
type GetUserHandler struct {
	repo domain.UserRepository
}

// NewGetUserHandler creates a new get user handler
func NewGetUserHandler(repo domain.UserRepository) *GetUserHandler {
	return &GetUserHandler{repo: repo}
}

// Handle executes the get user query
func (h *GetUserHandler) Handle(q GetUserQuery) (*domain.User, error) {
	if q.ID == 0 {
		return nil, fmt.Errorf("id is required")
	}

	user, err := h.repo.FindByID(q.ID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return user, nil
}
