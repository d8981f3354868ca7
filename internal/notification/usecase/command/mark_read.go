package command

import (
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/notification/domain"
)

// MarkReadCommand acknowledges an in-app notification
type MarkReadCommand struct {
	ID     uint
	UserID uint
}

// MarkReadHandler handles mark read command
type MarkReadHandler struct {
	repo domain.NotificationRepository
}

// NewMarkReadHandler creates a new mark read handler
func NewMarkReadHandler(repo domain.NotificationRepository) *MarkReadHandler {
	return &MarkReadHandler{repo: repo}
}

// Handle executes the mark read command
func (h *MarkReadHandler) Handle(cmd MarkReadCommand) (*domain.Notification, error) {
	if cmd.ID == 0 {
		return nil, fmt.Errorf("id is required")
	}

	n, err := h.repo.FindByID(cmd.ID)
	if err != nil {
		return nil, fmt.Errorf("notification not found: %w", err)
	}
	if n.UserID != cmd.UserID {
		return nil, fmt.Errorf("notification not found")
	}

	if err := n.MarkRead(); err != nil {
		return nil, err
	}
	if err := h.repo.Update(n); err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	return n, nil
}
