package command

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/item/domain"
)

// DeleteItemCommand represents the command to delete an item
type DeleteItemCommand struct {
	ID     uint
	UserID uint
}

// DeleteItemHandler handles delete item command
type DeleteItemHandler struct {
	repo   domain.ItemRepository
	mirror ItemMirror
}

// NewDeleteItemHandler creates a new delete item handler
func NewDeleteItemHandler(repo domain.ItemRepository, mirror ItemMirror) *DeleteItemHandler {
	return &DeleteItemHandler{repo: repo, mirror: mirror}
}

// Handle executes the delete item command
func (h *DeleteItemHandler) Handle(ctx context.Context, cmd DeleteItemCommand) error {
	if cmd.ID == 0 {
		return fmt.Errorf("id is required")
	}

	// Ownership check before delete
	item, err := h.repo.FindByIDForUser(cmd.ID, cmd.UserID)
	if err != nil {
		return fmt.Errorf("item not found: %w", err)
	}

	if err := h.repo.Delete(cmd.ID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if h.mirror != nil && item.RemoteItemID != nil {
		h.mirror.ItemDeleted(ctx, *item.RemoteItemID)
	}

	return nil
}
