package command

import (
	"fmt"

	itemdomain "github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/internal/user/domain"
)

// ErrUserOwnsItems is returned when deletion is rejected because the user
// still owns items. Deleting a user never cascades to their inventory;
// the caller must delete or transfer items first.
var ErrUserOwnsItems = fmt.Errorf("user still owns items")

// DeleteUserCommand represents the command to delete a user
type DeleteUserCommand struct {
	ID uint
}

// DeleteUserHandler handles delete user command
type DeleteUserHandler struct {
	repo  domain.UserRepository
	items itemdomain.ItemRepository
}

// NewDeleteUserHandler creates a new delete user handler
func NewDeleteUserHandler(repo domain.UserRepository, items itemdomain.ItemRepository) *DeleteUserHandler {
	return &DeleteUserHandler{repo: repo, items: items}
}

// Handle executes the delete user command
func (h *DeleteUserHandler) Handle(cmd DeleteUserCommand) error {
	if cmd.ID == 0 {
		return fmt.Errorf("id is required")
	}

	count, err := h.items.CountByUser(cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to count items: %w", err)
	}
	if count > 0 {
		return ErrUserOwnsItems
	}

	if err := h.repo.Delete(cmd.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}
