package command

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
)

// UpdateItemCommand represents the command to update an item's mutable
// fields. Nil pointers leave the corresponding field unchanged.
type UpdateItemCommand struct {
	ID            uint
	UserID        uint
	Name          *string
	Description   *string
	Quantity      *float64
	Unit          *string
	PurchaseDate  *time.Time
	ExpiryDate    *time.Time
	SellingPrice  *float64
	CostPrice     *float64
	Location      *string
	Notes         *string
	DiscountPct   *float64
}

// UpdateItemHandler handles update item command
type UpdateItemHandler struct {
	repo   domain.ItemRepository
	clock  clock.Clock
	mirror ItemMirror
}

// NewUpdateItemHandler creates a new update item handler
func NewUpdateItemHandler(repo domain.ItemRepository, clk clock.Clock, mirror ItemMirror) *UpdateItemHandler {
	return &UpdateItemHandler{repo: repo, clock: clk, mirror: mirror}
}

// Handle executes the update item command
func (h *UpdateItemHandler) Handle(ctx context.Context, cmd UpdateItemCommand) (*domain.Item, error) {
	if cmd.ID == 0 {
		return nil, fmt.Errorf("id is required")
	}

	item, err := h.repo.FindByIDForUser(cmd.ID, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("item not found: %w", err)
	}

	if cmd.Name != nil {
		item.Name = *cmd.Name
	}
	if cmd.Description != nil {
		item.Description = *cmd.Description
	}
	if cmd.Quantity != nil {
		item.Quantity = *cmd.Quantity
	}
	if cmd.Unit != nil {
		item.Unit = *cmd.Unit
	}
	if cmd.PurchaseDate != nil {
		item.PurchaseDate = cmd.PurchaseDate
	}
	if cmd.ExpiryDate != nil {
		item.ExpiryDate = cmd.ExpiryDate
	}
	if cmd.SellingPrice != nil {
		item.SellingPrice = cmd.SellingPrice
	}
	if cmd.CostPrice != nil {
		item.CostPrice = cmd.CostPrice
	}
	if cmd.Location != nil {
		item.Location = *cmd.Location
	}
	if cmd.Notes != nil {
		item.Notes = *cmd.Notes
	}
	if cmd.DiscountPct != nil {
		item.SetDiscount(*cmd.DiscountPct)
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	item.RefreshStatus(h.clock.Now())

	if err := h.repo.Update(item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	if h.mirror != nil {
		h.mirror.ItemUpdated(ctx, item)
	}

	return item, nil
}
