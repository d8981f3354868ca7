package command

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
)

// ItemMirror propagates committed local writes to the remote inventory
// provider. Implementations must be best effort: a mirror call never
// fails the command that triggered it. A nil mirror disables mirroring.
type ItemMirror interface {
	ItemCreated(ctx context.Context, item *domain.Item)
	ItemUpdated(ctx context.Context, item *domain.Item)
	ItemDeleted(ctx context.Context, remoteID string)
}

// CreateItemCommand represents the command to create an item
type CreateItemCommand struct {
	UserID          uint
	Name            string
	Description     string
	Quantity        float64
	Unit            string
	BatchNumber     string
	PurchaseDate    *time.Time
	ExpiryDate      *time.Time
	PurchasePrice   *float64
	SellingPrice    *float64
	CostPrice       *float64
	DiscountedPrice *float64
	Location        string
	Notes           string
}

// CreateItemHandler handles create item command
type CreateItemHandler struct {
	repo   domain.ItemRepository
	clock  clock.Clock
	mirror ItemMirror
}

// NewCreateItemHandler creates a new create item handler
func NewCreateItemHandler(repo domain.ItemRepository, clk clock.Clock, mirror ItemMirror) *CreateItemHandler {
	return &CreateItemHandler{repo: repo, clock: clk, mirror: mirror}
}

// Handle executes the create item command
func (h *CreateItemHandler) Handle(ctx context.Context, cmd CreateItemCommand) (*domain.Item, error) {
	now := h.clock.Now()

	item := &domain.Item{
		UserID:          cmd.UserID,
		Name:            cmd.Name,
		Description:     cmd.Description,
		Quantity:        cmd.Quantity,
		Unit:            cmd.Unit,
		BatchNumber:     cmd.BatchNumber,
		PurchaseDate:    cmd.PurchaseDate,
		ExpiryDate:      cmd.ExpiryDate,
		PurchasePrice:   cmd.PurchasePrice,
		SellingPrice:    cmd.SellingPrice,
		CostPrice:       cmd.CostPrice,
		DiscountedPrice: cmd.DiscountedPrice,
		Location:        cmd.Location,
		Notes:           cmd.Notes,
		StatusChangedAt: &now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	item.RefreshStatus(now)

	if err := h.repo.Create(item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	if h.mirror != nil {
		h.mirror.ItemCreated(ctx, item)
	}

	return item, nil
}
