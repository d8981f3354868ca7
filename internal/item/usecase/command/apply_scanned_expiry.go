package command

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
)

// ApplyScannedExpiryCommand carries an expiry date extracted from a label
// photograph
type ApplyScannedExpiryCommand struct {
	ID         uint
	UserID     uint
	ExpiryDate time.Time
}

// ApplyScannedExpiryHandler applies an OCR-extracted expiry date to an item
type ApplyScannedExpiryHandler struct {
	repo   domain.ItemRepository
	clock  clock.Clock
	mirror ItemMirror
}

// NewApplyScannedExpiryHandler creates a new apply scanned expiry handler
func NewApplyScannedExpiryHandler(repo domain.ItemRepository, clk clock.Clock, mirror ItemMirror) *ApplyScannedExpiryHandler {
	return &ApplyScannedExpiryHandler{repo: repo, clock: clk, mirror: mirror}
}

// Handle executes the apply scanned expiry command
func (h *ApplyScannedExpiryHandler) Handle(ctx context.Context, cmd ApplyScannedExpiryCommand) (*domain.Item, error) {
	if cmd.ID == 0 {
		return nil, fmt.Errorf("id is required")
	}

	item, err := h.repo.FindByIDForUser(cmd.ID, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("item not found: %w", err)
	}

	expiry := cmd.ExpiryDate
	item.ExpiryDate = &expiry

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
