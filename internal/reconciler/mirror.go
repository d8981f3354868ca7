package reconciler

import (
	"context"

	itemdomain "github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// Mirror pushes committed local item writes to the remote inventory
// provider so both sides stay aligned between reconciliation runs.
// Every push is best effort: remote failures are logged and never roll
// back the local write.
type Mirror struct {
	items  itemdomain.ItemRepository
	client RemoteClient
	creds  Credentials
}

// NewMirror creates a mirror bound to fixed service credentials
func NewMirror(items itemdomain.ItemRepository, client RemoteClient, creds Credentials) *Mirror {
	return &Mirror{items: items, client: client, creds: creds}
}

// ItemCreated registers the item remotely and adopts the returned
// reference id
func (m *Mirror) ItemCreated(ctx context.Context, item *itemdomain.Item) {
	created, err := m.client.CreateItem(ctx, m.creds, remoteFromItem(item))
	if err != nil {
		logger.WithContext(ctx).Warn().
			Err(err).
			Uint("item_id", item.ID).
			Msg("Failed to mirror item creation")
		return
	}
	if created == nil || created.ID == "" {
		return
	}

	ref := created.ID
	item.RemoteItemID = &ref
	if err := m.items.Update(item); err != nil {
		logger.WithContext(ctx).Warn().
			Err(err).
			Uint("item_id", item.ID).
			Str("remote_id", ref).
			Msg("Failed to store remote reference id")
	}
}

// ItemUpdated pushes the current field values of an already linked item
func (m *Mirror) ItemUpdated(ctx context.Context, item *itemdomain.Item) {
	if item.RemoteItemID == nil {
		return
	}

	ri := remoteFromItem(item)
	ri.ID = *item.RemoteItemID
	if err := m.client.UpdateItem(ctx, m.creds, ri); err != nil {
		logger.WithContext(ctx).Warn().
			Err(err).
			Uint("item_id", item.ID).
			Msg("Failed to mirror item update")
	}
}

// ItemDeleted retires the remote counterpart of a deleted item
func (m *Mirror) ItemDeleted(ctx context.Context, remoteID string) {
	if err := m.client.DeactivateItem(ctx, m.creds, remoteID); err != nil {
		logger.WithContext(ctx).Warn().
			Err(err).
			Str("remote_id", remoteID).
			Msg("Failed to deactivate remote item")
	}
}

func remoteFromItem(item *itemdomain.Item) RemoteItem {
	ri := RemoteItem{
		Name:           item.Name,
		Description:    item.Description,
		Unit:           item.Unit,
		QuantityOnHand: item.Quantity,
		Status:         RemoteStatusActive,
		ExpiryDate:     item.ExpiryDate,
	}
	if item.SellingPrice != nil {
		ri.Rate = *item.SellingPrice
	}
	return ri
}
