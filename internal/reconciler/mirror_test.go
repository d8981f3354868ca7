package reconciler

import (
	"context"
	"fmt"
	"testing"
	"time"

	itemdomain "github.com/shelfwatch/shelfwatch/internal/item/domain"
)

// mirrorClient records the remote calls a mirror makes
type mirrorClient struct {
	createID      string
	createErr     error
	updateErr     error
	deactivateErr error

	created     []RemoteItem
	updated     []RemoteItem
	deactivated []string
}

func (c *mirrorClient) FetchActiveItems(ctx context.Context, creds Credentials) ([]RemoteItem, error) {
	return nil, nil
}

func (c *mirrorClient) CreateItem(ctx context.Context, creds Credentials, item RemoteItem) (*RemoteItem, error) {
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.created = append(c.created, item)
	item.ID = c.createID
	return &item, nil
}

func (c *mirrorClient) UpdateItem(ctx context.Context, creds Credentials, item RemoteItem) error {
	if c.updateErr != nil {
		return c.updateErr
	}
	c.updated = append(c.updated, item)
	return nil
}

func (c *mirrorClient) DeactivateItem(ctx context.Context, creds Credentials, remoteID string) error {
	if c.deactivateErr != nil {
		return c.deactivateErr
	}
	c.deactivated = append(c.deactivated, remoteID)
	return nil
}

func TestMirrorItemCreatedAdoptsReference(t *testing.T) {
	repo := newMemItemRepo()
	expiry := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	item := itemdomain.Item{
		UserID:       1,
		Name:         "Milk",
		Unit:         "pcs",
		Quantity:     3,
		SellingPrice: floatRef(2.5),
		ExpiryDate:   &expiry,
	}
	if err := repo.Create(&item); err != nil {
		t.Fatalf("seed: %v", err)
	}

	client := &mirrorClient{createID: "Z7"}
	m := NewMirror(repo, client, Credentials{})

	m.ItemCreated(context.Background(), &item)

	if len(client.created) != 1 {
		t.Fatalf("remote creates = %d, want 1", len(client.created))
	}
	sent := client.created[0]
	if sent.Name != "Milk" || sent.QuantityOnHand != 3 || sent.Rate != 2.5 || sent.Status != RemoteStatusActive {
		t.Fatalf("remote payload = %+v", sent)
	}
	if item.RemoteItemID == nil || *item.RemoteItemID != "Z7" {
		t.Fatalf("reference id = %v, want Z7", item.RemoteItemID)
	}
	stored, err := repo.FindByRemoteID("Z7")
	if err != nil {
		t.Fatalf("reference id not persisted: %v", err)
	}
	if stored.ID != item.ID {
		t.Fatalf("reference id stored on item %d, want %d", stored.ID, item.ID)
	}
}

func TestMirrorItemCreatedFailureIsNotFatal(t *testing.T) {
	repo := newMemItemRepo()
	item := itemdomain.Item{UserID: 1, Name: "Milk"}
	if err := repo.Create(&item); err != nil {
		t.Fatalf("seed: %v", err)
	}

	client := &mirrorClient{createErr: fmt.Errorf("provider unavailable")}
	m := NewMirror(repo, client, Credentials{})

	m.ItemCreated(context.Background(), &item)

	if item.RemoteItemID != nil {
		t.Fatalf("reference id set despite remote failure")
	}
	if repo.updates != 0 {
		t.Fatalf("local item written despite remote failure")
	}
}

func TestMirrorItemUpdatedSkipsUnlinked(t *testing.T) {
	client := &mirrorClient{}
	m := NewMirror(newMemItemRepo(), client, Credentials{})

	m.ItemUpdated(context.Background(), &itemdomain.Item{ID: 1, Name: "Milk"})

	if len(client.updated) != 0 {
		t.Fatalf("unlinked item pushed to remote: %+v", client.updated)
	}
}

func TestMirrorItemUpdatedPushesLinked(t *testing.T) {
	client := &mirrorClient{}
	m := NewMirror(newMemItemRepo(), client, Credentials{})

	ref := "Z4"
	m.ItemUpdated(context.Background(), &itemdomain.Item{
		ID:           1,
		Name:         "Milk",
		Quantity:     8,
		RemoteItemID: &ref,
	})

	if len(client.updated) != 1 {
		t.Fatalf("remote updates = %d, want 1", len(client.updated))
	}
	if client.updated[0].ID != "Z4" || client.updated[0].QuantityOnHand != 8 {
		t.Fatalf("remote payload = %+v", client.updated[0])
	}
}

func TestMirrorItemDeletedDeactivates(t *testing.T) {
	client := &mirrorClient{}
	m := NewMirror(newMemItemRepo(), client, Credentials{})

	m.ItemDeleted(context.Background(), "Z5")

	if len(client.deactivated) != 1 || client.deactivated[0] != "Z5" {
		t.Fatalf("deactivated = %v, want [Z5]", client.deactivated)
	}
}

func floatRef(f float64) *float64 { return &f }
