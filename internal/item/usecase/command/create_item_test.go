package command

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/pkg/clock"
)

// fakeItemRepo is shared by the command handler tests in this package
type fakeItemRepo struct {
	items  map[uint]*domain.Item
	nextID uint
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[uint]*domain.Item)}
}

func (r *fakeItemRepo) add(item domain.Item) {
	if item.ID >= r.nextID {
		r.nextID = item.ID
	}
	r.items[item.ID] = &item
}

func (r *fakeItemRepo) Create(item *domain.Item) error {
	r.nextID++
	item.ID = r.nextID
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeItemRepo) FindByID(id uint) (*domain.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	copied := *item
	return &copied, nil
}

func (r *fakeItemRepo) FindByIDForUser(id, userID uint) (*domain.Item, error) {
	item, err := r.FindByID(id)
	if err != nil || item.UserID != userID {
		return nil, fmt.Errorf("not found")
	}
	return item, nil
}

func (r *fakeItemRepo) FindByUser(userID uint, limit, offset int) ([]domain.Item, error) {
	var out []domain.Item
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) FindByRemoteID(remoteID string) (*domain.Item, error) {
	return nil, fmt.Errorf("not found")
}

func (r *fakeItemRepo) FindByNameForUser(name string, userID uint) (*domain.Item, error) {
	return nil, fmt.Errorf("not found")
}

func (r *fakeItemRepo) FindWithExpiryAfter(t time.Time) ([]domain.Item, error) {
	return nil, nil
}

func (r *fakeItemRepo) FindExpiredBetween(from, to time.Time) ([]domain.Item, error) {
	return nil, nil
}

func (r *fakeItemRepo) FindExpiredBefore(t time.Time) ([]domain.Item, error) {
	return nil, nil
}

func (r *fakeItemRepo) Count() (int64, error) {
	return int64(len(r.items)), nil
}

func (r *fakeItemRepo) CountByUser(userID uint) (int64, error) {
	return 0, nil
}

func (r *fakeItemRepo) CountByUserAndStatus(userID uint, status domain.Status) (int64, error) {
	return 0, nil
}

func (r *fakeItemRepo) Update(item *domain.Item) error {
	if _, ok := r.items[item.ID]; !ok {
		return fmt.Errorf("not found")
	}
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeItemRepo) Delete(id uint) error {
	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("not found")
	}
	delete(r.items, id)
	return nil
}

func (r *fakeItemRepo) Transaction(fn func(domain.ItemRepository) error) error {
	return fn(r)
}

var testNow = time.Date(2026, time.June, 15, 8, 0, 0, 0, time.UTC)

func testClock() clock.Clock { return clock.Fixed{Time: testNow} }

func floatPtr(f float64) *float64    { return &f }
func timePtr(t time.Time) *time.Time { return &t }

func TestCreateItemDerivesStatus(t *testing.T) {
	repo := newFakeItemRepo()
	h := NewCreateItemHandler(repo, testClock(), nil)

	expiry := testNow.AddDate(0, 0, 5)
	item, err := h.Handle(context.Background(), CreateItemCommand{
		UserID:     1,
		Name:       "Milk",
		Quantity:   2,
		ExpiryDate: &expiry,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.ID == 0 {
		t.Fatalf("item not persisted")
	}
	if item.Status != domain.StatusExpiringSoon {
		t.Fatalf("status = %s, want %s", item.Status, domain.StatusExpiringSoon)
	}
	if item.StatusChangedAt == nil {
		t.Fatalf("StatusChangedAt not set")
	}
}

func TestCreateItemWithoutExpiryIsPending(t *testing.T) {
	repo := newFakeItemRepo()
	h := NewCreateItemHandler(repo, testClock(), nil)

	item, err := h.Handle(context.Background(), CreateItemCommand{UserID: 1, Name: "Mystery jar"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Status != domain.StatusPending {
		t.Fatalf("status = %s, want %s", item.Status, domain.StatusPending)
	}
}

func TestCreateItemValidation(t *testing.T) {
	repo := newFakeItemRepo()
	h := NewCreateItemHandler(repo, testClock(), nil)

	expiry := testNow.AddDate(0, 0, 5)
	afterExpiry := testNow.AddDate(0, 0, 10)

	tests := []struct {
		name string
		cmd  CreateItemCommand
	}{
		{"missing name", CreateItemCommand{UserID: 1}},
		{"missing owner", CreateItemCommand{Name: "Milk"}},
		{"negative quantity", CreateItemCommand{UserID: 1, Name: "Milk", Quantity: -1}},
		{"negative price", CreateItemCommand{UserID: 1, Name: "Milk", SellingPrice: floatPtr(-0.5)}},
		{"purchase after expiry", CreateItemCommand{
			UserID: 1, Name: "Milk",
			PurchaseDate: &afterExpiry, ExpiryDate: &expiry,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.Handle(context.Background(), tt.cmd); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
	if count, _ := repo.Count(); count != 0 {
		t.Fatalf("invalid items persisted: %d", count)
	}
}
