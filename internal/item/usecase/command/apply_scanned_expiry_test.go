package command

import (
	"context"
	"testing"

	"github.com/shelfwatch/shelfwatch/internal/item/domain"
)

func TestApplyScannedExpiry(t *testing.T) {
	repo := newFakeItemRepo()
	repo.add(domain.Item{ID: 1, UserID: 1, Name: "Milk", Status: domain.StatusPending})
	h := NewApplyScannedExpiryHandler(repo, testClock(), nil)

	expiry := testNow.AddDate(0, 0, 5)
	item, err := h.Handle(context.Background(), ApplyScannedExpiryCommand{ID: 1, UserID: 1, ExpiryDate: expiry})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	if item.ExpiryDate == nil || !item.ExpiryDate.Equal(expiry) {
		t.Fatalf("expiry = %v, want %v", item.ExpiryDate, expiry)
	}
	if item.Status != domain.StatusExpiringSoon {
		t.Fatalf("status = %s, want %s", item.Status, domain.StatusExpiringSoon)
	}

	stored, _ := repo.FindByID(1)
	if stored.ExpiryDate == nil {
		t.Fatalf("expiry not persisted")
	}
}

func TestApplyScannedExpiryRejectsBeforePurchase(t *testing.T) {
	repo := newFakeItemRepo()
	purchase := testNow.AddDate(0, 0, 10)
	repo.add(domain.Item{ID: 1, UserID: 1, Name: "Milk", PurchaseDate: &purchase})
	h := NewApplyScannedExpiryHandler(repo, testClock(), nil)

	if _, err := h.Handle(context.Background(), ApplyScannedExpiryCommand{ID: 1, UserID: 1, ExpiryDate: testNow}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestApplyScannedExpiryChecksOwnership(t *testing.T) {
	repo := newFakeItemRepo()
	repo.add(domain.Item{ID: 1, UserID: 1, Name: "Milk"})
	h := NewApplyScannedExpiryHandler(repo, testClock(), nil)

	if _, err := h.Handle(context.Background(), ApplyScannedExpiryCommand{ID: 1, UserID: 2, ExpiryDate: testNow.AddDate(0, 0, 5)}); err == nil {
		t.Fatalf("expected not-found for foreign item")
	}
}
