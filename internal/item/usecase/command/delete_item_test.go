package command

import (
	"context"
	"testing"
)

func TestDeleteItem(t *testing.T) {
	repo := newFakeItemRepo()
	seedItem(repo)
	h := NewDeleteItemHandler(repo, nil)

	if err := h.Handle(context.Background(), DeleteItemCommand{ID: 1, UserID: 1}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(1); err == nil {
		t.Fatalf("item still present after delete")
	}
}

func TestDeleteItemChecksOwnership(t *testing.T) {
	repo := newFakeItemRepo()
	seedItem(repo)
	h := NewDeleteItemHandler(repo, nil)

	if err := h.Handle(context.Background(), DeleteItemCommand{ID: 1, UserID: 99}); err == nil {
		t.Fatalf("expected not-found for foreign item")
	}
	if _, err := repo.FindByID(1); err != nil {
		t.Fatalf("item deleted despite ownership mismatch")
	}
}

func TestDeleteItemRequiresID(t *testing.T) {
	h := NewDeleteItemHandler(newFakeItemRepo(), nil)
	if err := h.Handle(context.Background(), DeleteItemCommand{UserID: 1}); err == nil {
		t.Fatalf("expected error for zero id")
	}
}
