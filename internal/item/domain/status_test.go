package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDeriveStatusBoundaries(t *testing.T) {
	today := date(2026, time.June, 15)

	tests := []struct {
		name   string
		expiry time.Time
		status Status
		days   int
	}{
		{"tomorrow", today.AddDate(0, 0, 1), StatusExpiringSoon, 1},
		{"yesterday", today.AddDate(0, 0, -1), StatusExpired, -1},
		{"today", today, StatusExpired, 0},
		{"thirty days", today.AddDate(0, 0, 30), StatusExpiringSoon, 30},
		{"thirty one days", today.AddDate(0, 0, 31), StatusActive, 31},
		{"long expired", today.AddDate(0, 0, -90), StatusExpired, -90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, days := DeriveStatus(&tt.expiry, nil, today)
			if status != tt.status {
				t.Fatalf("status = %s, want %s", status, tt.status)
			}
			if days == nil || *days != tt.days {
				t.Fatalf("days = %v, want %d", days, tt.days)
			}
		})
	}
}

func TestDeriveStatusIgnoresTimeOfDay(t *testing.T) {
	// 23:59 today against an expiry at 00:01 tomorrow is still one
	// calendar day out
	now := time.Date(2026, time.June, 15, 23, 59, 0, 0, time.UTC)
	expiry := time.Date(2026, time.June, 16, 0, 1, 0, 0, time.UTC)

	status, days := DeriveStatus(&expiry, nil, now)
	if status != StatusExpiringSoon {
		t.Fatalf("status = %s, want %s", status, StatusExpiringSoon)
	}
	if days == nil || *days != 1 {
		t.Fatalf("days = %v, want 1", days)
	}
}

func TestDeriveStatusNoExpiryWithinGrace(t *testing.T) {
	now := date(2026, time.June, 15)
	changed := now.Add(-2 * time.Hour)

	status, days := DeriveStatus(nil, &changed, now)
	if status != StatusPending {
		t.Fatalf("status = %s, want %s", status, StatusPending)
	}
	if days != nil {
		t.Fatalf("days = %v, want nil", days)
	}
}

func TestDeriveStatusNoExpiryAfterGrace(t *testing.T) {
	now := date(2026, time.June, 15)
	changed := now.Add(-25 * time.Hour)

	status, days := DeriveStatus(nil, &changed, now)
	if status != StatusExpiringSoon {
		t.Fatalf("status = %s, want %s", status, StatusExpiringSoon)
	}
	if days == nil || *days != 30 {
		t.Fatalf("days = %v, want fallback 30", days)
	}
}

func TestDeriveStatusNoExpiryNoTimestamp(t *testing.T) {
	now := date(2026, time.June, 15)

	status, days := DeriveStatus(nil, nil, now)
	if status != StatusExpiringSoon {
		t.Fatalf("status = %s, want %s", status, StatusExpiringSoon)
	}
	if days == nil || *days != 30 {
		t.Fatalf("days = %v, want fallback 30", days)
	}
}

func TestDeriveStatusIsPure(t *testing.T) {
	today := date(2026, time.June, 15)
	expiry := today.AddDate(0, 0, 7)

	s1, d1 := DeriveStatus(&expiry, nil, today)
	s2, d2 := DeriveStatus(&expiry, nil, today)
	if s1 != s2 || *d1 != *d2 {
		t.Fatalf("repeated calls disagree: (%s,%d) vs (%s,%d)", s1, *d1, s2, *d2)
	}
}

func TestRefreshStatusRecordsTransition(t *testing.T) {
	now := date(2026, time.June, 15)
	expiry := now.AddDate(0, 0, 10)
	item := Item{Status: StatusActive, ExpiryDate: &expiry}

	if !item.RefreshStatus(now) {
		t.Fatalf("expected a status change")
	}
	if item.Status != StatusExpiringSoon {
		t.Fatalf("status = %s, want %s", item.Status, StatusExpiringSoon)
	}
	if item.StatusChangedAt == nil || !item.StatusChangedAt.Equal(now) {
		t.Fatalf("StatusChangedAt not recorded")
	}

	// No change on a second refresh with the same clock
	if item.RefreshStatus(now) {
		t.Fatalf("unexpected status change on refresh")
	}
}

func TestItemValidate(t *testing.T) {
	now := date(2026, time.June, 15)
	later := now.AddDate(0, 0, 10)
	negative := -1.0

	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{"valid", Item{Name: "Milk", UserID: 1, Quantity: 2}, false},
		{"missing name", Item{UserID: 1}, true},
		{"missing owner", Item{Name: "Milk"}, true},
		{"negative quantity", Item{Name: "Milk", UserID: 1, Quantity: -1}, true},
		{"negative price", Item{Name: "Milk", UserID: 1, SellingPrice: &negative}, true},
		{"purchase after expiry", Item{Name: "Milk", UserID: 1, PurchaseDate: &later, ExpiryDate: &now}, true},
		{"purchase before expiry", Item{Name: "Milk", UserID: 1, PurchaseDate: &now, ExpiryDate: &later}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
