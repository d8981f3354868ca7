package repository

import (
	"strings"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shelfwatch/shelfwatch/internal/notification/domain"
)

// dryRunDB opens a gorm handle that renders SQL without a live database
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost"), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:               gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return db
}

func pendingNotification() *domain.Notification {
	itemID := uint(1)
	return &domain.Notification{
		UserID:   1,
		ItemID:   &itemID,
		Message:  "Notice: Product Milk (ID: 1) expires in 7 days.",
		Channel:  domain.ChannelInApp,
		Priority: domain.PriorityNormal,
		Status:   domain.StatusPending,
	}
}

// The dedup guarantee rests on the insert racing on the partial unique
// index, not on a read-then-write inside a transaction
func TestCreateIfAbsentTargetsPendingIndex(t *testing.T) {
	db := dryRunDB(t)

	stmt := db.Clauses(pendingDedupConflict()).Create(pendingNotification()).Statement

	sql := stmt.SQL.String()
	for _, want := range []string{
		`ON CONFLICT ("item_id","channel","message")`,
		`WHERE status = 'pending'`,
		`DO NOTHING`,
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("insert statement missing %q:\n%s", want, sql)
		}
	}
}

// A swallowed conflict affects zero rows and must surface as
// created=false, never as an error
func TestCreateIfAbsentConflictIsNotAnError(t *testing.T) {
	repo := NewGormNotificationRepository(dryRunDB(t))

	created, err := repo.CreateIfAbsent(pendingNotification())
	if err != nil {
		t.Fatalf("zero affected rows must not surface as an error: %v", err)
	}
	if created {
		t.Fatalf("zero affected rows must report created=false")
	}
}
