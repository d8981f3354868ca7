package reconciler

import (
	"context"
	"fmt"
	"testing"
	"time"

	itemdomain "github.com/shelfwatch/shelfwatch/internal/item/domain"
)

// test fakes

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

type fakeLocker struct {
	denied bool
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return !l.denied, nil
}

func (l *fakeLocker) Release(ctx context.Context, key string) error { return nil }

type fakeClient struct {
	snapshot []RemoteItem
	err      error
}

func (c *fakeClient) FetchActiveItems(ctx context.Context, creds Credentials) ([]RemoteItem, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.snapshot, nil
}

func (c *fakeClient) CreateItem(ctx context.Context, creds Credentials, item RemoteItem) (*RemoteItem, error) {
	return &item, nil
}

func (c *fakeClient) UpdateItem(ctx context.Context, creds Credentials, item RemoteItem) error {
	return nil
}

func (c *fakeClient) DeactivateItem(ctx context.Context, creds Credentials, remoteID string) error {
	return nil
}

// memItemRepo keeps items in memory. Transaction snapshots the state and
// restores it when fn fails, mirroring a database rollback.
type memItemRepo struct {
	items      map[uint]*itemdomain.Item
	nextID     uint
	updates    int
	creates    int
	failCreate bool
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[uint]*itemdomain.Item)}
}

func (r *memItemRepo) add(item itemdomain.Item) {
	if item.ID >= r.nextID {
		r.nextID = item.ID
	}
	r.items[item.ID] = &item
}

func (r *memItemRepo) Create(item *itemdomain.Item) error {
	if r.failCreate {
		return fmt.Errorf("insert failed")
	}
	r.nextID++
	item.ID = r.nextID
	copied := *item
	r.items[item.ID] = &copied
	r.creates++
	return nil
}

func (r *memItemRepo) FindByID(id uint) (*itemdomain.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	copied := *item
	return &copied, nil
}

func (r *memItemRepo) FindByIDForUser(id, userID uint) (*itemdomain.Item, error) {
	item, err := r.FindByID(id)
	if err != nil || item.UserID != userID {
		return nil, fmt.Errorf("not found")
	}
	return item, nil
}

func (r *memItemRepo) FindByUser(userID uint, limit, offset int) ([]itemdomain.Item, error) {
	var out []itemdomain.Item
	for id := uint(1); id <= r.nextID; id++ {
		if item, ok := r.items[id]; ok && item.UserID == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *memItemRepo) FindByRemoteID(remoteID string) (*itemdomain.Item, error) {
	for _, item := range r.items {
		if item.RemoteItemID != nil && *item.RemoteItemID == remoteID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (r *memItemRepo) FindByNameForUser(name string, userID uint) (*itemdomain.Item, error) {
	for _, item := range r.items {
		if item.UserID == userID && item.Name == name {
			copied := *item
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (r *memItemRepo) FindWithExpiryAfter(t time.Time) ([]itemdomain.Item, error) {
	return nil, nil
}

func (r *memItemRepo) FindExpiredBetween(from, to time.Time) ([]itemdomain.Item, error) {
	return nil, nil
}

func (r *memItemRepo) FindExpiredBefore(t time.Time) ([]itemdomain.Item, error) {
	return nil, nil
}

func (r *memItemRepo) Count() (int64, error) { return int64(len(r.items)), nil }

func (r *memItemRepo) CountByUser(userID uint) (int64, error) {
	items, _ := r.FindByUser(userID, 0, 0)
	return int64(len(items)), nil
}

func (r *memItemRepo) CountByUserAndStatus(userID uint, status itemdomain.Status) (int64, error) {
	return 0, nil
}

func (r *memItemRepo) Update(item *itemdomain.Item) error {
	if _, ok := r.items[item.ID]; !ok {
		return fmt.Errorf("not found")
	}
	copied := *item
	r.items[item.ID] = &copied
	r.updates++
	return nil
}

func (r *memItemRepo) Delete(id uint) error {
	delete(r.items, id)
	return nil
}

func (r *memItemRepo) Transaction(fn func(itemdomain.ItemRepository) error) error {
	snapshot := make(map[uint]*itemdomain.Item, len(r.items))
	for id, item := range r.items {
		copied := *item
		snapshot[id] = &copied
	}
	nextID, updates, creates := r.nextID, r.updates, r.creates

	if err := fn(r); err != nil {
		r.items = snapshot
		r.nextID, r.updates, r.creates = nextID, updates, creates
		return err
	}
	return nil
}

// helpers

func newTestReconciler(repo *memItemRepo, client RemoteClient, now time.Time) *Reconciler {
	return NewReconciler(repo, client, &fakeClock{t: now}, &fakeLocker{})
}

func strPtr(s string) *string { return &s }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// tests

func TestReconcileUpdatesByReference(t *testing.T) {
	now := time.Date(2026, time.June, 15, 8, 0, 0, 0, time.UTC)
	repo := newMemItemRepo()
	repo.add(itemdomain.Item{
		ID:           1,
		UserID:       1,
		Name:         "Old name",
		Quantity:     5,
		RemoteItemID: strPtr("Z1"),
		Status:       itemdomain.StatusPending,
	})

	client := &fakeClient{snapshot: []RemoteItem{{
		ID:             "Z1",
		Name:           "Milk 1L",
		Unit:           "pcs",
		Rate:           2.5,
		QuantityOnHand: 12,
		Status:         RemoteStatusActive,
		ExpiryDate:     datePtr(2026, time.June, 20),
	}}}

	r := newTestReconciler(repo, client, now)
	summary, err := r.Reconcile(context.Background(), Credentials{}, 1)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if summary.Updated != 1 || summary.Orphaned != 0 || summary.Linked != 0 || summary.Created != 0 {
		t.Fatalf("summary = %+v, want one update", summary)
	}

	item, _ := repo.FindByID(1)
	if item.Name != "Milk 1L" || item.Quantity != 12 || item.Unit != "pcs" {
		t.Fatalf("remote fields not applied: %+v", item)
	}
	if item.SellingPrice == nil || *item.SellingPrice != 2.5 {
		t.Fatalf("selling price = %v, want 2.5", item.SellingPrice)
	}
	if item.Status != itemdomain.StatusExpiringSoon {
		t.Fatalf("status = %s, want %s", item.Status, itemdomain.StatusExpiringSoon)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	now := time.Date(2026, time.June, 15, 8, 0, 0, 0, time.UTC)
	repo := newMemItemRepo()
	repo.add(itemdomain.Item{ID: 1, UserID: 1, Name: "Milk", RemoteItemID: strPtr("Z1"), Status: itemdomain.StatusPending})

	client := &fakeClient{snapshot: []RemoteItem{
		{ID: "Z1", Name: "Milk", QuantityOnHand: 3, Status: RemoteStatusActive, ExpiryDate: datePtr(2026, time.July, 1)},
		{ID: "Z2", Name: "Bread", QuantityOnHand: 1, Status: RemoteStatusActive},
	}}

	r := newTestReconciler(repo, client, now)
	if _, err := r.Reconcile(context.Background(), Credentials{}, 1); err != nil {
		t.Fatalf("first run: %v", err)
	}
	updatesAfterFirst := repo.updates

	summary, err := r.Reconcile(context.Background(), Credentials{}, 1)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Updated != 0 || summary.Orphaned != 0 || summary.Linked != 0 || summary.Created != 0 {
		t.Fatalf("second run summary = %+v, want all zero", summary)
	}
	if repo.updates != updatesAfterFirst {
		t.Fatalf("second run wrote %d extra updates", repo.updates-updatesAfterFirst)
	}
	if count, _ := repo.Count(); count != 2 {
		t.Fatalf("items = %d, want 2", count)
	}
}

func TestReconcileInactiveWins(t *testing.T) {
	now := time.Date(2026, time.June, 15, 8, 0, 0, 0, time.UTC)
	repo := newMemItemRepo()
	repo.add(itemdomain.Item{
		ID:           1,
		UserID:       1,
		Name:         "Milk",
		RemoteItemID: strPtr("Z1"),
		ExpiryDate:   datePtr(2026, time.December, 1),
		Status:       itemdomain.StatusActive,
	})

	client := &fakeClient{snapshot: []RemoteItem{{
		ID:     "Z1",
		Name:   "Milk",
		Status: RemoteStatusInactive,
		// Remote deactivation overrides even a provided expiry date
		ExpiryDate: datePtr(2026, time.December, 1),
	}}}

	r := newTestReconciler(repo, client, now)
	if _, err := r.Reconcile(context.Background(), Credentials{}, 1); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	item, _ := repo.FindByID(1)
	today := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	if item.ExpiryDate == nil || !item.ExpiryDate.Equal(today) {
		t.Fatalf("expiry = %v, want %v", item.ExpiryDate, today)
	}
	if item.Status != itemdomain.StatusExpired {
		t.Fatalf("status = %s, want %s", item.Status, itemdomain.StatusExpired)
	}
}

func TestReconcileActiveWithoutExpiryKeepsLocalDate(t *testing.T) {
	now := time.Date(2026, time.June, 15, 8, 0, 0, 0, time.UTC)
	localExpiry := datePtr(2026, time.June, 20)
	repo := newMemItemRepo()
	repo.add(itemdomain.Item{
		ID:           1,
		UserID:       1,
		Name:         "Milk",
		Quantity:     5,
		RemoteItemID: strPtr("Z1"),
		ExpiryDate:   localExpiry,
		Status:       itemdomain.StatusExpiringSoon,
	})

	client := &fakeClient{snapshot: []RemoteItem{{
		ID:             "Z1",
		Name:           "Milk",
		QuantityOnHand: 9,
		Status:         RemoteStatusActive,
	}}}

	r := newTestReconciler(repo, client, now)
	if _, err := r.Reconcile(context.Background(), Credentials{}, 1); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	item, _ := repo.FindByID(1)
	if item.Quantity != 9 {
		t.Fatalf("quantity = %v, want 9", item.Quantity)
	}
	if item.ExpiryDate == nil || !item.ExpiryDate.Equal(*localExpiry) {
		t.Fatalf("local expiry date was overwritten: %v", item.ExpiryDate)
	}
}

func TestReconcileOrphansMissingReference(t *testing.T) {
	now := time.Date(2026, time.June, 15, 8, 0, 0, 0, time.UTC)
	repo := newMemItemRepo()
	repo.add(itemdomain.Item{ID: 1, UserID: 1, Name: "Milk", RemoteItemID: strPtr("gone"), Status: itemdomain.StatusActive})
	// Items never linked to the remote side are left alone
	repo.add(itemdomain.Item{ID: 2, UserID: 1, Name: "Homemade jam", Status: itemdomain.StatusActive})

	r := newTestReconciler(repo, &fakeClient{}, now)
	summary, err := r.Reconcile(context.Background(), Credentials{}, 1)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if summary.Orphaned != 1 {
		t.Fatalf("orphaned = %d, want 1", summary.Orphaned)
	}

	orphan, _ := repo.FindByID(1)
	if orphan.RemoteItemID != nil {
		t.Fatalf("reference id not cleared")
	}
	if orphan.Status != itemdomain.StatusPending {
		t.Fatalf("status = %s, want %s", orphan.Status, itemdomain.StatusPending)
	}
	if orphan.StatusChangedAt == nil || !orphan.StatusChangedAt.Equal(now) {
		t.Fatalf("StatusChangedAt not recorded")
	}

	untouched, _ := repo.FindByID(2)
	if untouched.Status != itemdomain.StatusActive {
		t.Fatalf("unlinked local item was modified: %+v", untouched)
	}
}

func TestReconcileLinksByName(t *testing.T) {
	now := time.Date(2026, time.June, 15, 8, 0, 0, 0, time.UTC)
	repo := newMemItemRepo()
	repo.add(itemdomain.Item{ID: 1, UserID: 1, Name: "Milk", Status: itemdomain.StatusPending})

	client := &fakeClient{snapshot: []RemoteItem{{
		ID:             "Z9",
		Name:           "Milk",
		QuantityOnHand: 2,
		Status:         RemoteStatusActive,
	}}}

	r := newTestReconciler(repo, client, now)
	summary, err := r.Reconcile(context.Background(), Credentials{}, 1)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if summary.Linked != 1 || summary.Created != 0 {
		t.Fatalf("summary = %+v, want one link and no creates", summary)
	}

	item, _ := repo.FindByID(1)
	if item.RemoteItemID == nil || *item.RemoteItemID != "Z9" {
		t.Fatalf("reference id = %v, want Z9", item.RemoteItemID)
	}
}

func TestReconcileCreatesUnmatchedRemote(t *testing.T) {
	now := time.Date(2026, time.June, 15, 8, 0, 0, 0, time.UTC)
	repo := newMemItemRepo()

	client := &fakeClient{snapshot: []RemoteItem{{
		ID:             "Z3",
		Name:           "Butter",
		Unit:           "pcs",
		Rate:           4.0,
		QuantityOnHand: 6,
		Status:         RemoteStatusActive,
		ExpiryDate:     datePtr(2026, time.August, 1),
	}}}

	r := newTestReconciler(repo, client, now)
	summary, err := r.Reconcile(context.Background(), Credentials{}, 7)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if summary.Created != 1 {
		t.Fatalf("created = %d, want 1", summary.Created)
	}

	item, err := repo.FindByRemoteID("Z3")
	if err != nil {
		t.Fatalf("created item not found: %v", err)
	}
	if item.UserID != 7 || item.Name != "Butter" || item.Quantity != 6 {
		t.Fatalf("created item = %+v", item)
	}
	if item.Status != itemdomain.StatusActive {
		t.Fatalf("status = %s, want %s", item.Status, itemdomain.StatusActive)
	}
}

func TestReconcileFetchFailureAborts(t *testing.T) {
	now := time.Date(2026, time.June, 15, 8, 0, 0, 0, time.UTC)
	repo := newMemItemRepo()
	repo.add(itemdomain.Item{ID: 1, UserID: 1, Name: "Milk", RemoteItemID: strPtr("Z1"), Status: itemdomain.StatusActive})

	client := &fakeClient{err: fmt.Errorf("provider unavailable")}

	r := newTestReconciler(repo, client, now)
	if _, err := r.Reconcile(context.Background(), Credentials{}, 1); err == nil {
		t.Fatalf("expected error")
	}
	if repo.updates != 0 {
		t.Fatalf("local items written despite fetch failure")
	}
	item, _ := repo.FindByID(1)
	if item.Status != itemdomain.StatusActive || item.RemoteItemID == nil {
		t.Fatalf("local item modified: %+v", item)
	}
}

func TestReconcileRollsBackOnWriteFailure(t *testing.T) {
	now := time.Date(2026, time.June, 15, 8, 0, 0, 0, time.UTC)
	repo := newMemItemRepo()
	repo.add(itemdomain.Item{ID: 1, UserID: 1, Name: "Old name", RemoteItemID: strPtr("Z1"), Status: itemdomain.StatusPending})
	repo.failCreate = true

	client := &fakeClient{snapshot: []RemoteItem{
		{ID: "Z1", Name: "Milk", Status: RemoteStatusActive, ExpiryDate: datePtr(2026, time.July, 1)},
		{ID: "Z2", Name: "Bread", Status: RemoteStatusActive},
	}}

	r := newTestReconciler(repo, client, now)
	if _, err := r.Reconcile(context.Background(), Credentials{}, 1); err == nil {
		t.Fatalf("expected error")
	}

	// The update to Z1 preceded the failed insert and must not survive
	item, _ := repo.FindByID(1)
	if item.Name != "Old name" {
		t.Fatalf("partial sync persisted: %+v", item)
	}
	if count, _ := repo.Count(); count != 1 {
		t.Fatalf("items = %d, want 1", count)
	}
}

func TestReconcileSerializedPerUser(t *testing.T) {
	now := time.Date(2026, time.June, 15, 8, 0, 0, 0, time.UTC)
	repo := newMemItemRepo()

	r := NewReconciler(repo, &fakeClient{}, &fakeClock{t: now}, &fakeLocker{denied: true})
	if _, err := r.Reconcile(context.Background(), Credentials{}, 1); err != ErrSyncInProgress {
		t.Fatalf("err = %v, want ErrSyncInProgress", err)
	}
}
