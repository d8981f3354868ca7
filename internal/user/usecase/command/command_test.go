package command

import (
	"errors"
	"fmt"
	"testing"
	"time"

	itemdomain "github.com/shelfwatch/shelfwatch/internal/item/domain"
	"github.com/shelfwatch/shelfwatch/internal/user/domain"
	"github.com/shelfwatch/shelfwatch/pkg/auth"
)

type fakeUserRepo struct {
	users  map[uint]*domain.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*domain.User)}
}

func (r *fakeUserRepo) add(u domain.User) {
	if u.ID >= r.nextID {
		r.nextID = u.ID
	}
	r.users[u.ID] = &u
}

func (r *fakeUserRepo) Create(u *domain.User) error {
	r.nextID++
	u.ID = r.nextID
	copied := *u
	r.users[u.ID] = &copied
	return nil
}

func (r *fakeUserRepo) FindByID(id uint) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (r *fakeUserRepo) FindByEmail(email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (r *fakeUserRepo) FindAll(limit, offset int) ([]domain.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) Update(u *domain.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return fmt.Errorf("not found")
	}
	copied := *u
	r.users[u.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Delete(id uint) error {
	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("not found")
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) Count() (int64, error) {
	return int64(len(r.users)), nil
}

func (r *fakeUserRepo) CountActive() (int64, error) {
	return int64(len(r.users)), nil
}

// stubItemRepo only answers ownership counts
type stubItemRepo struct {
	owned map[uint]int64
}

func (r *stubItemRepo) Create(item *itemdomain.Item) error { return nil }

func (r *stubItemRepo) FindByID(id uint) (*itemdomain.Item, error) {
	return nil, fmt.Errorf("not found")
}

func (r *stubItemRepo) FindByIDForUser(id, userID uint) (*itemdomain.Item, error) {
	return nil, fmt.Errorf("not found")
}

func (r *stubItemRepo) FindByUser(userID uint, limit, offset int) ([]itemdomain.Item, error) {
	return nil, nil
}

func (r *stubItemRepo) FindByRemoteID(remoteID string) (*itemdomain.Item, error) {
	return nil, fmt.Errorf("not found")
}

func (r *stubItemRepo) FindByNameForUser(name string, userID uint) (*itemdomain.Item, error) {
	return nil, fmt.Errorf("not found")
}

func (r *stubItemRepo) FindWithExpiryAfter(t time.Time) ([]itemdomain.Item, error) {
	return nil, nil
}

func (r *stubItemRepo) FindExpiredBetween(from, to time.Time) ([]itemdomain.Item, error) {
	return nil, nil
}

func (r *stubItemRepo) FindExpiredBefore(t time.Time) ([]itemdomain.Item, error) {
	return nil, nil
}

func (r *stubItemRepo) Count() (int64, error) { return 0, nil }

func (r *stubItemRepo) CountByUser(userID uint) (int64, error) {
	return r.owned[userID], nil
}

func (r *stubItemRepo) CountByUserAndStatus(userID uint, status itemdomain.Status) (int64, error) {
	return 0, nil
}

func (r *stubItemRepo) Update(item *itemdomain.Item) error { return nil }
func (r *stubItemRepo) Delete(id uint) error               { return nil }

func (r *stubItemRepo) Transaction(fn func(itemdomain.ItemRepository) error) error {
	return fn(r)
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestRegisterUser(t *testing.T) {
	repo := newFakeUserRepo()
	h := NewRegisterUserHandler(repo)

	user, err := h.Handle(RegisterUserCommand{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if user.Role != domain.RoleUser {
		t.Fatalf("role = %s, want %s", user.Role, domain.RoleUser)
	}
	if !user.IsActive || !user.EmailNotifications || !user.InAppNotifications {
		t.Fatalf("default flags not set: %+v", user)
	}
	if user.Password == "hunter22" {
		t.Fatalf("password stored in plaintext")
	}
	if !auth.CheckPassword(user.Password, "hunter22") {
		t.Fatalf("stored hash does not verify")
	}
}

func TestRegisterUserRejectsInvalid(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(domain.User{ID: 1, Username: "alice", Email: "alice@example.com", IsActive: true})
	h := NewRegisterUserHandler(repo)

	tests := []struct {
		name string
		cmd  RegisterUserCommand
	}{
		{"duplicate username", RegisterUserCommand{Username: "alice", Email: "new@example.com", Password: "hunter22"}},
		{"duplicate email", RegisterUserCommand{Username: "bob", Email: "alice@example.com", Password: "hunter22"}},
		{"short password", RegisterUserCommand{Username: "bob", Email: "bob@example.com", Password: "abc"}},
		{"bad email", RegisterUserCommand{Username: "bob", Email: "not-an-email", Password: "hunter22"}},
		{"bad role", RegisterUserCommand{Username: "bob", Email: "bob@example.com", Password: "hunter22", Role: "root"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.Handle(tt.cmd); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoginUser(t *testing.T) {
	hash, err := auth.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := newFakeUserRepo()
	repo.add(domain.User{ID: 1, Username: "alice", Email: "alice@example.com", Password: hash, Role: domain.RoleUser, IsActive: true})
	h := NewLoginUserHandler(repo)

	resp, err := h.Handle(LoginUserCommand{Username: "alice", Password: "hunter22"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := auth.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.UserID != 1 || claims.Username != "alice" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestLoginUserRejections(t *testing.T) {
	hash, _ := auth.HashPassword("hunter22")
	repo := newFakeUserRepo()
	repo.add(domain.User{ID: 1, Username: "alice", Password: hash, IsActive: true})
	repo.add(domain.User{ID: 2, Username: "mallory", Password: hash, IsActive: false})
	h := NewLoginUserHandler(repo)

	tests := []struct {
		name string
		cmd  LoginUserCommand
	}{
		{"wrong password", LoginUserCommand{Username: "alice", Password: "wrong"}},
		{"unknown user", LoginUserCommand{Username: "nobody", Password: "hunter22"}},
		{"deactivated account", LoginUserCommand{Username: "mallory", Password: "hunter22"}},
		{"empty password", LoginUserCommand{Username: "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.Handle(tt.cmd); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDeleteUserBlockedByOwnedItems(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(domain.User{ID: 1, Username: "alice", IsActive: true})
	items := &stubItemRepo{owned: map[uint]int64{1: 3}}
	h := NewDeleteUserHandler(repo, items)

	err := h.Handle(DeleteUserCommand{ID: 1})
	if !errors.Is(err, ErrUserOwnsItems) {
		t.Fatalf("err = %v, want ErrUserOwnsItems", err)
	}
	if _, err := repo.FindByID(1); err != nil {
		t.Fatalf("user deleted despite owned items")
	}
}

func TestDeleteUserWithoutItems(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(domain.User{ID: 1, Username: "alice", IsActive: true})
	h := NewDeleteUserHandler(repo, &stubItemRepo{owned: map[uint]int64{}})

	if err := h.Handle(DeleteUserCommand{ID: 1}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(1); err == nil {
		t.Fatalf("user still present after delete")
	}
}

func TestUpdatePreferencesPartial(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(domain.User{ID: 1, Username: "alice", IsActive: true, EmailNotifications: true, InAppNotifications: true})
	h := NewUpdatePreferencesHandler(repo)

	user, err := h.Handle(UpdatePreferencesCommand{
		UserID:             1,
		EmailNotifications: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if user.EmailNotifications {
		t.Fatalf("email opt-in not cleared")
	}
	if !user.InAppNotifications {
		t.Fatalf("untouched flag changed")
	}
}

func TestUpdatePreferencesSMSNeedsPhone(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(domain.User{ID: 1, Username: "alice", IsActive: true})
	h := NewUpdatePreferencesHandler(repo)

	if _, err := h.Handle(UpdatePreferencesCommand{UserID: 1, SMSNotifications: boolPtr(true)}); err == nil {
		t.Fatalf("expected error for sms opt-in without phone number")
	}

	user, err := h.Handle(UpdatePreferencesCommand{
		UserID:           1,
		SMSNotifications: boolPtr(true),
		PhoneNumber:      strPtr("+4917612345678"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !user.SMSNotifications || user.PhoneNumber == "" {
		t.Fatalf("sms preferences not applied: %+v", user)
	}
}
