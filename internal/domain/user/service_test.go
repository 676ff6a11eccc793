package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cgmartin0310/careconnect/internal/platform/auth"
)

// -- Mock Repository --

type mockRepo struct {
	store map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.store {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	u.ID = uuid.New()
	m.store[u.ID] = u
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.store {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) FindExternalByPhone(_ context.Context, phone string) (*User, error) {
	for _, u := range m.store {
		if u.IsExternal && u.PhoneNumber != nil && *u.PhoneNumber == phone {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.store[u.ID]; !ok {
		return ErrNotFound
	}
	m.store[u.ID] = u
	return nil
}

func (m *mockRepo) SetSendbirdID(_ context.Context, id uuid.UUID, sendbirdID string) error {
	u, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	u.SendbirdUserID = &sendbirdID
	return nil
}

func (m *mockRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.store[id]
	return ok, nil
}

func (m *mockRepo) ListStaff(_ context.Context) ([]*User, error) {
	var r []*User
	for _, u := range m.store {
		if !u.IsExternal {
			r = append(r, u)
		}
	}
	return r, nil
}

func (m *mockRepo) ListDirectory(_ context.Context) ([]*User, error) {
	var r []*User
	for _, u := range m.store {
		if !u.IsExternal && (u.Role == auth.RoleCareTeamMember || u.Role == auth.RoleAdmin) {
			r = append(r, u)
		}
	}
	return r, nil
}

func (m *mockRepo) Stats(_ context.Context) (*DashboardStats, error) {
	staff, _ := m.ListStaff(nil)
	return &DashboardStats{Users: len(staff)}, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewService(repo, issuer), repo
}

func registerParams() RegisterParams {
	return RegisterParams{
		Email:     "nurse@example.org",
		Password:  "correct-horse",
		FirstName: "May",
		LastName:  "Lin",
		Role:      auth.RoleCareTeamMember,
	}
}

// -- Service Tests --

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, registerParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.PasswordHash == "correct-horse" {
		t.Error("password must be stored hashed")
	}

	logged, token, err := svc.Login(ctx, "nurse@example.org", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if logged.ID != u.ID {
		t.Error("expected same user")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, registerParams()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _, err := svc.Login(ctx, "nurse@example.org", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, registerParams()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Register(ctx, registerParams())
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	bad := registerParams()
	bad.Role = "superuser"
	if _, err := svc.Register(ctx, bad); err == nil {
		t.Error("expected error for invalid role")
	}

	short := registerParams()
	short.Password = "short"
	if _, err := svc.Register(ctx, short); err == nil {
		t.Error("expected error for short password")
	}
}

func TestFindOrCreateExternal_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	first, err := svc.FindOrCreateExternal(ctx, "+1 (555) 123-4567", "Jo Rivera")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.IsExternal || first.Role != auth.RoleExternal {
		t.Error("expected external role")
	}
	if first.SendbirdUserID == nil || *first.SendbirdUserID != "sms_15551234567" {
		t.Errorf("unexpected sendbird id: %v", first.SendbirdUserID)
	}
	if first.FirstName != "Jo" || first.LastName != "Rivera" {
		t.Errorf("unexpected name split: %s %s", first.FirstName, first.LastName)
	}

	second, err := svc.FindOrCreateExternal(ctx, "+1 (555) 123-4567", "Jo Rivera")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Error("expected the same account on repeat call")
	}
	if len(repo.store) != 1 {
		t.Errorf("expected one account, got %d", len(repo.store))
	}
}

func TestFindOrCreateExternal_DefaultName(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.FindOrCreateExternal(context.Background(), "5551234567", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.FirstName != "External" || u.LastName != "User" {
		t.Errorf("unexpected default name: %s %s", u.FirstName, u.LastName)
	}
}

func TestLogin_ExternalAccountRefused(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u, err := svc.FindOrCreateExternal(ctx, "5551234567", "Jo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _, err = svc.Login(ctx, u.Email, "external-user-no-login")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for external account, got %v", err)
	}
}

func TestUpdateUser_InvalidRole(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u, err := svc.Register(ctx, registerParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = svc.UpdateUser(ctx, u.ID, UpdateUserParams{Role: "superuser"})
	if err == nil {
		t.Error("expected error for invalid role")
	}
}
