package organization

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	groups map[uuid.UUID]*ComplianceGroup
	orgs   map[uuid.UUID]*Organization
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		groups: make(map[uuid.UUID]*ComplianceGroup),
		orgs:   make(map[uuid.UUID]*Organization),
	}
}

func (m *mockRepo) CreateGroup(_ context.Context, g *ComplianceGroup) error {
	for _, existing := range m.groups {
		if existing.Name == g.Name {
			return ErrDuplicateName
		}
	}
	g.ID = uuid.New()
	m.groups[g.ID] = g
	return nil
}

func (m *mockRepo) GetGroupByID(_ context.Context, id uuid.UUID) (*ComplianceGroup, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

func (m *mockRepo) GetGroupByName(_ context.Context, name string) (*ComplianceGroup, error) {
	for _, g := range m.groups {
		if g.Name == name {
			return g, nil
		}
	}
	return nil, ErrGroupNotFound
}

func (m *mockRepo) ListGroups(_ context.Context) ([]*ComplianceGroup, error) {
	var r []*ComplianceGroup
	for _, g := range m.groups {
		r = append(r, g)
	}
	return r, nil
}

func (m *mockRepo) Create(_ context.Context, o *Organization) error {
	for _, existing := range m.orgs {
		if existing.Name == o.Name {
			return ErrDuplicateName
		}
	}
	o.ID = uuid.New()
	m.orgs[o.ID] = o
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockRepo) List(_ context.Context) ([]*Organization, error) {
	var r []*Organization
	for _, o := range m.orgs {
		r = append(r, o)
	}
	return r, nil
}

func (m *mockRepo) ListMembers(_ context.Context, _ uuid.UUID) ([]*Member, error) {
	return nil, nil
}

// -- Service Tests --

func TestCreateOrganization_WithExplicitGroup(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	group := &ComplianceGroup{Name: "Interim", RequiresConsent: true}
	if err := svc.CreateGroup(ctx, group); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	org, err := svc.CreateOrganization(ctx, "Coastal Care", &group.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org.ComplianceGroupID != group.ID {
		t.Errorf("expected group %s, got %s", group.ID, org.ComplianceGroupID)
	}
}

func TestCreateOrganization_DefaultGroupFallback(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	org, err := svc.CreateOrganization(ctx, "Coastal Care", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	group, err := repo.GetGroupByID(ctx, org.ComplianceGroupID)
	if err != nil {
		t.Fatalf("default group not created: %v", err)
	}
	if group.Name != DefaultGroupName {
		t.Errorf("expected default group, got %s", group.Name)
	}
	if !group.RequiresConsent {
		t.Error("default group must require consent")
	}

	// Second organization reuses the same default group.
	other, err := svc.CreateOrganization(ctx, "Harbor Health", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.ComplianceGroupID != group.ID {
		t.Error("expected second organization to reuse the default group")
	}
}

func TestCreateOrganization_DuplicateName(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.CreateOrganization(ctx, "Coastal Care", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.CreateOrganization(ctx, "Coastal Care", nil)
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestCreateOrganization_UnknownGroup(t *testing.T) {
	svc := NewService(newMockRepo())
	missing := uuid.New()
	_, err := svc.CreateOrganization(context.Background(), "Coastal Care", &missing)
	if !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestCreateGroup_RequiresName(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.CreateGroup(context.Background(), &ComplianceGroup{}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestGroupPolicyFor(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	group := &ComplianceGroup{Name: "Legal", RequiresConsent: true, RequiresOrganizationConsent: true}
	if err := svc.CreateGroup(ctx, group); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	org, err := svc.CreateOrganization(ctx, "Coastal Care", &group.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	policy, err := svc.GroupPolicyFor(ctx, org.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !policy.RequiresOrganizationConsent {
		t.Error("expected organization-specific consent requirement")
	}
}
