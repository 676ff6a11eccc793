package patient

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// -- Mock Repository --

type mockRepo struct {
	patients map[uuid.UUID]*Patient
	teams    map[uuid.UUID]*CareTeam
	members  map[uuid.UUID][]*CareTeamMember
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		patients: make(map[uuid.UUID]*Patient),
		teams:    make(map[uuid.UUID]*CareTeam),
		members:  make(map[uuid.UUID][]*CareTeamMember),
	}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	p.ID = uuid.New()
	m.patients[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, id uuid.UUID, params UpdateParams) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	if params.FirstName != nil {
		p.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		p.LastName = *params.LastName
	}
	if params.RiskLevel != nil {
		p.RiskLevel = *params.RiskLevel
	}
	return p, nil
}

func (m *mockRepo) List(_ context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	var r []*Patient
	for _, p := range m.patients {
		if search == "" || strings.Contains(strings.ToLower(p.FirstName+" "+p.LastName), strings.ToLower(search)) {
			r = append(r, p)
		}
	}
	return r, len(r), nil
}

func (m *mockRepo) CreateCareTeam(_ context.Context, ct *CareTeam) error {
	ct.ID = uuid.New()
	m.teams[ct.ID] = ct
	return nil
}

func (m *mockRepo) GetCareTeamByID(_ context.Context, id uuid.UUID) (*CareTeam, error) {
	ct, ok := m.teams[id]
	if !ok {
		return nil, ErrCareTeamNotFound
	}
	return ct, nil
}

func (m *mockRepo) GetCareTeamByPatient(_ context.Context, patientID uuid.UUID) (*CareTeam, error) {
	for _, ct := range m.teams {
		if ct.PatientID == patientID {
			return ct, nil
		}
	}
	return nil, ErrCareTeamNotFound
}

func (m *mockRepo) UpsertMember(_ context.Context, member *CareTeamMember) error {
	for _, existing := range m.members[member.CareTeamID] {
		if existing.UserID == member.UserID {
			existing.Role = member.Role
			member.ID = existing.ID
			return nil
		}
	}
	member.ID = uuid.New()
	m.members[member.CareTeamID] = append(m.members[member.CareTeamID], member)
	return nil
}

func (m *mockRepo) GetMembers(_ context.Context, careTeamID uuid.UUID) ([]*CareTeamMember, error) {
	return m.members[careTeamID], nil
}

type mockDirectory struct{ known map[uuid.UUID]bool }

func (m *mockDirectory) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.known[id], nil
}

func newTestService() (*Service, *mockRepo, *mockDirectory) {
	repo := newMockRepo()
	dir := &mockDirectory{known: make(map[uuid.UUID]bool)}
	return NewService(repo, dir), repo, dir
}

// -- Service Tests --

func TestCreatePatient_Defaults(t *testing.T) {
	svc, _, _ := newTestService()
	p := &Patient{FirstName: "Ada", LastName: "Hart"}
	if err := svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.RiskLevel != "low" {
		t.Errorf("expected default risk level low, got %s", p.RiskLevel)
	}
	if p.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
}

func TestCreatePatient_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.CreatePatient(ctx, &Patient{LastName: "Hart"}); err == nil {
		t.Error("expected error for missing first name")
	}
	if err := svc.CreatePatient(ctx, &Patient{FirstName: "Ada"}); err == nil {
		t.Error("expected error for missing last name")
	}
	if err := svc.CreatePatient(ctx, &Patient{FirstName: "Ada", LastName: "Hart", RiskLevel: "extreme"}); err == nil {
		t.Error("expected error for invalid risk level")
	}
}

func TestUpdatePatient_PartialUpdate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	p := &Patient{FirstName: "Ada", LastName: "Hart"}
	if err := svc.CreatePatient(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	risk := "high"
	updated, err := svc.UpdatePatient(ctx, p.ID, UpdateParams{RiskLevel: &risk})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.RiskLevel != "high" {
		t.Errorf("expected risk level high, got %s", updated.RiskLevel)
	}
	if updated.FirstName != "Ada" {
		t.Error("expected untouched fields to survive")
	}
}

func TestCreateCareTeam_PatientMustExist(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.CreateCareTeam(context.Background(), uuid.New(), "Primary Team")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCareTeam_NoTeamIsNotAnError(t *testing.T) {
	svc, _, _ := newTestService()
	ct, members, err := svc.GetCareTeam(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct != nil || members != nil {
		t.Error("expected nil care team and members")
	}
}

func TestAddCareTeamMember_UpsertsRole(t *testing.T) {
	svc, repo, dir := newTestService()
	ctx := context.Background()

	p := &Patient{FirstName: "Ada", LastName: "Hart"}
	if err := svc.CreatePatient(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ct, err := svc.CreateCareTeam(ctx, p.ID, "Primary Team")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	userID := uuid.New()
	dir.known[userID] = true

	roleA := "coordinator"
	if _, err := svc.AddCareTeamMember(ctx, ct.ID, userID, &roleA); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	roleB := "physician"
	if _, err := svc.AddCareTeamMember(ctx, ct.ID, userID, &roleB); err != nil {
		t.Fatalf("unexpected error on re-add: %v", err)
	}

	members, _ := repo.GetMembers(ctx, ct.ID)
	if len(members) != 1 {
		t.Fatalf("expected one member row, got %d", len(members))
	}
	if *members[0].Role != "physician" {
		t.Errorf("expected role updated to physician, got %s", *members[0].Role)
	}
}

func TestAddCareTeamMember_UnknownUser(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p := &Patient{FirstName: "Ada", LastName: "Hart"}
	if err := svc.CreatePatient(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ct, err := svc.CreateCareTeam(ctx, p.ID, "Primary Team")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.AddCareTeamMember(ctx, ct.ID, uuid.New(), nil)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
