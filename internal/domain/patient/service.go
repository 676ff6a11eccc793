package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("patient not found")
	ErrCareTeamNotFound = errors.New("care team not found")
	ErrUserNotFound     = errors.New("user not found")

	// ErrInvalidInput marks request validation failures so handlers can
	// keep them on the 400 side of the fence.
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo  Repository
	users UserDirectory
}

func NewService(repo Repository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" {
		return fmt.Errorf("%w: first name is required", ErrInvalidInput)
	}
	if p.LastName == "" {
		return fmt.Errorf("%w: last name is required", ErrInvalidInput)
	}
	if p.RiskLevel == "" {
		p.RiskLevel = "low"
	}
	if !validRiskLevels[p.RiskLevel] {
		return fmt.Errorf("%w: invalid risk level %q", ErrInvalidInput, p.RiskLevel)
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, params UpdateParams) (*Patient, error) {
	if params.FirstName != nil && *params.FirstName == "" {
		return nil, fmt.Errorf("%w: first name cannot be empty", ErrInvalidInput)
	}
	if params.LastName != nil && *params.LastName == "" {
		return nil, fmt.Errorf("%w: last name cannot be empty", ErrInvalidInput)
	}
	if params.RiskLevel != nil && !validRiskLevels[*params.RiskLevel] {
		return nil, fmt.Errorf("%w: invalid risk level %q", ErrInvalidInput, *params.RiskLevel)
	}
	return s.repo.Update(ctx, id, params)
}

func (s *Service) ListPatients(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, search, limit, offset)
}

func (s *Service) CreateCareTeam(ctx context.Context, patientID uuid.UUID, name string) (*CareTeam, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: care team name is required", ErrInvalidInput)
	}
	if _, err := s.repo.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	ct := &CareTeam{PatientID: patientID, Name: name}
	if err := s.repo.CreateCareTeam(ctx, ct); err != nil {
		return nil, err
	}
	return ct, nil
}

// GetCareTeam returns the patient's care team together with its members, or
// (nil, nil, nil) when the patient has no team yet.
func (s *Service) GetCareTeam(ctx context.Context, patientID uuid.UUID) (*CareTeam, []*CareTeamMember, error) {
	ct, err := s.repo.GetCareTeamByPatient(ctx, patientID)
	if errors.Is(err, ErrCareTeamNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	members, err := s.repo.GetMembers(ctx, ct.ID)
	if err != nil {
		return nil, nil, err
	}
	return ct, members, nil
}

// AddCareTeamMember upserts a user onto a care team; repeating the call
// with the same user updates the member's role.
func (s *Service) AddCareTeamMember(ctx context.Context, careTeamID, userID uuid.UUID, role *string) (*CareTeamMember, error) {
	if _, err := s.repo.GetCareTeamByID(ctx, careTeamID); err != nil {
		return nil, err
	}
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}
	m := &CareTeamMember{CareTeamID: careTeamID, UserID: userID, Role: role}
	if err := s.repo.UpsertMember(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
