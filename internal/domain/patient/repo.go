package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Patient, error)
	List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error)

	CreateCareTeam(ctx context.Context, ct *CareTeam) error
	GetCareTeamByID(ctx context.Context, id uuid.UUID) (*CareTeam, error)
	GetCareTeamByPatient(ctx context.Context, patientID uuid.UUID) (*CareTeam, error)
	UpsertMember(ctx context.Context, m *CareTeamMember) error
	GetMembers(ctx context.Context, careTeamID uuid.UUID) ([]*CareTeamMember, error)
}

// UserDirectory answers existence checks against the user store without
// binding this package to the user domain.
type UserDirectory interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}
