package organization

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateGroup(ctx context.Context, g *ComplianceGroup) error
	GetGroupByID(ctx context.Context, id uuid.UUID) (*ComplianceGroup, error)
	GetGroupByName(ctx context.Context, name string) (*ComplianceGroup, error)
	ListGroups(ctx context.Context) ([]*ComplianceGroup, error)

	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	List(ctx context.Context) ([]*Organization, error)
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]*Member, error)
}
