package organization

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("organization not found")
	ErrGroupNotFound = errors.New("compliance group not found")
	ErrDuplicateName = errors.New("an organization with this name already exists")
	ErrNameRequired  = errors.New("name is required")
)

// DefaultGroupName is the compliance group assigned to organizations
// created without an explicit group.
const DefaultGroupName = "Default Group"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateGroup(ctx context.Context, g *ComplianceGroup) error {
	if g.Name == "" {
		return ErrNameRequired
	}
	return s.repo.CreateGroup(ctx, g)
}

func (s *Service) ListGroups(ctx context.Context) ([]*ComplianceGroup, error) {
	return s.repo.ListGroups(ctx)
}

func (s *Service) GetGroup(ctx context.Context, id uuid.UUID) (*ComplianceGroup, error) {
	return s.repo.GetGroupByID(ctx, id)
}

// CreateOrganization creates an organization, falling back to the default
// compliance group when none is given. The default group is created on
// first use.
func (s *Service) CreateOrganization(ctx context.Context, name string, groupID *uuid.UUID) (*Organization, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	var gid uuid.UUID
	if groupID != nil {
		group, err := s.repo.GetGroupByID(ctx, *groupID)
		if err != nil {
			return nil, ErrGroupNotFound
		}
		gid = group.ID
	} else {
		group, err := s.repo.GetGroupByName(ctx, DefaultGroupName)
		if errors.Is(err, ErrGroupNotFound) {
			desc := "Default compliance group"
			group = &ComplianceGroup{Name: DefaultGroupName, Description: &desc, RequiresConsent: true}
			if err := s.repo.CreateGroup(ctx, group); err != nil {
				return nil, fmt.Errorf("creating default compliance group: %w", err)
			}
		} else if err != nil {
			return nil, err
		}
		gid = group.ID
	}

	org := &Organization{Name: name, ComplianceGroupID: gid}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *Service) GetOrganization(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListOrganizations(ctx context.Context) ([]*Organization, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*Member, error) {
	return s.repo.ListMembers(ctx, orgID)
}

// GroupPolicyFor resolves the compliance group governing an organization.
func (s *Service) GroupPolicyFor(ctx context.Context, orgID uuid.UUID) (*ComplianceGroup, error) {
	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetGroupByID(ctx, org.ComplianceGroupID)
}
