package organization

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

func translateDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateName
	}
	return err
}

func (r *repoPG) CreateGroup(ctx context.Context, g *ComplianceGroup) error {
	g.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO compliance_groups (id, name, description, requires_consent, requires_organization_consent)
		VALUES ($1,$2,$3,$4,$5)`,
		g.ID, g.Name, g.Description, g.RequiresConsent, g.RequiresOrganizationConsent)
	return translateDuplicate(err)
}

func (r *repoPG) scanGroup(row pgx.Row) (*ComplianceGroup, error) {
	var g ComplianceGroup
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.RequiresConsent,
		&g.RequiresOrganizationConsent, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGroupNotFound
	}
	return &g, err
}

const groupCols = `id, name, description, requires_consent, requires_organization_consent, created_at, updated_at`

func (r *repoPG) GetGroupByID(ctx context.Context, id uuid.UUID) (*ComplianceGroup, error) {
	return r.scanGroup(r.pool.QueryRow(ctx, `SELECT `+groupCols+` FROM compliance_groups WHERE id = $1`, id))
}

func (r *repoPG) GetGroupByName(ctx context.Context, name string) (*ComplianceGroup, error) {
	return r.scanGroup(r.pool.QueryRow(ctx, `SELECT `+groupCols+` FROM compliance_groups WHERE name = $1`, name))
}

func (r *repoPG) ListGroups(ctx context.Context) ([]*ComplianceGroup, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cg.id, cg.name, cg.description, cg.requires_consent,
			cg.requires_organization_consent, cg.created_at, cg.updated_at,
			(SELECT COUNT(*) FROM organizations WHERE compliance_group_id = cg.id)
		FROM compliance_groups cg
		ORDER BY cg.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ComplianceGroup
	for rows.Next() {
		var g ComplianceGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.RequiresConsent,
			&g.RequiresOrganizationConsent, &g.CreatedAt, &g.UpdatedAt,
			&g.OrganizationCount); err != nil {
			return nil, err
		}
		items = append(items, &g)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, o *Organization) error {
	o.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO organizations (id, name, compliance_group_id)
		VALUES ($1,$2,$3)`,
		o.ID, o.Name, o.ComplianceGroupID)
	return translateDuplicate(err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	var o Organization
	err := r.pool.QueryRow(ctx, `
		SELECT o.id, o.name, o.compliance_group_id, cg.name, o.created_at, o.updated_at
		FROM organizations o
		LEFT JOIN compliance_groups cg ON o.compliance_group_id = cg.id
		WHERE o.id = $1`, id).
		Scan(&o.ID, &o.Name, &o.ComplianceGroupID, &o.ComplianceGroupName, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repoPG) List(ctx context.Context) ([]*Organization, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.name, o.compliance_group_id, cg.name, o.created_at, o.updated_at,
			(SELECT COUNT(*) FROM users WHERE organization_id = o.id)
		FROM organizations o
		LEFT JOIN compliance_groups cg ON o.compliance_group_id = cg.id
		ORDER BY o.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Organization
	for rows.Next() {
		var o Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.ComplianceGroupID, &o.ComplianceGroupName,
			&o.CreatedAt, &o.UpdatedAt, &o.MemberCount); err != nil {
			return nil, err
		}
		items = append(items, &o)
	}
	return items, rows.Err()
}

func (r *repoPG) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, first_name, last_name, role, created_at
		FROM users
		WHERE organization_id = $1
		ORDER BY last_name, first_name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Email, &m.FirstName, &m.LastName, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}
