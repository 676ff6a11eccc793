package user

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

const userCols = `id, email, password_hash, first_name, last_name, role,
	organization_id, is_external, phone_number, sendbird_user_id, created_at, updated_at`

func (r *repoPG) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Role, &u.OrganizationID, &u.IsExternal, &u.PhoneNumber,
		&u.SendbirdUserID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role,
			organization_id, is_external, phone_number, sendbird_user_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role,
		u.OrganizationID, u.IsExternal, u.PhoneNumber, u.SendbirdUserID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (r *repoPG) FindExternalByPhone(ctx context.Context, phoneNumber string) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE phone_number = $1 AND is_external = true`, phoneNumber))
}

func (r *repoPG) Update(ctx context.Context, u *User) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET first_name=$2, last_name=$3, role=$4, organization_id=$5, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.Role, u.OrganizationID)
	return err
}

func (r *repoPG) SetSendbirdID(ctx context.Context, id uuid.UUID, sendbirdID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET sendbird_user_id = $2, updated_at = NOW() WHERE id = $1`, id, sendbirdID)
	return err
}

func (r *repoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&found)
	return found, err
}

func (r *repoPG) listUsers(ctx context.Context, where, order string) ([]*User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.role,
			u.organization_id, u.is_external, u.phone_number, u.sendbird_user_id,
			u.created_at, u.updated_at, o.name
		FROM users u
		LEFT JOIN organizations o ON u.organization_id = o.id
		WHERE `+where+` ORDER BY `+order)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.Role, &u.OrganizationID, &u.IsExternal, &u.PhoneNumber,
			&u.SendbirdUserID, &u.CreatedAt, &u.UpdatedAt, &u.OrganizationName); err != nil {
			return nil, err
		}
		items = append(items, &u)
	}
	return items, rows.Err()
}

func (r *repoPG) ListStaff(ctx context.Context) ([]*User, error) {
	return r.listUsers(ctx, `NOT u.is_external`, `u.created_at DESC`)
}

func (r *repoPG) ListDirectory(ctx context.Context) ([]*User, error) {
	return r.listUsers(ctx,
		`NOT u.is_external AND u.role IN ('care_team_member', 'admin')`,
		`u.first_name, u.last_name`)
}

func (r *repoPG) Stats(ctx context.Context) (*DashboardStats, error) {
	var s DashboardStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE NOT is_external),
			(SELECT COUNT(*) FROM patients),
			(SELECT COUNT(*) FROM conversations),
			(SELECT COUNT(*) FROM organizations)`).
		Scan(&s.Users, &s.Patients, &s.Conversations, &s.Organizations)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
