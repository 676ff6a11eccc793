package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `id, first_name, last_name, date_of_birth, medical_record_number, risk_level, created_at, updated_at`

func (r *repoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth,
		&p.MedicalRecordNumber, &p.RiskLevel, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, first_name, last_name, date_of_birth, medical_record_number, risk_level)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.MedicalRecordNumber, p.RiskLevel)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Patient, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if params.FirstName != nil {
		add("first_name", *params.FirstName)
	}
	if params.LastName != nil {
		add("last_name", *params.LastName)
	}
	if params.DateOfBirth != nil {
		add("date_of_birth", *params.DateOfBirth)
	}
	if params.MedicalRecordNumber != nil {
		add("medical_record_number", *params.MedicalRecordNumber)
	}
	if params.RiskLevel != nil {
		add("risk_level", *params.RiskLevel)
	}

	query := `UPDATE patients SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + patientCols
	return r.scanPatient(r.pool.QueryRow(ctx, query, args...))
}

func (r *repoPG) List(ctx context.Context, search string, limit, offset int) ([]*Patient, int, error) {
	where := ""
	countArgs := []interface{}{}
	if search != "" {
		where = ` WHERE LOWER(first_name || ' ' || last_name) LIKE LOWER($1)`
		countArgs = append(countArgs, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append(countArgs, limit, offset)
	query := fmt.Sprintf(`
		SELECT p.id, p.first_name, p.last_name, p.date_of_birth, p.medical_record_number,
			p.risk_level, p.created_at, p.updated_at,
			(SELECT COUNT(*) FROM care_team_members ctm
			 JOIN care_teams ct ON ctm.care_team_id = ct.id
			 WHERE ct.patient_id = p.id)
		FROM patients p%s
		ORDER BY p.created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth,
			&p.MedicalRecordNumber, &p.RiskLevel, &p.CreatedAt, &p.UpdatedAt,
			&p.CareTeamSize); err != nil {
			return nil, 0, err
		}
		items = append(items, &p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) CreateCareTeam(ctx context.Context, ct *CareTeam) error {
	ct.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO care_teams (id, patient_id, name) VALUES ($1,$2,$3)`,
		ct.ID, ct.PatientID, ct.Name)
	return err
}

func (r *repoPG) scanCareTeam(row pgx.Row) (*CareTeam, error) {
	var ct CareTeam
	err := row.Scan(&ct.ID, &ct.PatientID, &ct.Name, &ct.CreatedAt, &ct.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCareTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *repoPG) GetCareTeamByID(ctx context.Context, id uuid.UUID) (*CareTeam, error) {
	return r.scanCareTeam(r.pool.QueryRow(ctx,
		`SELECT id, patient_id, name, created_at, updated_at FROM care_teams WHERE id = $1`, id))
}

func (r *repoPG) GetCareTeamByPatient(ctx context.Context, patientID uuid.UUID) (*CareTeam, error) {
	return r.scanCareTeam(r.pool.QueryRow(ctx,
		`SELECT id, patient_id, name, created_at, updated_at FROM care_teams WHERE patient_id = $1`, patientID))
}

func (r *repoPG) UpsertMember(ctx context.Context, m *CareTeamMember) error {
	m.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO care_team_members (id, care_team_id, user_id, role)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (care_team_id, user_id)
		DO UPDATE SET role = EXCLUDED.role
		RETURNING id`,
		m.ID, m.CareTeamID, m.UserID, m.Role).Scan(&m.ID)
}

func (r *repoPG) GetMembers(ctx context.Context, careTeamID uuid.UUID) ([]*CareTeamMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ctm.id, ctm.care_team_id, ctm.user_id, ctm.role, ctm.created_at,
			u.first_name, u.last_name, u.email, u.role, o.name
		FROM care_team_members ctm
		JOIN users u ON ctm.user_id = u.id
		LEFT JOIN organizations o ON u.organization_id = o.id
		WHERE ctm.care_team_id = $1`, careTeamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*CareTeamMember
	for rows.Next() {
		var m CareTeamMember
		if err := rows.Scan(&m.ID, &m.CareTeamID, &m.UserID, &m.Role, &m.CreatedAt,
			&m.FirstName, &m.LastName, &m.Email, &m.UserRole, &m.OrganizationName); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}
