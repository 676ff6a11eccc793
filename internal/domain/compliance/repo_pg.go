package compliance

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type consentRepoPG struct{ pool *pgxpool.Pool }

func NewConsentRepoPG(pool *pgxpool.Pool) ConsentRepository {
	return &consentRepoPG{pool: pool}
}

const consentCols = `id, patient_id, organization_id, consent_type, consent_date,
	expiry_date, specific_organization_id, is_active, created_by, attachment_id,
	created_at, updated_at`

func (r *consentRepoPG) scanConsent(row pgx.Row) (*Consent, error) {
	var c Consent
	err := row.Scan(&c.ID, &c.PatientID, &c.OrganizationID, &c.ConsentType,
		&c.ConsentDate, &c.ExpiryDate, &c.SpecificOrganizationID, &c.IsActive,
		&c.CreatedBy, &c.AttachmentID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConsentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Upsert relies on the UNIQUE NULLS NOT DISTINCT constraint so the NULL
// organization of a General Medical consent still conflicts with a prior
// row and reactivates it.
func (r *consentRepoPG) Upsert(ctx context.Context, c *Consent) error {
	c.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO consents (id, patient_id, organization_id, consent_type, consent_date,
			expiry_date, specific_organization_id, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT ON CONSTRAINT consents_patient_org_type_key
		DO UPDATE SET
			consent_date = EXCLUDED.consent_date,
			expiry_date = EXCLUDED.expiry_date,
			specific_organization_id = EXCLUDED.specific_organization_id,
			is_active = true,
			updated_at = NOW()
		RETURNING `+consentCols,
		c.ID, c.PatientID, c.OrganizationID, c.ConsentType, c.ConsentDate,
		c.ExpiryDate, c.SpecificOrganizationID, c.CreatedBy).
		Scan(&c.ID, &c.PatientID, &c.OrganizationID, &c.ConsentType,
			&c.ConsentDate, &c.ExpiryDate, &c.SpecificOrganizationID, &c.IsActive,
			&c.CreatedBy, &c.AttachmentID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *consentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consent, error) {
	return r.scanConsent(r.pool.QueryRow(ctx, `SELECT `+consentCols+` FROM consents WHERE id = $1`, id))
}

func (r *consentRepoPG) Revoke(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE consents SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConsentNotFound
	}
	return nil
}

func (r *consentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Consent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.patient_id, c.organization_id, c.consent_type, c.consent_date,
			c.expiry_date, c.specific_organization_id, c.is_active, c.created_by,
			c.attachment_id, c.created_at, c.updated_at, o.name
		FROM consents c
		LEFT JOIN organizations o ON c.organization_id = o.id
		WHERE c.patient_id = $1
		ORDER BY c.created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Consent
	for rows.Next() {
		var c Consent
		if err := rows.Scan(&c.ID, &c.PatientID, &c.OrganizationID, &c.ConsentType,
			&c.ConsentDate, &c.ExpiryDate, &c.SpecificOrganizationID, &c.IsActive,
			&c.CreatedBy, &c.AttachmentID, &c.CreatedAt, &c.UpdatedAt,
			&c.OrganizationName); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	return items, rows.Err()
}

func (r *consentRepoPG) SetAttachment(ctx context.Context, id, attachmentID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE consents SET attachment_id = $2, updated_at = NOW() WHERE id = $1`, id, attachmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConsentNotFound
	}
	return nil
}

func (r *consentRepoPG) HasActiveConsent(ctx context.Context, patientID, organizationID uuid.UUID) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM consents
			WHERE patient_id = $1
			  AND (organization_id = $2 OR organization_id IS NULL)
			  AND is_active = true
			  AND (expiry_date IS NULL OR expiry_date > CURRENT_DATE)
		)`, patientID, organizationID).Scan(&found)
	return found, err
}
