package compliance

import (
	"context"

	"github.com/google/uuid"
)

type ConsentRepository interface {
	// Upsert inserts a consent or, on the (patient, organization, type)
	// conflict, refreshes dates and reactivates the existing row.
	Upsert(ctx context.Context, c *Consent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consent, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Consent, error)
	SetAttachment(ctx context.Context, id, attachmentID uuid.UUID) error

	// HasActiveConsent reports whether the patient holds an active,
	// unexpired consent covering the organization, either granted to it
	// directly or patient-wide (NULL organization).
	HasActiveConsent(ctx context.Context, patientID, organizationID uuid.UUID) (bool, error)
}

// UserLookup resolves the user fields the evaluator inspects. ErrSubjectNotFound
// marks a missing user.
type UserLookup interface {
	Lookup(ctx context.Context, id uuid.UUID) (*Subject, error)
}

// PatientChecker verifies patient existence for consent creation.
type PatientChecker interface {
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// GroupPolicy is the compliance-group view consent creation consults.
type GroupPolicy struct {
	Name                        string
	RequiresConsent             bool
	RequiresOrganizationConsent bool
}

// OrganizationPolicies resolves an organization's compliance group flags.
type OrganizationPolicies interface {
	GroupPolicyFor(ctx context.Context, organizationID uuid.UUID) (*GroupPolicy, error)
}
