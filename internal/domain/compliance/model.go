package compliance

import (
	"time"

	"github.com/google/uuid"
)

// Compliance reasons recorded against conversation members. These strings
// end up in the audit trail, so they stay stable.
const (
	ReasonUserNotFound    = "User not found"
	ReasonExternalUser    = "External user - no compliance required"
	ReasonNoOrganization  = "User has no associated organization"
	ReasonNoActiveConsent = "No active consent found for organization"
	ReasonValidConsent    = "Valid consent on file"
	ReasonCheckError      = "Error checking compliance"
)

// ConsentTypeGeneralMedical is the patient-wide consent type. It is stored
// without an organization and satisfies any organization's consent check.
const ConsentTypeGeneralMedical = "General Medical"

// Consent maps to the consents table. OrganizationID is NULL for the
// patient-wide General Medical consent.
type Consent struct {
	ID                     uuid.UUID  `db:"id" json:"id"`
	PatientID              uuid.UUID  `db:"patient_id" json:"patient_id"`
	OrganizationID         *uuid.UUID `db:"organization_id" json:"organization_id,omitempty"`
	OrganizationName       *string    `db:"-" json:"organization_name,omitempty"`
	ConsentType            string     `db:"consent_type" json:"consent_type"`
	ConsentDate            time.Time  `db:"consent_date" json:"consent_date"`
	ExpiryDate             *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	SpecificOrganizationID *uuid.UUID `db:"specific_organization_id" json:"specific_organization_id,omitempty"`
	IsActive               bool       `db:"is_active" json:"is_active"`
	CreatedBy              uuid.UUID  `db:"created_by" json:"created_by"`
	AttachmentID           *uuid.UUID `db:"attachment_id" json:"attachment_id,omitempty"`
	CreatedAt              time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// Result is the outcome of a compliance check for one user.
type Result struct {
	UserID    uuid.UUID `json:"user_id"`
	Compliant bool      `json:"is_compliant"`
	Reason    string    `json:"reason"`
}

// Subject is the slim user projection the evaluator needs.
type Subject struct {
	ID             uuid.UUID
	IsExternal     bool
	OrganizationID *uuid.UUID
}
