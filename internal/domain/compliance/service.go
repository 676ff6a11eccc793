package compliance

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cgmartin0310/careconnect/internal/platform/blobstore"
)

var (
	ErrConsentNotFound      = errors.New("consent not found")
	ErrSubjectNotFound      = errors.New("subject not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrOrganizationRequired = errors.New("organization is required for non-General Medical consents")
	ErrConsentNotRequired   = errors.New("this compliance group does not require consent")
	ErrSpecificOrgRequired  = errors.New("this compliance group requires organization-specific consent")
	ErrInvalidOrganization  = errors.New("invalid organization")
	ErrConsentTypeRequired  = errors.New("consent type is required")
	ErrConsentDateRequired  = errors.New("consent date is required")
)

// Service owns consent lifecycle: creation with group-policy enforcement,
// revocation, listing, and attachment of signed consent documents.
type Service struct {
	consents    ConsentRepository
	patients    PatientChecker
	orgs        OrganizationPolicies
	attachments blobstore.Store
	log         zerolog.Logger
}

func NewService(consents ConsentRepository, patients PatientChecker, orgs OrganizationPolicies, attachments blobstore.Store, log zerolog.Logger) *Service {
	return &Service{consents: consents, patients: patients, orgs: orgs, attachments: attachments, log: log}
}

// CreateConsentParams is the consent creation input.
type CreateConsentParams struct {
	PatientID              uuid.UUID  `json:"patient_id"`
	OrganizationID         *uuid.UUID `json:"organization_id"`
	ConsentType            string     `json:"consent_type"`
	ConsentDate            time.Time  `json:"consent_date"`
	ExpiryDate             *time.Time `json:"expiry_date"`
	SpecificOrganizationID *uuid.UUID `json:"specific_organization_id"`
}

// CreateConsent records or refreshes a consent. A General Medical consent
// is stored patient-wide with no organization; every other type must name
// the organization it covers and passes the organization's compliance
// group rules.
func (s *Service) CreateConsent(ctx context.Context, createdBy uuid.UUID, params CreateConsentParams) (*Consent, error) {
	if params.ConsentType == "" {
		return nil, ErrConsentTypeRequired
	}
	if params.ConsentDate.IsZero() {
		return nil, ErrConsentDateRequired
	}
	exists, err := s.patients.PatientExists(ctx, params.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPatientNotFound
	}

	consent := &Consent{
		PatientID:   params.PatientID,
		ConsentType: params.ConsentType,
		ConsentDate: params.ConsentDate,
		ExpiryDate:  params.ExpiryDate,
		CreatedBy:   createdBy,
	}

	if params.ConsentType == ConsentTypeGeneralMedical {
		if err := s.consents.Upsert(ctx, consent); err != nil {
			return nil, err
		}
		return consent, nil
	}

	if params.OrganizationID == nil {
		return nil, ErrOrganizationRequired
	}
	policy, err := s.orgs.GroupPolicyFor(ctx, *params.OrganizationID)
	if err != nil {
		return nil, ErrInvalidOrganization
	}
	if !policy.RequiresConsent {
		return nil, ErrConsentNotRequired
	}
	if policy.RequiresOrganizationConsent && params.SpecificOrganizationID == nil {
		return nil, ErrSpecificOrgRequired
	}

	consent.OrganizationID = params.OrganizationID
	consent.SpecificOrganizationID = params.SpecificOrganizationID
	if err := s.consents.Upsert(ctx, consent); err != nil {
		return nil, err
	}
	return consent, nil
}

func (s *Service) GetConsent(ctx context.Context, id uuid.UUID) (*Consent, error) {
	return s.consents.GetByID(ctx, id)
}

func (s *Service) RevokeConsent(ctx context.Context, id uuid.UUID) error {
	if _, err := s.consents.GetByID(ctx, id); err != nil {
		return err
	}
	return s.consents.Revoke(ctx, id)
}

func (s *Service) ListPatientConsents(ctx context.Context, patientID uuid.UUID) ([]*Consent, error) {
	return s.consents.ListByPatient(ctx, patientID)
}

// AttachDocument stores a signed consent document and links it to the
// consent record.
func (s *Service) AttachDocument(ctx context.Context, consentID, uploadedBy uuid.UUID, fileName, contentType string, content io.Reader) (*blobstore.Metadata, error) {
	if _, err := s.consents.GetByID(ctx, consentID); err != nil {
		return nil, err
	}
	meta, err := s.attachments.Upload(ctx, blobstore.Metadata{
		FileName:    fileName,
		ContentType: contentType,
		CreatedBy:   uploadedBy,
	}, content)
	if err != nil {
		return nil, err
	}
	if err := s.consents.SetAttachment(ctx, consentID, meta.ID); err != nil {
		// The blob is orphaned but harmless; clean up best effort.
		if delErr := s.attachments.Delete(ctx, meta.ID); delErr != nil {
			s.log.Warn().Err(delErr).Stringer("attachment_id", meta.ID).
				Msg("failed to clean up orphaned consent attachment")
		}
		return nil, err
	}
	return meta, nil
}

// OpenAttachment streams a consent's attached document.
func (s *Service) OpenAttachment(ctx context.Context, consentID uuid.UUID) (io.ReadCloser, *blobstore.Metadata, error) {
	consent, err := s.consents.GetByID(ctx, consentID)
	if err != nil {
		return nil, nil, err
	}
	if consent.AttachmentID == nil {
		return nil, nil, blobstore.ErrBlobNotFound
	}
	return s.attachments.Download(ctx, *consent.AttachmentID)
}
