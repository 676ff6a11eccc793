package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cgmartin0310/careconnect/internal/platform/auth"
	"github.com/cgmartin0310/careconnect/internal/platform/sendbird"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidInput marks request validation failures so handlers can
	// keep them on the 400 side of the fence.
	ErrInvalidInput = errors.New("invalid input")
)

type Service struct {
	repo   Repository
	issuer *auth.TokenIssuer
}

func NewService(repo Repository, issuer *auth.TokenIssuer) *Service {
	return &Service{repo: repo, issuer: issuer}
}

// RegisterParams is the staff account creation input, shared by
// self-registration and admin user creation.
type RegisterParams struct {
	Email          string     `json:"email"`
	Password       string     `json:"password"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Role           string     `json:"role"`
	OrganizationID *uuid.UUID `json:"organization_id"`
}

func (p *RegisterParams) validate() error {
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if p.FirstName == "" {
		return fmt.Errorf("%w: first name is required", ErrInvalidInput)
	}
	if p.LastName == "" {
		return fmt.Errorf("%w: last name is required", ErrInvalidInput)
	}
	if !auth.ValidStaffRole(p.Role) {
		return fmt.Errorf("%w: invalid role %q", ErrInvalidInput, p.Role)
	}
	return nil
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Email:          strings.ToLower(params.Email),
		PasswordHash:   hash,
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		Role:           params.Role,
		OrganizationID: params.OrganizationID,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns the user with a signed token.
// External accounts can never log in.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if u.IsExternal || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issuer.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token: %w", err)
	}
	return u, token, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UserExists satisfies existence checks from other domains.
func (s *Service) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

type UpdateUserParams struct {
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Role           string     `json:"role"`
	OrganizationID *uuid.UUID `json:"organization_id"`
}

func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, params UpdateUserParams) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Role != "" && !auth.ValidStaffRole(params.Role) {
		return nil, fmt.Errorf("%w: invalid role %q", ErrInvalidInput, params.Role)
	}
	if params.FirstName != "" {
		u.FirstName = params.FirstName
	}
	if params.LastName != "" {
		u.LastName = params.LastName
	}
	if params.Role != "" {
		u.Role = params.Role
	}
	u.OrganizationID = params.OrganizationID
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ListStaff(ctx context.Context) ([]*User, error) {
	return s.repo.ListStaff(ctx)
}

func (s *Service) ListDirectory(ctx context.Context) ([]*User, error) {
	return s.repo.ListDirectory(ctx)
}

func (s *Service) Stats(ctx context.Context) (*DashboardStats, error) {
	return s.repo.Stats(ctx)
}

// FindOrCreateExternal materializes an SMS participant from a phone
// number. Repeat calls with the same number return the same account. The
// placeholder email keeps the unique constraint satisfied; the account
// cannot authenticate.
func (s *Service) FindOrCreateExternal(ctx context.Context, phoneNumber, name string) (*User, error) {
	if phoneNumber == "" {
		return nil, fmt.Errorf("%w: phone number is required", ErrInvalidInput)
	}
	existing, err := s.repo.FindExternalByPhone(ctx, phoneNumber)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	firstName, lastName := splitName(name)
	sendbirdID := sendbird.SMSUserID(phoneNumber)
	u := &User{
		Email:          phoneNumber + "@external.sms",
		PasswordHash:   "external-user-no-login",
		FirstName:      firstName,
		LastName:       lastName,
		Role:           auth.RoleExternal,
		IsExternal:     true,
		PhoneNumber:    &phoneNumber,
		SendbirdUserID: &sendbirdID,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// RecordSendbirdID stores the external-platform id assigned to a user.
func (s *Service) RecordSendbirdID(ctx context.Context, id uuid.UUID, sendbirdID string) error {
	return s.repo.SetSendbirdID(ctx, id, sendbirdID)
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "External", "User"
	case 1:
		return parts[0], "User"
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
