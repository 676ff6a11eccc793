package patient

import (
	"time"

	"github.com/google/uuid"
)

// Risk levels accepted on a patient record.
var validRiskLevels = map[string]bool{
	"low": true, "medium": true, "high": true, "critical": true,
}

// Patient maps to the patients table.
type Patient struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	FirstName           string     `db:"first_name" json:"first_name"`
	LastName            string     `db:"last_name" json:"last_name"`
	DateOfBirth         *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	MedicalRecordNumber *string    `db:"medical_record_number" json:"medical_record_number,omitempty"`
	RiskLevel           string     `db:"risk_level" json:"risk_level"`
	CareTeamSize        int        `db:"-" json:"care_team_size"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// UpdateParams carries a partial patient update; nil fields are left
// untouched.
type UpdateParams struct {
	FirstName           *string    `json:"first_name"`
	LastName            *string    `json:"last_name"`
	DateOfBirth         *time.Time `json:"date_of_birth"`
	MedicalRecordNumber *string    `json:"medical_record_number"`
	RiskLevel           *string    `json:"risk_level"`
}

// CareTeam maps to the care_teams table; one team per patient per name.
type CareTeam struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CareTeamMember maps to the care_team_members table, joined with user
// details for display.
type CareTeamMember struct {
	ID               uuid.UUID `db:"id" json:"id"`
	CareTeamID       uuid.UUID `db:"care_team_id" json:"care_team_id"`
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	Role             *string   `db:"role" json:"role,omitempty"`
	FirstName        string    `db:"-" json:"first_name,omitempty"`
	LastName         string    `db:"-" json:"last_name,omitempty"`
	Email            string    `db:"-" json:"email,omitempty"`
	UserRole         string    `db:"-" json:"user_role,omitempty"`
	OrganizationName *string   `db:"-" json:"organization_name,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
