package organization

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceGroup maps to the compliance_groups table. Its flags drive the
// consent rules applied to member organizations: RequiresConsent false means
// the group's organizations never need patient consent at all, and
// RequiresOrganizationConsent means a consent must name a specific
// organization it was granted toward.
type ComplianceGroup struct {
	ID                          uuid.UUID `db:"id" json:"id"`
	Name                        string    `db:"name" json:"name"`
	Description                 *string   `db:"description" json:"description,omitempty"`
	RequiresConsent             bool      `db:"requires_consent" json:"requires_consent"`
	RequiresOrganizationConsent bool      `db:"requires_organization_consent" json:"requires_organization_consent"`
	OrganizationCount           int       `db:"-" json:"organization_count"`
	CreatedAt                   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt                   time.Time `db:"updated_at" json:"updated_at"`
}

// Organization maps to the organizations table. Every organization belongs
// to exactly one compliance group.
type Organization struct {
	ID                  uuid.UUID `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	ComplianceGroupID   uuid.UUID `db:"compliance_group_id" json:"compliance_group_id"`
	ComplianceGroupName *string   `db:"-" json:"compliance_group_name,omitempty"`
	MemberCount         int       `db:"-" json:"member_count"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Member is the slim user projection returned with an organization's
// detail view.
type Member struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
