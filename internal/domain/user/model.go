package user

import (
	"time"

	"github.com/google/uuid"
)

// User maps to the users table. External users are SMS participants
// materialized from a phone number; they carry no usable password and
// never log in.
type User struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	Email            string     `db:"email" json:"email"`
	PasswordHash     string     `db:"password_hash" json:"-"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	Role             string     `db:"role" json:"role"`
	OrganizationID   *uuid.UUID `db:"organization_id" json:"organization_id,omitempty"`
	OrganizationName *string    `db:"-" json:"organization_name,omitempty"`
	IsExternal       bool       `db:"is_external" json:"is_external"`
	PhoneNumber      *string    `db:"phone_number" json:"phone_number,omitempty"`
	SendbirdUserID   *string    `db:"sendbird_user_id" json:"sendbird_user_id,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName returns "First Last" for display and external-platform
// nicknames.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// DashboardStats is the admin dashboard count summary.
type DashboardStats struct {
	Users         int `json:"users"`
	Patients      int `json:"patients"`
	Conversations int `json:"conversations"`
	Organizations int `json:"organizations"`
}
