package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/cgmartin0310/careconnect/internal/domain/compliance"
)

// Conversation maps to the conversations table. The channel itself lives
// on the messaging platform; this row is the policy record tying it to a
// patient.
type Conversation struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	Title              string    `db:"title" json:"title"`
	PatientID          uuid.UUID `db:"patient_id" json:"patient_id"`
	CreatedBy          uuid.UUID `db:"created_by" json:"created_by"`
	SendbirdChannelURL string    `db:"sendbird_channel_url" json:"sendbird_channel_url"`
	PatientFirstName   *string   `db:"-" json:"patient_first_name,omitempty"`
	PatientLastName    *string   `db:"-" json:"patient_last_name,omitempty"`
	CreatorEmail       *string   `db:"-" json:"creator_email,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// Member maps to the conversation_members table. Rows are written once at
// provisioning time and never updated; the compliance note is the audit
// trail of why each member was or was not admitted.
type Member struct {
	ID               uuid.UUID `db:"id" json:"id"`
	ConversationID   uuid.UUID `db:"conversation_id" json:"conversation_id"`
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	IsCompliant      bool      `db:"is_compliant" json:"is_compliant"`
	ComplianceNote   string    `db:"compliance_note" json:"compliance_note"`
	FirstName        string    `db:"-" json:"first_name,omitempty"`
	LastName         string    `db:"-" json:"last_name,omitempty"`
	Email            string    `db:"-" json:"email,omitempty"`
	IsExternal       bool      `db:"-" json:"is_external"`
	PhoneNumber      *string   `db:"-" json:"phone_number,omitempty"`
	OrganizationName *string   `db:"-" json:"organization_name,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// CreateRequest is the conversation provisioning input.
type CreateRequest struct {
	Title           string                `json:"title"`
	PatientID       uuid.UUID             `json:"patient_id"`
	MemberIDs       []uuid.UUID           `json:"member_ids"`
	ExternalMembers []ExternalMemberInput `json:"external_members"`
}

// ExternalMemberInput names an SMS participant by phone number.
type ExternalMemberInput struct {
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name"`
}

// MemberSummary is the per-member slice of the provisioning response.
type MemberSummary struct {
	UserID uuid.UUID `json:"userId"`
	Reason string    `json:"reason"`
}

// ExternalMemberSummary reports a materialized SMS participant.
type ExternalMemberSummary struct {
	UserID      uuid.UUID `json:"userId"`
	PhoneNumber string    `json:"phoneNumber"`
	Name        string    `json:"name"`
}

// CreateResult is the provisioning outcome returned to the caller.
type CreateResult struct {
	ConversationID      uuid.UUID               `json:"conversationId"`
	SendbirdChannelURL  string                  `json:"sendbirdChannelUrl"`
	CompliantMembers    []MemberSummary         `json:"compliantMembers"`
	NonCompliantMembers []MemberSummary         `json:"nonCompliantMembers"`
	ExternalMembers     []ExternalMemberSummary `json:"externalMembers"`
}

func summarize(results []compliance.Result) []MemberSummary {
	out := make([]MemberSummary, len(results))
	for i, r := range results {
		out[i] = MemberSummary{UserID: r.UserID, Reason: r.Reason}
	}
	return out
}
