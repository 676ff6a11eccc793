// Package sendbird is a narrow client for the Sendbird platform REST API.
// Only the calls the provisioning workflow needs are covered: user upsert,
// group channel creation, message send, channel data update, and channel
// deletion. Message delivery, presence, and push stay on the platform side.
package sendbird

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrAuthentication indicates the API token is missing or rejected. It is
// surfaced distinctly so operators know to check credentials rather than
// chase a transient upstream failure.
var ErrAuthentication = errors.New("sendbird: authentication failed, check SENDBIRD_API_TOKEN")

// APIError is a non-authentication failure reported by the platform.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sendbird: %s (status %d, code %d)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("sendbird: API error (status %d, code %d)", e.StatusCode, e.Code)
}

// codeUserAlreadyExists is returned by POST /users for a duplicate user id.
const codeUserAlreadyExists = 400202

// User is a platform user account.
type User struct {
	UserID     string                 `json:"user_id"`
	Nickname   string                 `json:"nickname"`
	ProfileURL string                 `json:"profile_url"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Channel is a platform group channel.
type Channel struct {
	ChannelURL string `json:"channel_url"`
	Name       string `json:"name"`
}

// ChannelParams describes a group channel to create. IsDistinct false asks
// the platform for a unique channel even when the same member set already
// shares one.
type ChannelParams struct {
	Name       string
	UserIDs    []string
	CustomType string
	Data       map[string]interface{}
	IsDistinct bool
}

// MessageParams describes a message to send into a channel.
type MessageParams struct {
	ChannelURL string
	UserID     string
	Message    string
	CustomType string
}

// Client is the messaging-platform boundary. Implementations must make
// CreateOrUpdateUser idempotent per user id.
type Client interface {
	CreateOrUpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, userID string) (*User, error)
	CreateGroupChannel(ctx context.Context, params ChannelParams) (*Channel, error)
	SendMessage(ctx context.Context, params MessageParams) error
	UpdateChannelData(ctx context.Context, channelURL string, data map[string]interface{}) error
	DeleteChannel(ctx context.Context, channelURL string) error
}

// StaffUserID returns the deterministic platform id for a staff account.
func StaffUserID(userID uuid.UUID) string {
	return "user_" + userID.String()
}

// SMSUserID returns the deterministic platform id for an SMS participant,
// keyed by the digits of the phone number.
func SMSUserID(phoneNumber string) string {
	var b strings.Builder
	for _, r := range phoneNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return "sms_" + b.String()
}
