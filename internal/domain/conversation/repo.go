package conversation

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrConversationNotFound is returned by repository lookups when no row
// matches.
var ErrConversationNotFound = errors.New("conversation not found")

// Repository is the persistence boundary for conversations and their
// member audit rows.
type Repository interface {
	// CreateWithMembers inserts the conversation and all member rows in a
	// single transaction.
	CreateWithMembers(ctx context.Context, conv *Conversation, members []Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	// ListForUser returns conversations the user is a compliant member of,
	// newest first.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Conversation, error)
	Members(ctx context.Context, conversationID uuid.UUID) ([]Member, error)
	// IsCompliantMember reports whether the user holds a compliant member
	// row on the conversation.
	IsCompliantMember(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	// FindByChannelURL resolves a conversation from its remote channel URL.
	FindByChannelURL(ctx context.Context, channelURL string) (*Conversation, error)
	// Delete removes the member rows and the conversation in a single
	// transaction.
	Delete(ctx context.Context, id uuid.UUID) error
}
