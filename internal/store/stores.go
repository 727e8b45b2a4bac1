package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CustomerStore persists customers keyed by phone.
type CustomerStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Customer, error)
	// GetByPhone returns the customer for a canonical phone, or nil when unseen.
	GetByPhone(ctx context.Context, phone string) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	// Update persists name, last-contact and conversation counter changes.
	Update(ctx context.Context, c *Customer) error
}

// ConversationStore persists conversation lifecycle state.
type ConversationStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Conversation, error)
	// LatestActive returns the newest non-terminal conversation for a
	// customer, or nil when every conversation is resolved or closed.
	LatestActive(ctx context.Context, customerID uuid.UUID) (*Conversation, error)
	// LatestResolvedSince returns the newest resolved conversation whose
	// resolution time (or start time when resolution is unset) is after
	// cutoff. Closed conversations never qualify.
	LatestResolvedSince(ctx context.Context, customerID uuid.UUID, cutoff time.Time) (*Conversation, error)
	Create(ctx context.Context, c *Conversation) error
	Update(ctx context.Context, c *Conversation) error
}

// MessageStore persists messages. Rows are immutable except the read flag.
type MessageStore interface {
	Create(ctx context.Context, m *Message) error
	// SetIntent tags a stored message with the classifier's intent.
	SetIntent(ctx context.Context, id uuid.UUID, intent string) error
	MarkRead(ctx context.Context, id uuid.UUID) error
	// ListByConversation returns messages oldest-first.
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]Message, error)
}

// Stores is the top-level container for all storage backends.
type Stores struct {
	Customers     CustomerStore
	Conversations ConversationStore
	Messages      MessageStore
}
