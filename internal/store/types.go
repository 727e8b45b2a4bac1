package store

import (
	"time"

	"github.com/google/uuid"
)

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	StatusBotHandling  ConversationStatus = "bot_handling"
	StatusWaitingQueue ConversationStatus = "waiting_queue"
	StatusInProgress   ConversationStatus = "in_progress"
	StatusResolved     ConversationStatus = "resolved"
	StatusClosed       ConversationStatus = "closed"
)

// SenderRole identifies who authored a message.
type SenderRole string

const (
	RoleCustomer SenderRole = "customer"
	RoleBot      SenderRole = "bot"
	RoleOperator SenderRole = "operator"
)

// Customer is an external party messaging in, identified by phone.
// Created on first inbound message, never deleted.
type Customer struct {
	ID                 uuid.UUID `json:"id"`
	Phone              string    `json:"phone"` // canonical digit form
	Name               string    `json:"name,omitempty"`
	FirstContact       time.Time `json:"first_contact"`
	LastContact        time.Time `json:"last_contact"`
	TotalConversations int       `json:"total_conversations"`
}

// Conversation is one episode of contact between a customer and the desk.
// At most one non-terminal conversation exists per customer at a time.
type Conversation struct {
	ID         uuid.UUID          `json:"id"`
	CustomerID uuid.UUID          `json:"customer_id"`
	OperatorID string             `json:"operator_id,omitempty"` // empty = unassigned
	Status     ConversationStatus `json:"status"`
	Sector     string             `json:"sector,omitempty"`
	Intent     string             `json:"intent,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	ResolvedAt *time.Time         `json:"resolved_at,omitempty"`
}

// Message belongs to one conversation. Immutable except for the read flag.
type Message struct {
	ID               uuid.UUID  `json:"id"`
	ConversationID   uuid.UUID  `json:"conversation_id"`
	SenderRole       SenderRole `json:"sender_role"`
	SenderID         string     `json:"sender_id,omitempty"` // phone or operator id
	Content          string     `json:"content"`
	Kind             string     `json:"kind"` // "text", "image", "audio", ...
	MediaURL         string     `json:"media_url,omitempty"`
	ChannelMessageID string     `json:"channel_message_id,omitempty"`
	Intent           string     `json:"intent,omitempty"`
	Read             bool       `json:"read"`
	CreatedAt        time.Time  `json:"created_at"`
}

// IsTerminal reports whether the status admits no further inbound routing.
func (s ConversationStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}
