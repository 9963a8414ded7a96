// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"collabmatch_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Connection Domain Events
// =============================================================================

// ConnectionRequested is published when a plain connection request is created.
type ConnectionRequested struct {
	BaseEvent
	ConnectionID uuid.UUID `json:"connectionId"`
	RequesterID  uuid.UUID `json:"requesterId"`
	RecipientID  uuid.UUID `json:"recipientId"`
}

func (e ConnectionRequested) EventName() string { return "connections.requested" }

// CollaborationRequested is published when a collaboration request is created
// or overwritten on an existing connection.
type CollaborationRequested struct {
	BaseEvent
	ConnectionID uuid.UUID `json:"connectionId"`
	RequesterID  uuid.UUID `json:"requesterId"`
	RecipientID  uuid.UUID `json:"recipientId"`
	ProjectTitle string    `json:"projectTitle,omitempty"`
}

func (e CollaborationRequested) EventName() string { return "connections.collaboration.requested" }

// CollaborationAccepted is published when a recipient accepts a collaboration
// request.
type CollaborationAccepted struct {
	BaseEvent
	ConnectionID   uuid.UUID  `json:"connectionId"`
	RequesterID    uuid.UUID  `json:"requesterId"`
	RecipientID    uuid.UUID  `json:"recipientId"`
	ConversationID *uuid.UUID `json:"conversationId,omitempty"`
	PaymentID      *uuid.UUID `json:"paymentId,omitempty"`
}

func (e CollaborationAccepted) EventName() string { return "connections.collaboration.accepted" }

// CollaborationRejected is published when a recipient rejects a collaboration
// request.
type CollaborationRejected struct {
	BaseEvent
	ConnectionID uuid.UUID `json:"connectionId"`
	RequesterID  uuid.UUID `json:"requesterId"`
	RecipientID  uuid.UUID `json:"recipientId"`
}

func (e CollaborationRejected) EventName() string { return "connections.collaboration.rejected" }

// CollaborationReminderDue is published by the scheduler worker when a
// collaboration request is still unanswered after the reminder delay.
type CollaborationReminderDue struct {
	BaseEvent
	ConnectionID uuid.UUID `json:"connectionId"`
	RequesterID  uuid.UUID `json:"requesterId"`
	RecipientID  uuid.UUID `json:"recipientId"`
	ProjectTitle string    `json:"projectTitle,omitempty"`
}

func (e CollaborationReminderDue) EventName() string { return "connections.collaboration.reminder" }

// =============================================================================
// Payment Domain Events
// =============================================================================

// PaymentCreated is published when a collaboration payment row is created.
type PaymentCreated struct {
	BaseEvent
	PaymentID    uuid.UUID `json:"paymentId"`
	ConnectionID uuid.UUID `json:"connectionId"`
	PayerID      uuid.UUID `json:"payerId"`
	PayeeID      uuid.UUID `json:"payeeId"`
	AmountTotal  int64     `json:"amountTotal"`
	Status       string    `json:"status"`
}

func (e PaymentCreated) EventName() string { return "payments.created" }

// =============================================================================
// Messaging Domain Events
// =============================================================================

// MessageSent is published after a message is persisted.
type MessageSent struct {
	BaseEvent
	MessageID      uuid.UUID `json:"messageId"`
	ConversationID uuid.UUID `json:"conversationId"`
	SenderID       uuid.UUID `json:"senderId"`
	RecipientID    uuid.UUID `json:"recipientId"`
}

func (e MessageSent) EventName() string { return "messaging.message.sent" }
