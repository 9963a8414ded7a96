package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"collabmatch_backend/internal/matching/scoring"
	profilestransport "collabmatch_backend/internal/profiles/transport"
)

// The lifecycle service depends on narrow ports instead of sibling module
// services. Concrete adapters are wired at composition time, which keeps the
// module graph acyclic.

// ConversationCreator ensures a conversation exists between two users.
type ConversationCreator interface {
	GetOrCreateConversation(ctx context.Context, a, b uuid.UUID) (uuid.UUID, error)
}

// Messenger delivers a message from one user to another.
type Messenger interface {
	CreateMessage(ctx context.Context, senderID, recipientID uuid.UUID, content string) error
}

// Payment is the slice of a payment this module consumes.
type Payment struct {
	ID              uuid.UUID
	Status          string
	AmountTotal     int64
	CollaborationID uuid.UUID
}

// PaymentCreator creates the pending payment backing an accepted
// collaboration.
type PaymentCreator interface {
	CreateCollaborationPayment(ctx context.Context, connectionID, companyID, influencerID uuid.UUID, amount int64) (Payment, error)
}

// ReminderScheduler enqueues a delayed reminder for an unanswered
// collaboration request.
type ReminderScheduler interface {
	ScheduleCollaborationReminder(ctx context.Context, connectionID, recipientID uuid.UUID, runAt time.Time) error
}

// ProfileDirectory resolves user roles and profile projections for
// validation and for joining counterpart profiles into listings.
type ProfileDirectory interface {
	Role(ctx context.Context, userID uuid.UUID) (scoring.Role, error)
	Get(ctx context.Context, userID uuid.UUID) (profilestransport.ProfileResponse, error)
}
