// Package transport defines the request and response shapes for the
// messaging API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// SendMessageRequest is the payload for sending a message to another user.
type SendMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required,uuid"`
	Content     string `json:"content" binding:"required,min=1,max=5000"`
}

// ConversationResponse is the API representation of a conversation.
type ConversationResponse struct {
	ID            uuid.UUID `json:"id"`
	ParticipantA  uuid.UUID `json:"participantA"`
	ParticipantB  uuid.UUID `json:"participantB"`
	CreatedAt     time.Time `json:"createdAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

// MessageResponse is the API representation of a message.
type MessageResponse struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversationId"`
	SenderID       uuid.UUID  `json:"senderId"`
	RecipientID    uuid.UUID  `json:"recipientId"`
	Content        string     `json:"content"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
