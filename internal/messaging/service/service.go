// Package service implements conversations and message delivery. Sending a
// first message between two users promotes their connection to ACCEPTED
// through the narrow port granted by the connections module.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"collabmatch_backend/internal/events"
	"collabmatch_backend/internal/messaging/repository"
	"collabmatch_backend/internal/messaging/transport"
	"collabmatch_backend/platform/apperr"
	"collabmatch_backend/platform/logger"
)

// Store is the persistence port for conversations and messages.
type Store interface {
	GetConversationByPair(ctx context.Context, a, b uuid.UUID) (*repository.Conversation, error)
	GetConversationByID(ctx context.Context, id uuid.UUID) (*repository.Conversation, error)
	CreateConversation(ctx context.Context, conv *repository.Conversation) error
	ListConversations(ctx context.Context, userID uuid.UUID) ([]repository.Conversation, error)
	CreateMessage(ctx context.Context, msg *repository.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]repository.Message, error)
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error
}

// ConnectionPromoter is the single write messaging is allowed to perform on
// connections.
type ConnectionPromoter interface {
	EnsureAccepted(ctx context.Context, a, b uuid.UUID) error
}

const defaultMessageLimit = 100

// Service provides messaging operations.
type Service struct {
	store    Store
	promoter ConnectionPromoter
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new messaging service.
func New(store Store, promoter ConnectionPromoter, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, promoter: promoter, bus: bus, log: log}
}

// SetPromoter injects the connection promoter after construction. Messaging
// and connections depend on each other, so one side is wired late.
func (s *Service) SetPromoter(promoter ConnectionPromoter) {
	s.promoter = promoter
}

// GetOrCreateConversation returns the conversation between two users,
// creating it when none exists. Concurrent creation races resolve to the
// single row guarded by the pair index.
func (s *Service) GetOrCreateConversation(ctx context.Context, a, b uuid.UUID) (uuid.UUID, error) {
	if a == b {
		return uuid.Nil, apperr.BadRequest("cannot start a conversation with yourself")
	}

	conv, err := s.store.GetConversationByPair(ctx, a, b)
	if err != nil {
		return uuid.Nil, err
	}
	if conv != nil {
		return conv.ID, nil
	}

	conv = &repository.Conversation{ParticipantA: a, ParticipantB: b}
	err = s.store.CreateConversation(ctx, conv)
	if err == nil {
		return conv.ID, nil
	}
	if !apperr.Is(err, apperr.KindConflict) {
		return uuid.Nil, err
	}

	conv, err = s.store.GetConversationByPair(ctx, a, b)
	if err != nil {
		return uuid.Nil, err
	}
	if conv == nil {
		return uuid.Nil, apperr.Internal("conversation lookup failed after conflict")
	}
	return conv.ID, nil
}

// CreateMessage persists a message from sender to recipient, ensuring the
// conversation exists and the connection between the two is ACCEPTED.
func (s *Service) CreateMessage(ctx context.Context, senderID, recipientID uuid.UUID, content string) (transport.MessageResponse, error) {
	if senderID == recipientID {
		return transport.MessageResponse{}, apperr.BadRequest("cannot message yourself")
	}
	if strings.TrimSpace(content) == "" {
		return transport.MessageResponse{}, apperr.Validation("message content is required")
	}

	conversationID, err := s.GetOrCreateConversation(ctx, senderID, recipientID)
	if err != nil {
		return transport.MessageResponse{}, err
	}

	msg := &repository.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Content:        content,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return transport.MessageResponse{}, err
	}

	if s.promoter != nil {
		if err := s.promoter.EnsureAccepted(ctx, senderID, recipientID); err != nil {
			s.log.BestEffortFailure("connection_promote_on_message", err, "conversation_id", conversationID.String())
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.MessageSent{
			BaseEvent:      events.NewBaseEvent(),
			MessageID:      msg.ID,
			ConversationID: conversationID,
			SenderID:       senderID,
			RecipientID:    recipientID,
		})
	}

	return toMessageResponse(msg), nil
}

// ListConversations returns the caller's conversations, most recent first.
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID) ([]transport.ConversationResponse, error) {
	convs, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		out = append(out, transport.ConversationResponse{
			ID:            conv.ID,
			ParticipantA:  conv.ParticipantA,
			ParticipantB:  conv.ParticipantB,
			CreatedAt:     conv.CreatedAt,
			LastMessageAt: conv.LastMessageAt,
		})
	}
	return out, nil
}

// ListMessages returns a conversation's messages to a participant and marks
// the caller's unread messages as read.
func (s *Service) ListMessages(ctx context.Context, userID, conversationID uuid.UUID, limit int) ([]transport.MessageResponse, error) {
	conv, err := s.store.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.ParticipantA != userID && conv.ParticipantB != userID {
		return nil, apperr.Forbidden("not a participant of this conversation")
	}

	if limit <= 0 {
		limit = defaultMessageLimit
	}
	msgs, err := s.store.ListMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}

	if err := s.store.MarkRead(ctx, conversationID, userID); err != nil {
		s.log.BestEffortFailure("messages_mark_read", err, "conversation_id", conversationID.String())
	}

	out := make([]transport.MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, toMessageResponse(&msgs[i]))
	}
	return out, nil
}

func toMessageResponse(msg *repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		RecipientID:    msg.RecipientID,
		Content:        msg.Content,
		ReadAt:         msg.ReadAt,
		CreatedAt:      msg.CreatedAt,
	}
}
