package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"collabmatch_backend/internal/messaging/repository"
	"collabmatch_backend/platform/apperr"
	"collabmatch_backend/platform/logger"
)

type fakeStore struct {
	conversations map[uuid.UUID]*repository.Conversation
	messages      []repository.Message
	conflictOnce  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{conversations: make(map[uuid.UUID]*repository.Conversation)}
}

func (f *fakeStore) GetConversationByPair(ctx context.Context, a, b uuid.UUID) (*repository.Conversation, error) {
	for _, conv := range f.conversations {
		if (conv.ParticipantA == a && conv.ParticipantB == b) || (conv.ParticipantA == b && conv.ParticipantB == a) {
			return conv, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetConversationByID(ctx context.Context, id uuid.UUID) (*repository.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return nil, apperr.NotFound("conversation not found")
	}
	return conv, nil
}

func (f *fakeStore) CreateConversation(ctx context.Context, conv *repository.Conversation) error {
	if f.conflictOnce {
		// Simulate losing the creation race: the winning row appears
		// before the conflict is reported.
		f.conflictOnce = false
		winner := &repository.Conversation{
			ID:           uuid.New(),
			ParticipantA: conv.ParticipantB,
			ParticipantB: conv.ParticipantA,
			CreatedAt:    time.Now().UTC(),
		}
		f.conversations[winner.ID] = winner
		return apperr.Conflict("conversation already exists")
	}
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	f.conversations[conv.ID] = conv
	return nil
}

func (f *fakeStore) ListConversations(ctx context.Context, userID uuid.UUID) ([]repository.Conversation, error) {
	var out []repository.Conversation
	for _, conv := range f.conversations {
		if conv.ParticipantA == userID || conv.ParticipantB == userID {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateMessage(ctx context.Context, msg *repository.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeStore) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]repository.Message, error) {
	var out []repository.Message
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	return nil
}

type fakePromoter struct {
	calls int
}

func (f *fakePromoter) EnsureAccepted(ctx context.Context, a, b uuid.UUID) error {
	f.calls++
	return nil
}

func TestCreateMessage_PromotesConnection(t *testing.T) {
	store := newFakeStore()
	promoter := &fakePromoter{}
	svc := New(store, promoter, nil, logger.New("development"))

	sender := uuid.New()
	recipient := uuid.New()

	msg, err := svc.CreateMessage(context.Background(), sender, recipient, "hello there")
	if err != nil {
		t.Fatalf("create message failed: %v", err)
	}
	if msg.Content != "hello there" {
		t.Fatalf("unexpected content %q", msg.Content)
	}
	if promoter.calls != 1 {
		t.Fatalf("expected connection promotion, got %d calls", promoter.calls)
	}
	if len(store.conversations) != 1 {
		t.Fatalf("expected one conversation, got %d", len(store.conversations))
	}
}

func TestCreateMessage_ReusesConversation(t *testing.T) {
	store := newFakeStore()
	svc := New(store, &fakePromoter{}, nil, logger.New("development"))

	sender := uuid.New()
	recipient := uuid.New()
	ctx := context.Background()

	if _, err := svc.CreateMessage(ctx, sender, recipient, "first"); err != nil {
		t.Fatalf("first message failed: %v", err)
	}
	// Reply from the other side lands in the same conversation.
	if _, err := svc.CreateMessage(ctx, recipient, sender, "second"); err != nil {
		t.Fatalf("second message failed: %v", err)
	}

	if len(store.conversations) != 1 {
		t.Fatalf("expected one conversation, got %d", len(store.conversations))
	}
	if len(store.messages) != 2 {
		t.Fatalf("expected two messages, got %d", len(store.messages))
	}
	if store.messages[0].ConversationID != store.messages[1].ConversationID {
		t.Fatalf("messages landed in different conversations")
	}
}

func TestGetOrCreateConversation_LostRaceResolvesToWinner(t *testing.T) {
	store := newFakeStore()
	store.conflictOnce = true
	svc := New(store, &fakePromoter{}, nil, logger.New("development"))

	a := uuid.New()
	b := uuid.New()

	id, err := svc.GetOrCreateConversation(context.Background(), a, b)
	if err != nil {
		t.Fatalf("expected race to resolve, got %v", err)
	}
	if id == uuid.Nil {
		t.Fatalf("expected winning conversation id")
	}
	if len(store.conversations) != 1 {
		t.Fatalf("expected exactly one conversation, got %d", len(store.conversations))
	}
}

func TestListMessages_ParticipantOnly(t *testing.T) {
	store := newFakeStore()
	svc := New(store, &fakePromoter{}, nil, logger.New("development"))

	sender := uuid.New()
	recipient := uuid.New()
	ctx := context.Background()

	msg, err := svc.CreateMessage(ctx, sender, recipient, "private")
	if err != nil {
		t.Fatalf("create message failed: %v", err)
	}

	_, err = svc.ListMessages(ctx, uuid.New(), msg.ConversationID, 10)
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}

	msgs, err := svc.ListMessages(ctx, recipient, msg.ConversationID, 10)
	if err != nil {
		t.Fatalf("participant list failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
}

func TestCreateMessage_Validation(t *testing.T) {
	svc := New(newFakeStore(), &fakePromoter{}, nil, logger.New("development"))
	ctx := context.Background()
	user := uuid.New()

	if _, err := svc.CreateMessage(ctx, user, user, "hi"); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for self message, got %v", err)
	}
	if _, err := svc.CreateMessage(ctx, user, uuid.New(), "   "); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank content, got %v", err)
	}
}
