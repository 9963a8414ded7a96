package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collabmatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// Conversation is the conversation database model. One row exists per
// unordered participant pair, enforced by a unique index on the normalized
// pair.
type Conversation struct {
	ID            uuid.UUID `db:"id"`
	ParticipantA  uuid.UUID `db:"participant_a"`
	ParticipantB  uuid.UUID `db:"participant_b"`
	CreatedAt     time.Time `db:"created_at"`
	LastMessageAt time.Time `db:"last_message_at"`
}

// Message is the message database model
type Message struct {
	ID             uuid.UUID  `db:"id"`
	ConversationID uuid.UUID  `db:"conversation_id"`
	SenderID       uuid.UUID  `db:"sender_id"`
	RecipientID    uuid.UUID  `db:"recipient_id"`
	Content        string     `db:"content"`
	ReadAt         *time.Time `db:"read_at"`
	CreatedAt      time.Time  `db:"created_at"`
}

// Repository provides database operations for conversations and messages
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new messaging repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetConversationByPair retrieves the conversation between two users.
// Returns nil without error when none exists.
func (r *Repository) GetConversationByPair(ctx context.Context, a, b uuid.UUID) (*Conversation, error) {
	query := `SELECT id, participant_a, participant_b, created_at, last_message_at FROM conversations
		WHERE (participant_a = $1 AND participant_b = $2) OR (participant_a = $2 AND participant_b = $1)`

	var conv Conversation
	err := r.pool.QueryRow(ctx, query, a, b).Scan(
		&conv.ID, &conv.ParticipantA, &conv.ParticipantB, &conv.CreatedAt, &conv.LastMessageAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// GetConversationByID retrieves a conversation by its ID
func (r *Repository) GetConversationByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	query := `SELECT id, participant_a, participant_b, created_at, last_message_at FROM conversations WHERE id = $1`

	var conv Conversation
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&conv.ID, &conv.ParticipantA, &conv.ParticipantB, &conv.CreatedAt, &conv.LastMessageAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("conversation not found")
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// CreateConversation inserts a new conversation. A unique-index violation on
// the normalized pair is returned as a Conflict so the caller can re-fetch
// the row that won the race.
func (r *Repository) CreateConversation(ctx context.Context, conv *Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.LastMessageAt.IsZero() {
		conv.LastMessageAt = conv.CreatedAt
	}

	query := `INSERT INTO conversations (id, participant_a, participant_b, created_at, last_message_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, conv.ID, conv.ParticipantA, conv.ParticipantB, conv.CreatedAt, conv.LastMessageAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperr.Conflict("conversation already exists")
		}
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

// ListConversations retrieves a user's conversations, most recent activity
// first.
func (r *Repository) ListConversations(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	query := `SELECT id, participant_a, participant_b, created_at, last_message_at FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY last_message_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]Conversation, 0)
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.ParticipantA, &conv.ParticipantB, &conv.CreatedAt, &conv.LastMessageAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}
	return conversations, nil
}

// CreateMessage inserts a message and bumps the conversation's activity
// timestamp.
func (r *Repository) CreateMessage(ctx context.Context, msg *Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, recipient_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.ConversationID, msg.SenderID, msg.RecipientID, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE conversations SET last_message_at = $2 WHERE id = $1`,
		msg.ConversationID, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}
	return nil
}

// ListMessages retrieves messages in a conversation, oldest first.
func (r *Repository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error) {
	query := `SELECT id, conversation_id, sender_id, recipient_id, content, read_at, created_at
		FROM messages WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.RecipientID,
			&msg.Content, &msg.ReadAt, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

// MarkRead marks all messages addressed to userID in the conversation as read.
func (r *Repository) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET read_at = $3 WHERE conversation_id = $1 AND recipient_id = $2 AND read_at IS NULL`,
		conversationID, userID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}
