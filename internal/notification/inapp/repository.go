package inapp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification types used across the lifecycle.
const (
	TypeConnectionRequest     = "connection_request"
	TypeCollaborationRequest  = "collaboration_request"
	TypeCollaborationAccepted = "collaboration_accepted"
	TypeCollaborationRejected = "collaboration_rejected"
	TypePaymentCreated        = "payment_created"
	TypeNewMessage            = "new_message"
)

// Notification is a persisted in-app notification.
type Notification struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"userId"`
	SenderID  *uuid.UUID     `json:"senderId,omitempty"`
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IsRead    bool           `json:"isRead"`
	CreatedAt time.Time      `json:"createdAt"`
}

// CreateParams describes a notification to persist.
type CreateParams struct {
	UserID   uuid.UUID
	SenderID *uuid.UUID
	Type     string
	Content  string
	Metadata map[string]any
}

// Repository provides database operations for in-app notifications
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new in-app notification repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a notification and returns the stored row.
func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	var metadata []byte
	if p.Metadata != nil {
		var err error
		metadata, err = json.Marshal(p.Metadata)
		if err != nil {
			return Notification{}, fmt.Errorf("encode notification metadata: %w", err)
		}
	}

	n := Notification{
		ID:        uuid.New(),
		UserID:    p.UserID,
		SenderID:  p.SenderID,
		Type:      p.Type,
		Content:   p.Content,
		Metadata:  p.Metadata,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, sender_id, type, content, metadata, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)`,
		n.ID, n.UserID, n.SenderID, n.Type, n.Content, metadata, n.CreatedAt,
	)
	if err != nil {
		return Notification{}, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// List returns a user's notifications, newest first, with the total count.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, sender_id, type, content, metadata, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		var metadata []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.SenderID, &n.Type, &n.Content, &metadata, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				return nil, 0, fmt.Errorf("failed to decode notification metadata: %w", err)
			}
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read notifications: %w", err)
	}

	return items, total, nil
}

// CountUnread returns the number of unread notifications.
func (r *Repository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications as read.
func (r *Repository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = now() WHERE id = $1 AND user_id = $2`,
		notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead marks all of the user's notifications as read.
func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = now() WHERE user_id = $1 AND is_read = FALSE`,
		userID)
	if err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return nil
}
