package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collabmatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Payment status values. A payment starts pending and is settled by an
// external provider outside this core.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Payment is the payment database model
type Payment struct {
	ID           uuid.UUID `db:"id"`
	ConnectionID uuid.UUID `db:"connection_id"`
	PayerID      uuid.UUID `db:"payer_id"`
	PayeeID      uuid.UUID `db:"payee_id"`
	AmountTotal  int64     `db:"amount_total"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Repository provides database operations for payments
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new payments repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new payment
func (r *Repository) Create(ctx context.Context, p *Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt

	query := `
		INSERT INTO payments (id, connection_id, payer_id, payee_id, amount_total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.ConnectionID, p.PayerID, p.PayeeID, p.AmountTotal, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	query := `SELECT id, connection_id, payer_id, payee_id, amount_total, status, created_at, updated_at
		FROM payments WHERE id = $1`

	var p Payment
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ConnectionID, &p.PayerID, &p.PayeeID, &p.AmountTotal, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("payment not found")
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// ListByConnection retrieves payments for a connection, newest first.
func (r *Repository) ListByConnection(ctx context.Context, connectionID uuid.UUID) ([]Payment, error) {
	query := `SELECT id, connection_id, payer_id, payee_id, amount_total, status, created_at, updated_at
		FROM payments WHERE connection_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]Payment, 0)
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.ConnectionID, &p.PayerID, &p.PayeeID,
			&p.AmountTotal, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payments: %w", err)
	}
	return payments, nil
}

// UpdateStatus sets a payment's status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payments SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("payment not found")
	}
	return nil
}
