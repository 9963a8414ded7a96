package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"collabmatch_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Basic connection status values.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

// Collaboration sub-status values. This axis is independent of the basic
// status: a connection can be ACCEPTED with no collaboration at all.
const (
	CollabNone      = "none"
	CollabRequested = "requested"
	CollabActive    = "active"
	CollabRejected  = "rejected"
)

const uniqueViolationCode = "23505"

const connectionNotFoundMsg = "connection not found"

// RequestData is the structured collaboration proposal stored as jsonb on
// the connection row. A new request overwrites the previous one wholesale.
type RequestData struct {
	Message      string   `json:"message"`
	ProjectTitle *string  `json:"projectTitle,omitempty"`
	BudgetMin    *int64   `json:"budgetMin,omitempty"`
	BudgetMax    *int64   `json:"budgetMax,omitempty"`
	Budget       *int64   `json:"budget,omitempty"`
	Timeline     *string  `json:"timeline,omitempty"`
	Deliverables []string `json:"deliverables,omitempty"`
}

// Connection is the connection database model. Exactly one row exists per
// unordered user pair, enforced by a unique index on the normalized pair.
type Connection struct {
	ID                  uuid.UUID    `db:"id"`
	RequesterID         uuid.UUID    `db:"requester_id"`
	RecipientID         uuid.UUID    `db:"recipient_id"`
	Status              string       `db:"status"`
	CollaborationStatus string       `db:"collaboration_status"`
	Request             *RequestData `db:"collaboration_request"`
	RequestedBy         *uuid.UUID   `db:"requested_by"`
	RespondedAt         *time.Time   `db:"responded_at"`
	CreatedAt           time.Time    `db:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at"`
}

// Other returns the participant that is not userID. The second return is
// false when userID is not a participant at all.
func (c *Connection) Other(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case c.RequesterID:
		return c.RecipientID, true
	case c.RecipientID:
		return c.RequesterID, true
	default:
		return uuid.Nil, false
	}
}

// Repository provides database operations for connections
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new connections repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const connectionColumns = `id, requester_id, recipient_id, status, collaboration_status,
	collaboration_request, requested_by, responded_at, created_at, updated_at`

// Create inserts a new connection. A unique-index violation on the
// normalized pair is returned as a Conflict so concurrent duplicate requests
// resolve to exactly one row.
func (r *Repository) Create(ctx context.Context, conn *Connection) error {
	if conn.ID == uuid.Nil {
		conn.ID = uuid.New()
	}
	now := time.Now().UTC()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = conn.CreatedAt

	data, err := marshalRequest(conn.Request)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO connections (
			id, requester_id, recipient_id, status, collaboration_status,
			collaboration_request, requested_by, responded_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.pool.Exec(ctx, query,
		conn.ID, conn.RequesterID, conn.RecipientID, conn.Status, conn.CollaborationStatus,
		data, conn.RequestedBy, conn.RespondedAt, conn.CreatedAt, conn.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperr.Conflict("connection already exists between these users")
		}
		return fmt.Errorf("failed to create connection: %w", err)
	}

	return nil
}

// GetByID retrieves a connection by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`

	conn, err := r.scanOne(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(connectionNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return conn, nil
}

// GetByPair retrieves the connection between two users regardless of which
// side initiated it. Returns nil without error when no connection exists.
func (r *Repository) GetByPair(ctx context.Context, a, b uuid.UUID) (*Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections
		WHERE (requester_id = $1 AND recipient_id = $2) OR (requester_id = $2 AND recipient_id = $1)`

	conn, err := r.scanOne(r.pool.QueryRow(ctx, query, a, b))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get connection by pair: %w", err)
	}
	return conn, nil
}

// ListByUser retrieves all connections a user participates in, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections
		WHERE requester_id = $1 OR recipient_id = $1
		ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// ListCollaborationReceived retrieves collaboration requests where the user
// is the responding party.
func (r *Repository) ListCollaborationReceived(ctx context.Context, userID uuid.UUID) ([]Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections
		WHERE (requester_id = $1 OR recipient_id = $1)
		  AND collaboration_status <> 'none'
		  AND requested_by IS NOT NULL AND requested_by <> $1
		ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list received collaboration requests: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// ListCollaborationSent retrieves collaboration requests initiated by the user.
func (r *Repository) ListCollaborationSent(ctx context.Context, userID uuid.UUID) ([]Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections
		WHERE collaboration_status <> 'none' AND requested_by = $1
		ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent collaboration requests: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// SetCollaborationRequest overwrites the collaboration request on an existing
// connection: sub-status back to requested, previous response cleared.
func (r *Repository) SetCollaborationRequest(ctx context.Context, id uuid.UUID, status string, requestedBy uuid.UUID, req *RequestData) error {
	data, err := marshalRequest(req)
	if err != nil {
		return err
	}

	query := `UPDATE connections
		SET status = $2, collaboration_status = 'requested', collaboration_request = $3,
		    requested_by = $4, responded_at = NULL, updated_at = $5
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status, data, requestedBy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set collaboration request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(connectionNotFoundMsg)
	}
	return nil
}

// Resolve transitions a requested collaboration to its terminal sub-status
// and sets the basic status in the same statement. The collaboration_status
// guard makes concurrent accept/reject race to a single winner.
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID, status, collabStatus string) (bool, error) {
	query := `UPDATE connections
		SET status = $2, collaboration_status = $3, responded_at = $4, updated_at = $4
		WHERE id = $1 AND collaboration_status = 'requested'`

	tag, err := r.pool.Exec(ctx, query, id, status, collabStatus, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to resolve collaboration request: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateStatus sets the basic connection status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE connections SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update connection status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(connectionNotFoundMsg)
	}
	return nil
}

// Delete removes a connection row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(connectionNotFoundMsg)
	}
	return nil
}

func (r *Repository) scanOne(row pgx.Row) (*Connection, error) {
	var conn Connection
	var data []byte

	err := row.Scan(
		&conn.ID, &conn.RequesterID, &conn.RecipientID, &conn.Status, &conn.CollaborationStatus,
		&data, &conn.RequestedBy, &conn.RespondedAt, &conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		var req RequestData
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("failed to decode collaboration request: %w", err)
		}
		conn.Request = &req
	}

	return &conn, nil
}

func (r *Repository) scanMany(rows pgx.Rows) ([]Connection, error) {
	connections := make([]Connection, 0)
	for rows.Next() {
		conn, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, *conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read connections: %w", err)
	}
	return connections, nil
}

func marshalRequest(req *RequestData) ([]byte, error) {
	if req == nil {
		return nil, nil
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode collaboration request: %w", err)
	}
	return data, nil
}
