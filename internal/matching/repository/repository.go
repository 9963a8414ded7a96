// Package repository persists match history records in PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabmatch_backend/internal/matching/history"
	"collabmatch_backend/internal/matching/scoring"
)

// Repo implements history.Store with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new match history repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements history.Store.
var _ history.Store = (*Repo)(nil)

const recordColumns = `id, user_id, match_user_id, score,
	factor_niche, factor_location, factor_budget, factor_platform, factor_audience, factor_engagement,
	user_weights, created_at`

// Insert appends one match history record. Records are append-only.
func (r *Repo) Insert(ctx context.Context, rec history.Record) error {
	query := `
		INSERT INTO match_history (id, user_id, match_user_id, score,
			factor_niche, factor_location, factor_budget, factor_platform, factor_audience, factor_engagement,
			user_weights, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var weights []byte
	if len(rec.UserWeights) > 0 {
		encoded, err := json.Marshal(rec.UserWeights)
		if err != nil {
			return fmt.Errorf("encode user weights: %w", err)
		}
		weights = encoded
	}

	_, err := r.pool.Exec(ctx, query,
		id, rec.UserID, rec.MatchUserID, rec.Score,
		rec.Factors.NicheCompatibility, rec.Factors.LocationCompatibility,
		rec.Factors.BudgetAlignment, rec.Factors.PlatformOverlap,
		rec.Factors.AudienceSizeMatch, rec.Factors.EngagementTierMatch,
		weights, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert match history: %w", err)
	}
	return nil
}

// ListBetween returns records for userID created in [from, to), newest first.
func (r *Repo) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]history.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM match_history
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC`, recordColumns)

	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list match history window: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListAll returns every record for userID, newest first.
func (r *Repo) ListAll(ctx context.Context, userID uuid.UUID) ([]history.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM match_history
		WHERE user_id = $1
		ORDER BY created_at DESC`, recordColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list match history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListRecent returns the newest records for userID up to limit.
func (r *Repo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]history.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM match_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, recordColumns)

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent match history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// TopByScore returns the highest-scoring records for userID up to limit.
func (r *Repo) TopByScore(ctx context.Context, userID uuid.UUID, limit int) ([]history.Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM match_history
		WHERE user_id = $1
		ORDER BY score DESC, created_at DESC
		LIMIT $2`, recordColumns)

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list top match history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]history.Record, error) {
	records := make([]history.Record, 0)
	for rows.Next() {
		var rec history.Record
		var factors scoring.Factors
		var weights []byte

		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.MatchUserID, &rec.Score,
			&factors.NicheCompatibility, &factors.LocationCompatibility,
			&factors.BudgetAlignment, &factors.PlatformOverlap,
			&factors.AudienceSizeMatch, &factors.EngagementTierMatch,
			&weights, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan match history: %w", err)
		}

		if len(weights) > 0 {
			if err := json.Unmarshal(weights, &rec.UserWeights); err != nil {
				return nil, fmt.Errorf("decode user weights: %w", err)
			}
		}

		rec.Factors = factors
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match history: %w", err)
	}
	return records, nil
}
