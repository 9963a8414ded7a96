// Package repository reads creator and organization profiles from PostgreSQL.
// Profiles are owned by the external profile-management system; this
// repository is strictly read-only.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"collabmatch_backend/internal/matching/scoring"
	"collabmatch_backend/platform/apperr"
)

const profileNotFoundMessage = "profile not found"

// Repo reads profiles with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new profile repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const profileColumns = `user_id, role, display_name, niche, industry,
	audience_size, budget, engagement_rate, platforms, location, is_active`

// GetByUserID retrieves the profile for a user.
func (r *Repo) GetByUserID(ctx context.Context, userID uuid.UUID) (scoring.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE user_id = $1`, profileColumns)

	row := r.pool.QueryRow(ctx, query, userID)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scoring.Profile{}, apperr.NotFound(profileNotFoundMessage)
		}
		return scoring.Profile{}, fmt.Errorf("get profile by user id: %w", err)
	}
	return profile, nil
}

// ListActiveByRole retrieves all active profiles with the given role,
// excluding excludeUserID, in a stable load order (oldest first).
func (r *Repo) ListActiveByRole(ctx context.Context, role scoring.Role, excludeUserID uuid.UUID) ([]scoring.Profile, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM profiles
		WHERE role = $1 AND is_active = true AND user_id <> $2
		ORDER BY created_at ASC`, profileColumns)

	rows, err := r.pool.Query(ctx, query, string(role), excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("list active profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]scoring.Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

func scanProfile(row pgx.Row) (scoring.Profile, error) {
	var p scoring.Profile
	var role string
	var niche, industry, location *string
	var audienceSize, budget *int64
	var engagementRate *float64
	var platforms []string

	if err := row.Scan(
		&p.UserID, &role, &p.DisplayName, &niche, &industry,
		&audienceSize, &budget, &engagementRate, &platforms, &location, &p.IsActive,
	); err != nil {
		return scoring.Profile{}, err
	}

	p.Role = scoring.Role(role)
	if niche != nil {
		p.Niche = *niche
	}
	if industry != nil {
		p.Industry = *industry
	}
	if location != nil {
		p.Location = *location
	}
	if audienceSize != nil {
		p.AudienceSize = *audienceSize
	}
	if budget != nil {
		p.Budget = *budget
	}
	if engagementRate != nil {
		p.EngagementRate = *engagementRate
	}
	p.Platforms = platforms

	return p, nil
}
