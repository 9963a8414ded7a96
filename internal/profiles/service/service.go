// Package service exposes read-only profile projections.
package service

import (
	"context"

	"github.com/google/uuid"

	"collabmatch_backend/internal/matching/scoring"
	"collabmatch_backend/internal/profiles/transport"
)

// Reader is the read-only profile access port.
type Reader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (scoring.Profile, error)
	ListActiveByRole(ctx context.Context, role scoring.Role, excludeUserID uuid.UUID) ([]scoring.Profile, error)
}

// Service provides profile lookups for handlers and sibling modules.
type Service struct {
	repo Reader
}

// New creates a new profile service.
func New(repo Reader) *Service {
	return &Service{repo: repo}
}

// Get retrieves a single profile projection.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (transport.ProfileResponse, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	return ToResponse(profile), nil
}

// GetProfile returns the raw scoring profile, used by the matching module.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (scoring.Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// ListActiveByRole returns active raw profiles for the given role.
func (s *Service) ListActiveByRole(ctx context.Context, role scoring.Role, excludeUserID uuid.UUID) ([]scoring.Profile, error) {
	return s.repo.ListActiveByRole(ctx, role, excludeUserID)
}

// Role returns the role of a user's profile.
func (s *Service) Role(ctx context.Context, userID uuid.UUID) (scoring.Role, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}

// ToResponse converts a raw profile into its API projection.
func ToResponse(p scoring.Profile) transport.ProfileResponse {
	return transport.ProfileResponse{
		UserID:         p.UserID,
		Role:           string(p.Role),
		DisplayName:    p.DisplayName,
		Niche:          p.Niche,
		Industry:       p.Industry,
		AudienceSize:   p.AudienceSize,
		Budget:         p.Budget,
		EngagementRate: p.EngagementRate,
		Platforms:      p.Platforms,
		Location:       p.Location,
		IsActive:       p.IsActive,
	}
}
