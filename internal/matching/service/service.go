// Package service implements the ranking service: it scores one profile
// against every active opposite-role profile and returns candidates in
// descending score order.
package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"collabmatch_backend/internal/matching/history"
	"collabmatch_backend/internal/matching/scoring"
	"collabmatch_backend/internal/matching/transport"
	profilesservice "collabmatch_backend/internal/profiles/service"
	"collabmatch_backend/platform/apperr"
	"collabmatch_backend/platform/logger"
)

// ProfileSource provides read access to the profile store.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (scoring.Profile, error)
	ListActiveByRole(ctx context.Context, role scoring.Role, excludeUserID uuid.UUID) ([]scoring.Profile, error)
}

// MatchRecorder appends history records; implementations must be
// fire-and-forget and never surface errors to the ranking path.
type MatchRecorder interface {
	Record(rec history.Record)
}

// Service ranks candidate profiles for a seeking user.
type Service struct {
	profiles ProfileSource
	recorder MatchRecorder
	log      *logger.Logger
}

// New creates a new ranking service.
func New(profiles ProfileSource, recorder MatchRecorder, log *logger.Logger) *Service {
	return &Service{profiles: profiles, recorder: recorder, log: log}
}

func oppositeRole(role scoring.Role) (scoring.Role, bool) {
	switch role {
	case scoring.RoleCreator:
		return scoring.RoleOrganization, true
	case scoring.RoleOrganization:
		return scoring.RoleCreator, true
	default:
		return "", false
	}
}

// RankMatches scores the seeker against all active opposite-role profiles and
// returns them sorted descending by score. Ties keep load order (stable
// sort). Each computed score is recorded to history without blocking or
// affecting the response.
func (s *Service) RankMatches(ctx context.Context, userID uuid.UUID) (transport.MatchListResponse, error) {
	seeker, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return transport.MatchListResponse{}, err
	}

	targetRole, ok := oppositeRole(seeker.Role)
	if !ok {
		return transport.MatchListResponse{}, apperr.BadRequest("profile role must be creator or organization")
	}

	candidates, err := s.profiles.ListActiveByRole(ctx, targetRole, userID)
	if err != nil {
		return transport.MatchListResponse{}, err
	}

	matches := make([]transport.MatchResult, 0, len(candidates))
	for _, candidate := range candidates {
		score, factors := scoring.Score(seeker, candidate)

		matches = append(matches, transport.MatchResult{
			UserID:    candidate.UserID,
			Profile:   profilesservice.ToResponse(candidate),
			Score:     score,
			Tier:      scoring.Tier(score),
			Breakdown: factors,
		})

		if s.recorder != nil {
			s.recorder.Record(history.Record{
				UserID:      userID,
				MatchUserID: candidate.UserID,
				Score:       score,
				Factors:     factors,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return transport.MatchListResponse{Matches: matches, Total: len(matches)}, nil
}
