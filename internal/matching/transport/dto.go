package transport

import (
	"github.com/google/uuid"

	"collabmatch_backend/internal/matching/scoring"
	profilestransport "collabmatch_backend/internal/profiles/transport"
)

// MatchResult is one ranked candidate in a matches response.
type MatchResult struct {
	UserID    uuid.UUID                         `json:"id"`
	Profile   profilestransport.ProfileResponse `json:"profile"`
	Score     int                               `json:"score"`
	Tier      string                            `json:"tier"`
	Breakdown scoring.Factors                   `json:"breakdown"`
}

// MatchListResponse wraps a ranked list of candidates.
type MatchListResponse struct {
	Matches []MatchResult `json:"matches"`
	Total   int           `json:"total"`
}

// AnalyticsRequest selects the analytics window.
type AnalyticsRequest struct {
	Range string `form:"range" validate:"omitempty,oneof=week month all"`
}

// HistoryRequest bounds the history listing.
type HistoryRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=200"`
}
