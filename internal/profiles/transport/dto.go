package transport

import "github.com/google/uuid"

// ProfileResponse is the read-only profile projection exposed by this service.
type ProfileResponse struct {
	UserID         uuid.UUID `json:"userId"`
	Role           string    `json:"role"`
	DisplayName    string    `json:"displayName"`
	Niche          string    `json:"niche,omitempty"`
	Industry       string    `json:"industry,omitempty"`
	AudienceSize   int64     `json:"audienceSize,omitempty"`
	Budget         int64     `json:"budget,omitempty"`
	EngagementRate float64   `json:"engagementRate,omitempty"`
	Platforms      []string  `json:"platforms,omitempty"`
	Location       string    `json:"location,omitempty"`
	IsActive       bool      `json:"isActive"`
}
