// Package scoring implements the compatibility score between a creator
// profile and an organization profile. It is a pure computation: same inputs
// always produce the same score and factor breakdown, and nothing here
// touches storage or I/O.
package scoring

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// Role distinguishes the two profile populations.
type Role string

const (
	RoleCreator      Role = "creator"
	RoleOrganization Role = "organization"
)

// Profile is the read-only scoring input. Profiles are owned by the profile
// store; this package never mutates them.
type Profile struct {
	UserID         uuid.UUID
	Role           Role
	DisplayName    string
	Niche          string  // creators
	Industry       string  // organizations
	AudienceSize   int64   // creators
	Budget         int64   // organizations
	EngagementRate float64 // creators, percent
	Platforms      []string
	Location       string
	IsActive       bool
}

// Factors is the per-factor breakdown, each in [0,100].
type Factors struct {
	NicheCompatibility    int `json:"nicheCompatibility"`
	LocationCompatibility int `json:"locationCompatibility"`
	BudgetAlignment       int `json:"budgetAlignment"`
	PlatformOverlap       int `json:"platformOverlap"`
	AudienceSizeMatch     int `json:"audienceSizeMatch"`
	EngagementTierMatch   int `json:"engagementTierMatch"`
}

// Map returns the factors keyed by their canonical names, for analytics
// aggregation and history persistence.
func (f Factors) Map() map[string]int {
	return map[string]int{
		"nicheCompatibility":    f.NicheCompatibility,
		"locationCompatibility": f.LocationCompatibility,
		"budgetAlignment":       f.BudgetAlignment,
		"platformOverlap":       f.PlatformOverlap,
		"audienceSizeMatch":     f.AudienceSizeMatch,
		"engagementTierMatch":   f.EngagementTierMatch,
	}
}

// FactorNames lists the canonical factor keys in a stable order.
var FactorNames = []string{
	"nicheCompatibility",
	"locationCompatibility",
	"budgetAlignment",
	"platformOverlap",
	"audienceSizeMatch",
	"engagementTierMatch",
}

// Factor weights. They must sum to 1.0; TestWeightsSumToOne guards any
// reconfiguration.
const (
	WeightNiche      = 0.25
	WeightBudget     = 0.20
	WeightPlatform   = 0.15
	WeightEngagement = 0.15
	WeightAudience   = 0.15
	WeightLocation   = 0.10
)

// neutralScore is the defined "insufficient data" default: whenever a factor's
// required input is missing, the factor scores 50 rather than erroring.
const neutralScore = 50

// Tier thresholds, shared with the analytics score distribution buckets.
const (
	TierPerfectMin   = 90
	TierExcellentMin = 75
	TierGoodMin      = 60
)

// Tier labels.
const (
	TierPerfect   = "Perfect"
	TierExcellent = "Excellent"
	TierGood      = "Good"
	TierFair      = "Fair"
)

// Score computes the overall compatibility score and factor breakdown for a
// creator/organization pair. The creator is whichever input carries
// RoleCreator; callers are expected to validate roles beforehand, and a pair
// without a creator is scored as if the first input were the creator.
func Score(a, b Profile) (int, Factors) {
	creator, org := a, b
	if a.Role != RoleCreator && b.Role == RoleCreator {
		creator, org = b, a
	}

	factors := Factors{
		NicheCompatibility:    nicheCompatibility(creator.Niche, org.Industry),
		LocationCompatibility: locationCompatibility(creator.Location, org.Location),
		BudgetAlignment:       budgetAlignment(creator.AudienceSize, org.Budget),
		PlatformOverlap:       platformOverlap(creator.Platforms, org.Platforms),
		AudienceSizeMatch:     audienceSizeMatch(creator.AudienceSize, org.Budget),
		EngagementTierMatch:   engagementTierMatch(creator.EngagementRate),
	}

	weighted := WeightNiche*float64(factors.NicheCompatibility) +
		WeightLocation*float64(factors.LocationCompatibility) +
		WeightBudget*float64(factors.BudgetAlignment) +
		WeightPlatform*float64(factors.PlatformOverlap) +
		WeightAudience*float64(factors.AudienceSizeMatch) +
		WeightEngagement*float64(factors.EngagementTierMatch)

	score := int(math.Round(weighted))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return score, factors
}

// Tier classifies an overall score into its qualitative display label.
func Tier(score int) string {
	switch {
	case score >= TierPerfectMin:
		return TierPerfect
	case score >= TierExcellentMin:
		return TierExcellent
	case score >= TierGoodMin:
		return TierGood
	default:
		return TierFair
	}
}

// relatedNiches maps a niche to industry terms considered adjacent. Lookups
// are checked in both directions, so entries need not be duplicated.
var relatedNiches = map[string][]string{
	"fashion":   {"beauty", "makeup", "apparel", "style", "clothing"},
	"beauty":    {"makeup", "skincare", "cosmetics", "fashion"},
	"fitness":   {"health", "wellness", "sports", "nutrition"},
	"food":      {"cooking", "restaurant", "beverage", "nutrition"},
	"tech":      {"technology", "software", "gadgets", "gaming", "electronics"},
	"gaming":    {"esports", "tech", "entertainment"},
	"travel":    {"tourism", "hospitality", "lifestyle"},
	"lifestyle": {"wellness", "home", "travel", "fashion"},
	"finance":   {"fintech", "banking", "investing", "crypto"},
	"education": {"edtech", "learning", "books"},
}

func nicheCompatibility(niche, industry string) int {
	niche = strings.ToLower(strings.TrimSpace(niche))
	industry = strings.ToLower(strings.TrimSpace(industry))

	if niche == "" || industry == "" {
		return neutralScore
	}
	if niche == industry {
		return 100
	}
	if strings.Contains(niche, industry) || strings.Contains(industry, niche) {
		return 80
	}
	if nichesRelated(niche, industry) || nichesRelated(industry, niche) {
		return 65
	}
	return 40
}

func nichesRelated(key, candidate string) bool {
	for _, term := range relatedNiches[key] {
		if term == candidate {
			return true
		}
	}
	return false
}

func locationCompatibility(loc1, loc2 string) int {
	loc1 = strings.ToLower(strings.TrimSpace(loc1))
	loc2 = strings.ToLower(strings.TrimSpace(loc2))

	if loc1 == "" || loc2 == "" {
		return neutralScore
	}
	if loc1 == loc2 {
		return 100
	}

	segs1 := splitSegments(loc1)
	segs2 := splitSegments(loc2)

	// Second comma segment is the region/state.
	if len(segs1) > 1 && len(segs2) > 1 && segs1[1] == segs2[1] {
		return 80
	}

	for _, s1 := range segs1 {
		for _, s2 := range segs2 {
			if s1 == s2 {
				return 60
			}
		}
	}
	return 40
}

func splitSegments(location string) []string {
	parts := strings.Split(location, ",")
	segs := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			segs = append(segs, trimmed)
		}
	}
	return segs
}

// ratePerThousand is the assumed creator rate in dollars per 1000 followers.
const ratePerThousand = 30.0

func budgetAlignment(audienceSize, budget int64) int {
	if audienceSize <= 0 || budget <= 0 {
		return neutralScore
	}

	estimatedRate := float64(audienceSize) / 1000.0 * ratePerThousand
	ratio := float64(budget) / estimatedRate

	switch {
	case ratio >= 1 && ratio <= 2:
		return 100
	case ratio >= 0.7 && ratio <= 3:
		return 80
	case ratio >= 0.4 && ratio <= 5:
		return 60
	case ratio < 0.4:
		return 35
	default:
		return 45
	}
}

func platformOverlap(setA, setB []string) int {
	a := normalizeSet(setA)
	b := normalizeSet(setB)

	if len(a) == 0 || len(b) == 0 {
		return neutralScore
	}

	intersection := 0
	for platform := range a {
		if b[platform] {
			intersection++
		}
	}
	if intersection == 0 {
		return 30
	}

	union := len(a) + len(b) - intersection
	jaccard := int(math.Round(float64(intersection) / float64(union) * 100))
	if jaccard < 50 {
		return 50
	}
	return jaccard
}

func normalizeSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		if trimmed := strings.ToLower(strings.TrimSpace(item)); trimmed != "" {
			set[trimmed] = true
		}
	}
	return set
}

func audienceSizeMatch(audienceSize, budget int64) int {
	if audienceSize <= 0 || budget <= 0 {
		return neutralScore
	}

	targetAudience := float64(budget) / ratePerThousand * 1000.0
	ratio := float64(audienceSize) / targetAudience

	switch {
	case ratio >= 0.7 && ratio <= 1.3:
		return 100
	case ratio >= 0.5 && ratio <= 1.5:
		return 80
	case ratio >= 0.4 && ratio <= 2.5:
		return 60
	case ratio < 0.4:
		return 40
	default:
		return 45
	}
}

func engagementTierMatch(rate float64) int {
	if rate <= 0 {
		return neutralScore
	}

	switch {
	case rate >= 5:
		return 100
	case rate >= 3:
		return 85
	case rate >= 1.5:
		return 70
	case rate >= 0.5:
		return 55
	default:
		return 40
	}
}
