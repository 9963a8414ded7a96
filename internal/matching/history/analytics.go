package history

import (
	"context"
	"math"
	"time"

	"collabmatch_backend/internal/matching/scoring"
	"collabmatch_backend/platform/apperr"

	"github.com/google/uuid"
)

// TimeRange selects the analytics window.
type TimeRange string

const (
	RangeWeek  TimeRange = "week"
	RangeMonth TimeRange = "month"
	RangeAll   TimeRange = "all"
)

// trendDeadband is the percent-change band inside which a factor counts as
// stable.
const trendDeadband = 5.0

const topMatchesLimit = 5

// FactorTrend summarizes one factor over the current window vs the previous.
type FactorTrend struct {
	Average float64 `json:"average"`
	Change  float64 `json:"change"`
	Trend   string  `json:"trend"` // "up", "down", "stable"
}

// ScoreDistribution buckets scores with the same thresholds as tier labels.
type ScoreDistribution struct {
	Perfect   int `json:"perfect"`   // >= 90
	Excellent int `json:"excellent"` // 75-89
	Good      int `json:"good"`      // 60-74
	Fair      int `json:"fair"`      // < 60
}

// Analytics is the aggregated view over a user's match history.
type Analytics struct {
	TimeRange          TimeRange              `json:"timeRange"`
	AverageScore       float64                `json:"averageScore"`
	AverageScoreChange float64                `json:"averageScoreChange"`
	Distribution       ScoreDistribution      `json:"distribution"`
	FactorTrends       map[string]FactorTrend `json:"factorTrends"`
	TopMatches         []Record               `json:"topMatches"`
	NewMatches         int                    `json:"newMatches"`
}

// AnalyticsService computes trend aggregations over stored match history.
type AnalyticsService struct {
	store Store
	now   func() time.Time
}

// NewAnalyticsService creates an analytics service over store.
func NewAnalyticsService(store Store) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

func windowDuration(rng TimeRange) (time.Duration, bool) {
	switch rng {
	case RangeWeek:
		return 7 * 24 * time.Hour, true
	case RangeMonth:
		return 30 * 24 * time.Hour, true
	case RangeAll:
		return 0, true
	default:
		return 0, false
	}
}

// Get computes analytics for the current window compared against the
// immediately preceding window of equal length. For RangeAll the previous
// window is empty and all changes report as stable.
func (s *AnalyticsService) Get(ctx context.Context, userID uuid.UUID, rng TimeRange) (Analytics, error) {
	window, ok := windowDuration(rng)
	if !ok {
		return Analytics{}, apperr.BadRequest("time range must be week, month, or all")
	}

	var current, previous []Record
	var err error

	if rng == RangeAll {
		current, err = s.store.ListAll(ctx, userID)
		if err != nil {
			return Analytics{}, err
		}
	} else {
		now := s.now()
		current, err = s.store.ListBetween(ctx, userID, now.Add(-window), now)
		if err != nil {
			return Analytics{}, err
		}
		previous, err = s.store.ListBetween(ctx, userID, now.Add(-2*window), now.Add(-window))
		if err != nil {
			return Analytics{}, err
		}
	}

	top, err := s.store.TopByScore(ctx, userID, topMatchesLimit)
	if err != nil {
		return Analytics{}, err
	}

	curAvg := averageScore(current)
	prevAvg := averageScore(previous)

	analytics := Analytics{
		TimeRange:          rng,
		AverageScore:       curAvg,
		AverageScoreChange: percentChange(curAvg, prevAvg),
		Distribution:       distribution(current),
		FactorTrends:       factorTrends(current, previous),
		TopMatches:         top,
		NewMatches:         len(current),
	}
	return analytics, nil
}

func averageScore(records []Record) float64 {
	if len(records) == 0 {
		return 0
	}
	sum := 0
	for _, rec := range records {
		sum += rec.Score
	}
	return round2(float64(sum) / float64(len(records)))
}

func percentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return round2((current - previous) / previous * 100)
}

func distribution(records []Record) ScoreDistribution {
	var dist ScoreDistribution
	for _, rec := range records {
		switch {
		case rec.Score >= scoring.TierPerfectMin:
			dist.Perfect++
		case rec.Score >= scoring.TierExcellentMin:
			dist.Excellent++
		case rec.Score >= scoring.TierGoodMin:
			dist.Good++
		default:
			dist.Fair++
		}
	}
	return dist
}

func factorTrends(current, previous []Record) map[string]FactorTrend {
	curAvgs := factorAverages(current)
	prevAvgs := factorAverages(previous)

	trends := make(map[string]FactorTrend, len(scoring.FactorNames))
	for _, name := range scoring.FactorNames {
		change := percentChange(curAvgs[name], prevAvgs[name])
		trends[name] = FactorTrend{
			Average: curAvgs[name],
			Change:  change,
			Trend:   trendLabel(change),
		}
	}
	return trends
}

func factorAverages(records []Record) map[string]float64 {
	sums := make(map[string]int, len(scoring.FactorNames))
	for _, rec := range records {
		for name, value := range rec.Factors.Map() {
			sums[name] += value
		}
	}

	avgs := make(map[string]float64, len(scoring.FactorNames))
	if len(records) == 0 {
		return avgs
	}
	for name, sum := range sums {
		avgs[name] = round2(float64(sum) / float64(len(records)))
	}
	return avgs
}

func trendLabel(change float64) string {
	switch {
	case change > trendDeadband:
		return "up"
	case change < -trendDeadband:
		return "down"
	default:
		return "stable"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
