package history

import (
	"context"
	"testing"
	"time"

	"collabmatch_backend/internal/matching/scoring"
	"collabmatch_backend/platform/apperr"

	"github.com/google/uuid"
)

func recordAt(userID uuid.UUID, score int, niche int, createdAt time.Time) Record {
	return Record{
		ID:          uuid.New(),
		UserID:      userID,
		MatchUserID: uuid.New(),
		Score:       score,
		Factors:     scoring.Factors{NicheCompatibility: niche},
		CreatedAt:   createdAt,
	}
}

func TestAnalytics_AverageAndChange(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{records: []Record{
		// current week: scores 80, 90 -> avg 85
		recordAt(userID, 80, 100, now.Add(-24*time.Hour)),
		recordAt(userID, 90, 100, now.Add(-48*time.Hour)),
		// previous week: scores 60, 70 -> avg 65
		recordAt(userID, 60, 50, now.Add(-8*24*time.Hour)),
		recordAt(userID, 70, 50, now.Add(-9*24*time.Hour)),
	}}

	svc := NewAnalyticsService(store)
	svc.now = func() time.Time { return now }

	analytics, err := svc.Get(context.Background(), userID, RangeWeek)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if analytics.AverageScore != 85 {
		t.Fatalf("average score: got %v, want 85", analytics.AverageScore)
	}
	// (85-65)/65*100 = 30.77
	if analytics.AverageScoreChange != 30.77 {
		t.Fatalf("average score change: got %v, want 30.77", analytics.AverageScoreChange)
	}
	if analytics.NewMatches != 2 {
		t.Fatalf("new matches: got %d, want 2", analytics.NewMatches)
	}
}

func TestAnalytics_Distribution(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{records: []Record{
		recordAt(userID, 95, 0, now.Add(-time.Hour)),
		recordAt(userID, 90, 0, now.Add(-time.Hour)),
		recordAt(userID, 89, 0, now.Add(-time.Hour)),
		recordAt(userID, 75, 0, now.Add(-time.Hour)),
		recordAt(userID, 74, 0, now.Add(-time.Hour)),
		recordAt(userID, 60, 0, now.Add(-time.Hour)),
		recordAt(userID, 59, 0, now.Add(-time.Hour)),
	}}

	svc := NewAnalyticsService(store)
	svc.now = func() time.Time { return now }

	analytics, err := svc.Get(context.Background(), userID, RangeWeek)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dist := analytics.Distribution
	if dist.Perfect != 2 || dist.Excellent != 2 || dist.Good != 2 || dist.Fair != 1 {
		t.Fatalf("distribution: got %+v, want 2/2/2/1", dist)
	}
}

func TestAnalytics_FactorTrends(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	store := &fakeStore{records: []Record{
		// current week niche avg 80, previous week niche avg 50 -> up
		recordAt(userID, 80, 80, now.Add(-time.Hour)),
		recordAt(userID, 70, 50, now.Add(-8*24*time.Hour)),
	}}

	svc := NewAnalyticsService(store)
	svc.now = func() time.Time { return now }

	analytics, err := svc.Get(context.Background(), userID, RangeWeek)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	niche := analytics.FactorTrends["nicheCompatibility"]
	if niche.Average != 80 {
		t.Fatalf("niche average: got %v, want 80", niche.Average)
	}
	if niche.Trend != "up" {
		t.Fatalf("niche trend: got %s, want up", niche.Trend)
	}

	// Factors identical across windows stay inside the deadband.
	for _, name := range []string{"locationCompatibility", "budgetAlignment"} {
		if trend := analytics.FactorTrends[name]; trend.Trend != "stable" {
			t.Fatalf("factor %s trend: got %s, want stable", name, trend.Trend)
		}
	}
}

func TestAnalytics_TopMatchesAndAllRange(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	var records []Record
	for _, score := range []int{50, 95, 70, 88, 61, 99, 42} {
		records = append(records, recordAt(userID, score, 0, now.Add(-100*24*time.Hour)))
	}
	store := &fakeStore{records: records}

	svc := NewAnalyticsService(store)
	svc.now = func() time.Time { return now }

	analytics, err := svc.Get(context.Background(), userID, RangeAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(analytics.TopMatches) != 5 {
		t.Fatalf("top matches: got %d, want 5", len(analytics.TopMatches))
	}
	want := []int{99, 95, 88, 70, 61}
	for i, rec := range analytics.TopMatches {
		if rec.Score != want[i] {
			t.Fatalf("top match %d: got score %d, want %d", i, rec.Score, want[i])
		}
	}

	// "all" has no previous window: changes stay zero.
	if analytics.AverageScoreChange != 0 {
		t.Fatalf("all range change: got %v, want 0", analytics.AverageScoreChange)
	}
	if analytics.NewMatches != 7 {
		t.Fatalf("all range new matches: got %d, want 7", analytics.NewMatches)
	}
}

func TestAnalytics_InvalidRange(t *testing.T) {
	svc := NewAnalyticsService(&fakeStore{})

	_, err := svc.Get(context.Background(), uuid.New(), TimeRange("year"))
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request error, got %v", err)
	}
}
