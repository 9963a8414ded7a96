package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"collabmatch_backend/internal/matching/history"
	"collabmatch_backend/internal/matching/scoring"
	"collabmatch_backend/platform/apperr"
	"collabmatch_backend/platform/logger"
)

type fakeProfiles struct {
	seeker     scoring.Profile
	candidates []scoring.Profile
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID uuid.UUID) (scoring.Profile, error) {
	if f.seeker.UserID == userID {
		return f.seeker, nil
	}
	return scoring.Profile{}, apperr.NotFound("profile not found")
}

func (f *fakeProfiles) ListActiveByRole(_ context.Context, role scoring.Role, excludeUserID uuid.UUID) ([]scoring.Profile, error) {
	var out []scoring.Profile
	for _, p := range f.candidates {
		if p.Role == role && p.UserID != excludeUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

type captureRecorder struct {
	mu      sync.Mutex
	records []history.Record
}

func (c *captureRecorder) Record(rec history.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
}

func org(industry string, budget int64, name string) scoring.Profile {
	return scoring.Profile{
		UserID:      uuid.New(),
		Role:        scoring.RoleOrganization,
		DisplayName: name,
		Industry:    industry,
		Budget:      budget,
		IsActive:    true,
	}
}

func TestRankMatches_SortedDescending(t *testing.T) {
	seeker := scoring.Profile{
		UserID:       uuid.New(),
		Role:         scoring.RoleCreator,
		Niche:        "fashion",
		AudienceSize: 100000,
	}
	profiles := &fakeProfiles{
		seeker: seeker,
		candidates: []scoring.Profile{
			org("automotive", 0, "low"),
			org("fashion", 3000, "high"),
			org("beauty", 3000, "mid"),
		},
	}
	recorder := &captureRecorder{}

	svc := New(profiles, recorder, logger.New("development"))
	result, err := svc.RankMatches(context.Background(), seeker.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Total != 3 {
		t.Fatalf("expected 3 matches, got %d", result.Total)
	}
	for i := 1; i < len(result.Matches); i++ {
		if result.Matches[i-1].Score < result.Matches[i].Score {
			t.Fatalf("matches not sorted descending at index %d: %d < %d",
				i, result.Matches[i-1].Score, result.Matches[i].Score)
		}
	}
	if result.Matches[0].Profile.DisplayName != "high" {
		t.Fatalf("best match: got %s, want high", result.Matches[0].Profile.DisplayName)
	}
}

func TestRankMatches_StableOrderOnTies(t *testing.T) {
	seeker := scoring.Profile{
		UserID: uuid.New(),
		Role:   scoring.RoleCreator,
	}
	// Identical candidates score identically; load order must survive.
	first := org("fashion", 3000, "first")
	second := org("fashion", 3000, "second")
	third := org("fashion", 3000, "third")
	profiles := &fakeProfiles{
		seeker:     seeker,
		candidates: []scoring.Profile{first, second, third},
	}

	svc := New(profiles, &captureRecorder{}, logger.New("development"))
	result, err := svc.RankMatches(context.Background(), seeker.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"first", "second", "third"}
	for i, name := range want {
		if result.Matches[i].Profile.DisplayName != name {
			t.Fatalf("tie order broken at %d: got %s, want %s",
				i, result.Matches[i].Profile.DisplayName, name)
		}
	}
}

func TestRankMatches_RecordsEveryCandidate(t *testing.T) {
	seeker := scoring.Profile{UserID: uuid.New(), Role: scoring.RoleCreator}
	profiles := &fakeProfiles{
		seeker: seeker,
		candidates: []scoring.Profile{
			org("fashion", 3000, "a"),
			org("tech", 500, "b"),
		},
	}
	recorder := &captureRecorder{}

	svc := New(profiles, recorder, logger.New("development"))
	if _, err := svc.RankMatches(context.Background(), seeker.UserID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recorder.records) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(recorder.records))
	}
	for _, rec := range recorder.records {
		if rec.UserID != seeker.UserID {
			t.Fatalf("record user: got %s, want %s", rec.UserID, seeker.UserID)
		}
		if rec.Score < 0 || rec.Score > 100 {
			t.Fatalf("record score %d out of range", rec.Score)
		}
	}
}

func TestRankMatches_ExcludesSelfAndSameRole(t *testing.T) {
	seeker := scoring.Profile{UserID: uuid.New(), Role: scoring.RoleOrganization, Industry: "tech", IsActive: true}
	otherOrg := org("tech", 1000, "other-org")
	creator := scoring.Profile{UserID: uuid.New(), Role: scoring.RoleCreator, Niche: "tech", IsActive: true}

	profiles := &fakeProfiles{
		seeker:     seeker,
		candidates: []scoring.Profile{seeker, otherOrg, creator},
	}

	svc := New(profiles, &captureRecorder{}, logger.New("development"))
	result, err := svc.RankMatches(context.Background(), seeker.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Total != 1 {
		t.Fatalf("expected only the opposite-role candidate, got %d", result.Total)
	}
	if result.Matches[0].UserID != creator.UserID {
		t.Fatalf("expected creator candidate, got %s", result.Matches[0].UserID)
	}
}

func TestRankMatches_UnknownRole(t *testing.T) {
	seeker := scoring.Profile{UserID: uuid.New()}
	profiles := &fakeProfiles{seeker: seeker}

	svc := New(profiles, &captureRecorder{}, logger.New("development"))
	_, err := svc.RankMatches(context.Background(), seeker.UserID)
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}
