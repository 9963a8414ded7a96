// Package history persists computed match scores and aggregates them into
// trend analytics. Recording is strictly best-effort: a failed write retries
// with backoff, then is logged and dropped, and is never visible to the
// ranking caller.
package history

import (
	"context"
	"sync"
	"time"

	"collabmatch_backend/internal/matching/scoring"
	"collabmatch_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Record is one appended match-history row. Records are never updated or
// deleted by this package.
type Record struct {
	ID          uuid.UUID          `json:"id"`
	UserID      uuid.UUID          `json:"userId"`
	MatchUserID uuid.UUID          `json:"matchUserId"`
	Score       int                `json:"score"`
	Factors     scoring.Factors    `json:"factors"`
	UserWeights map[string]float64 `json:"userWeights,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// Store is the persistence port for match history.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]Record, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]Record, error)
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]Record, error)
	TopByScore(ctx context.Context, userID uuid.UUID, limit int) ([]Record, error)
}

const (
	recordAttempts      = 3
	defaultBaseDelay    = 100 * time.Millisecond
	recordTimeout       = 10 * time.Second
	maxConcurrentWrites = 64
)

// Recorder appends match records asynchronously with bounded retry.
type Recorder struct {
	store     Store
	log       *logger.Logger
	baseDelay time.Duration
	sem       *semaphore.Weighted
	wg        sync.WaitGroup
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store, log *logger.Logger) *Recorder {
	return &Recorder{
		store:     store,
		log:       log,
		baseDelay: defaultBaseDelay,
		sem:       semaphore.NewWeighted(maxConcurrentWrites),
	}
}

// Record appends rec on a detached goroutine and returns immediately. Up to
// three attempts are made with exponential backoff (base × 2^attempt); after
// exhaustion the failure is logged and swallowed. Callers never observe an
// error from this path.
func (r *Recorder) Record(rec Record) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := r.sem.Acquire(ctx, 1); err != nil {
			r.log.BestEffortFailure("match history write slot", err, "userId", rec.UserID)
			return
		}
		defer r.sem.Release(1)

		var lastErr error
		for attempt := 0; attempt < recordAttempts; attempt++ {
			if lastErr = r.store.Insert(ctx, rec); lastErr == nil {
				return
			}

			select {
			case <-ctx.Done():
				r.log.BestEffortFailure("match history insert", ctx.Err(), "userId", rec.UserID)
				return
			case <-time.After(r.baseDelay << attempt):
			}
		}

		r.log.BestEffortFailure("match history insert", lastErr,
			"userId", rec.UserID, "matchUserId", rec.MatchUserID, "attempts", recordAttempts)
	}()
}

// Wait blocks until all in-flight writes have finished. Used on shutdown and
// in tests.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
