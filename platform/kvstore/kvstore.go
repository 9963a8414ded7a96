// Package kvstore provides a key-value store abstraction with TTL semantics.
// Rate limiting and other shared counters go through this interface so
// multi-instance deployments can point it at a shared Redis instead of
// process-local maps.
package kvstore

import (
	"context"
	"time"
)

// Store is a key-value store with per-key expiry.
type Store interface {
	// Get returns the value for key. The second return is false if the key
	// is absent or expired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Incr atomically increments the counter at key and returns the new
	// value. The ttl is applied when the key is first created, giving
	// fixed-window counting semantics.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Delete removes key.
	Delete(ctx context.Context, key string) error
}
