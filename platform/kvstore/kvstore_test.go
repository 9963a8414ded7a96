package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// storeUnderTest runs the Store contract against an implementation.
func storeUnderTest(t *testing.T, store Store, advance func(d time.Duration)) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v, want absent", ok, err)
	}

	if err := store.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || val != "v" {
		t.Fatalf("Get(k) = %q ok=%v err=%v, want v", val, ok, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("key survived Delete")
	}

	for want := int64(1); want <= 3; want++ {
		got, err := store.Incr(ctx, "counter", time.Minute)
		if err != nil {
			t.Fatalf("Incr failed: %v", err)
		}
		if got != want {
			t.Fatalf("Incr = %d, want %d", got, want)
		}
	}

	if err := store.Set(ctx, "short", "x", 50*time.Millisecond); err != nil {
		t.Fatalf("Set with ttl failed: %v", err)
	}
	advance(time.Second)
	if _, ok, _ := store.Get(ctx, "short"); ok {
		t.Fatal("key survived its ttl")
	}

	// Counter window also expires, resetting the count.
	advance(time.Minute)
	got, err := store.Incr(ctx, "counter", time.Minute)
	if err != nil {
		t.Fatalf("Incr after expiry failed: %v", err)
	}
	if got != 1 {
		t.Fatalf("Incr after expiry = %d, want 1", got)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	now := time.Now()
	store.now = func() time.Time { return now }

	storeUnderTest(t, store, func(d time.Duration) {
		now = now.Add(d)
	})
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(client)
	defer store.Close()

	storeUnderTest(t, store, func(d time.Duration) {
		mr.FastForward(d)
	})
}

func TestRedisStoreIncrKeepsFirstWindow(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(client)
	defer store.Close()

	ctx := context.Background()

	if _, err := store.Incr(ctx, "win", time.Minute); err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	mr.FastForward(30 * time.Second)

	// A second increment must not push the window forward.
	if _, err := store.Incr(ctx, "win", time.Minute); err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	mr.FastForward(31 * time.Second)

	got, err := store.Incr(ctx, "win", time.Minute)
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if got != 1 {
		t.Fatalf("count after window expiry = %d, want 1 (window was extended)", got)
	}
}
