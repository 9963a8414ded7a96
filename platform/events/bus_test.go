package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"collabmatch_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var calls atomic.Int64
	handler := HandlerFunc(func(ctx context.Context, event Event) error {
		calls.Add(1)
		return nil
	})

	bus.Subscribe("thing.happened", handler)
	bus.Subscribe("thing.happened", handler)
	bus.Subscribe("other.happened", handler)

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})
	bus.Wait()

	if got := calls.Load(); got != 2 {
		t.Fatalf("handler calls = %d, want 2", got)
	}
}

func TestPublishSurvivesHandlerPanic(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var delivered atomic.Bool
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		panic("boom")
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		delivered.Store(true)
		return nil
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})
	bus.Wait()

	if !delivered.Load() {
		t.Fatal("panicking handler blocked delivery to the other subscriber")
	}
}

func TestPublishDetachesFromRequestContext(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	ctxErr := make(chan error, 1)
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		ctxErr <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})
	bus.Wait()

	if err := <-ctxErr; err != nil {
		t.Fatalf("handler saw cancelled context: %v", err)
	}
}

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	wantErr := errors.New("handler failed")
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		return wantErr
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, event Event) error {
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("PublishSync error = %v, want to wrap %v", err, wantErr)
	}
}
