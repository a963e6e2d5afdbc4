package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type pinged struct {
	BaseEvent
}

func (pinged) EventName() string { return "test.pinged" }

func TestPublishSyncRunsHandlersInOrder(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var order []int
	bus.Subscribe("test.pinged", HandlerFunc(func(ctx context.Context, e Event) error {
		order = append(order, 1)
		return nil
	}))
	bus.Subscribe("test.pinged", HandlerFunc(func(ctx context.Context, e Event) error {
		order = append(order, 2)
		return errors.New("second failed")
	}))
	bus.Subscribe("test.other", HandlerFunc(func(ctx context.Context, e Event) error {
		t.Fatal("handler for another event must not run")
		return nil
	}))

	err := bus.PublishSync(context.Background(), pinged{NewBaseEvent()})
	if err == nil || err.Error() != "second failed" {
		t.Fatalf("expected joined handler error, got %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected handler order %v", order)
	}
}

func TestPublishRecoversPanics(t *testing.T) {
	bus := NewInMemoryBus(nil)
	var calls atomic.Int32
	bus.Subscribe("test.pinged", HandlerFunc(func(ctx context.Context, e Event) error {
		calls.Add(1)
		panic("boom")
	}))
	bus.Subscribe("test.pinged", HandlerFunc(func(ctx context.Context, e Event) error {
		calls.Add(1)
		return nil
	}))

	bus.Publish(context.Background(), pinged{NewBaseEvent()})
	bus.Wait()

	if calls.Load() != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls.Load())
	}

	err := bus.PublishSync(context.Background(), pinged{NewBaseEvent()})
	if err == nil {
		t.Fatal("expected panic to surface as an error")
	}
}
