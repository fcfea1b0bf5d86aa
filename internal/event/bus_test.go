package event

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startBus(t *testing.T, ctx context.Context, b *Bus) {
	t.Helper()
	go func() {
		_ = b.Start(ctx)
	}()
	select {
	case <-b.Running():
	case <-time.After(2 * time.Second):
		t.Fatal("router did not start within timeout")
	}
}

func TestBus_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := NewBus()
	require.NoError(t, err)
	defer b.Stop()

	handled := make(chan ScheduleRecomputedData, 1)

	// Handlers must be registered before the router starts.
	b.Subscribe(ScheduleRecomputed, "test_handler", func(msg *message.Message) error {
		var eventMsg EventMessage
		if err := json.Unmarshal(msg.Payload, &eventMsg); err != nil {
			return err
		}
		var data ScheduleRecomputedData
		if err := json.Unmarshal(eventMsg.Data, &data); err != nil {
			return err
		}
		handled <- data
		return nil
	})

	startBus(t, ctx, b)

	err = b.Publish(ctx, "test_source", ScheduleRecomputedData{
		TaskCount:         12,
		ConflictCount:     2,
		TotalDurationDays: 40,
	})
	require.NoError(t, err)

	select {
	case data := <-handled:
		assert.Equal(t, 12, data.TaskCount)
		assert.Equal(t, 2, data.ConflictCount)
		assert.Equal(t, 40, data.TotalDurationDays)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not handled within timeout")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := NewBus()
	require.NoError(t, err)
	defer b.Stop()

	handled1 := make(chan bool, 1)
	handled2 := make(chan bool, 1)

	b.Subscribe(TaskMoved, "handler1", func(msg *message.Message) error {
		handled1 <- true
		return nil
	})
	b.Subscribe(TaskMoved, "handler2", func(msg *message.Message) error {
		handled2 <- true
		return nil
	})

	startBus(t, ctx, b)

	err = b.Publish(ctx, "test_source", TaskMovedData{TaskID: "t1", NewParentID: "p1"})
	require.NoError(t, err)

	select {
	case <-handled1:
	case <-time.After(2 * time.Second):
		t.Fatal("first handler did not receive event")
	}
	select {
	case <-handled2:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler did not receive event")
	}
}

func TestBus_SubscribeTyped(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := NewBus()
	require.NoError(t, err)
	defer b.Stop()

	handled := make(chan *Event[ConflictsDetectedData], 1)
	SubscribeTyped(b, ConflictsFound, "typed_handler", func(ctx context.Context, ev *Event[ConflictsDetectedData]) error {
		handled <- ev
		return nil
	})

	startBus(t, ctx, b)

	err = b.Publish(ctx, "engine", ConflictsDetectedData{
		TaskIDs:      []string{"a", "b"},
		HighSeverity: 1,
		Total:        3,
	})
	require.NoError(t, err)

	select {
	case ev := <-handled:
		assert.Equal(t, "engine", ev.Source)
		assert.Equal(t, []string{"a", "b"}, ev.Data.TaskIDs)
		assert.Equal(t, 1, ev.Data.HighSeverity)
		assert.Equal(t, 3, ev.Data.Total)
		assert.NotEmpty(t, ev.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("typed event was not handled within timeout")
	}
}

func TestBus_HandlerPanicDoesNotStopRouter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := NewBus()
	require.NoError(t, err)
	defer b.Stop()

	var panicked atomic.Bool
	b.Subscribe(PlanReloaded, "panicking_handler", func(msg *message.Message) error {
		if panicked.CompareAndSwap(false, true) {
			panic("handler blew up")
		}
		return nil
	})

	handled := make(chan bool, 1)
	b.Subscribe(PlanReloaded, "healthy_handler", func(msg *message.Message) error {
		handled <- true
		return nil
	})

	startBus(t, ctx, b)

	err = b.Publish(ctx, "test_source", PlanReloadedData{Path: "plan.yaml", TaskCount: 1})
	require.NoError(t, err)

	select {
	case <-handled:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy handler did not receive event")
	}
	assert.True(t, panicked.Load())
}

func TestBus_StartStop(t *testing.T) {
	b, err := NewBus()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	startBus(t, ctx, b)
	require.NoError(t, b.Stop())
}
