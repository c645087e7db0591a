package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	s := NewScheduler(nil)
	var runs atomic.Int32
	s.AddJob("count", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_AddAfterStartAndRemove(t *testing.T) {
	s := NewScheduler(nil)
	s.Start()
	defer s.Stop()

	var runs atomic.Int32
	s.AddJob("late", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Has("late"))
	assert.Equal(t, []string{"late"}, s.Jobs())

	assert.True(t, s.RemoveJob("late"))
	assert.False(t, s.Has("late"))
	assert.False(t, s.RemoveJob("late"))
}

func TestScheduler_RemoveCancelsJobContext(t *testing.T) {
	s := NewScheduler(nil)
	s.Start()
	defer s.Stop()

	started := make(chan struct{})
	var cancelled atomic.Bool
	s.AddJob("blocking", time.Hour, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})
	<-started

	s.RemoveJob("blocking")
	assert.True(t, cancelled.Load(), "RemoveJob waits for the running job to observe cancellation")
}

func TestScheduler_ReplaceSameName(t *testing.T) {
	s := NewScheduler(nil)
	var first, second atomic.Int32
	s.AddJob("job", time.Hour, func(context.Context) error { first.Add(1); return nil })
	s.AddJob("job", time.Hour, func(context.Context) error { second.Add(1); return nil })

	s.RunOnce(context.Background())

	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, int32(1), second.Load())
}
