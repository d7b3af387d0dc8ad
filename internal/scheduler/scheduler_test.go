package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/keirin-ingest/internal/config"
)

func TestCompileTriggers_RejectsMalformedTime(t *testing.T) {
	_, err := compileTriggers([]config.Trigger{{Time: "not-a-time", Steps: []int{1}, Enabled: true}})
	assert.Error(t, err)
}

func TestTick_FiresEnabledTriggerAtItsMinute(t *testing.T) {
	var fired int32
	var mu sync.Mutex
	var gotSteps []int

	s := New(func(ctx context.Context, steps []int) error {
		atomic.AddInt32(&fired, 1)
		mu.Lock()
		gotSteps = steps
		mu.Unlock()
		return nil
	})

	compiled, err := compileTriggers([]config.Trigger{
		{Time: "09:30", Steps: []int{2, 3}, Enabled: true},
	})
	require.NoError(t, err)
	s.triggers = compiled

	now := time.Date(2024, 9, 1, 9, 30, 0, 0, time.UTC)
	s.tick(context.Background(), now)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, time.Second, time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{2, 3}, gotSteps)
}

func TestTick_SkipsDisabledTrigger(t *testing.T) {
	var fired int32
	s := New(func(ctx context.Context, steps []int) error {
		atomic.AddInt32(&fired, 1)
		return nil
	})
	compiled, err := compileTriggers([]config.Trigger{
		{Time: "09:30", Steps: []int{1}, Enabled: false},
	})
	require.NoError(t, err)
	s.triggers = compiled

	now := time.Date(2024, 9, 1, 9, 30, 0, 0, time.UTC)
	s.tick(context.Background(), now)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestTick_SkipsWhenRunAlreadyInProgress(t *testing.T) {
	var fired int32
	s := New(func(ctx context.Context, steps []int) error {
		atomic.AddInt32(&fired, 1)
		return nil
	})
	compiled, err := compileTriggers([]config.Trigger{
		{Time: "09:30", Steps: []int{1}, Enabled: true},
	})
	require.NoError(t, err)
	s.triggers = compiled
	s.running = true

	now := time.Date(2024, 9, 1, 9, 30, 0, 0, time.UTC)
	s.tick(context.Background(), now)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestTick_DedupsSameMinute(t *testing.T) {
	var fired int32
	s := New(func(ctx context.Context, steps []int) error {
		atomic.AddInt32(&fired, 1)
		return nil
	})
	compiled, err := compileTriggers([]config.Trigger{
		{Time: "09:30", Steps: []int{1}, Enabled: true},
	})
	require.NoError(t, err)
	s.triggers = compiled

	now := time.Date(2024, 9, 1, 9, 30, 0, 0, time.UTC)
	s.tick(context.Background(), now)
	s.tick(context.Background(), now)

	require.Eventually(t, func() bool { return atomic.LoadInt32(&fired) >= 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestRunNow_RunsImmediatelyWithoutWaitingForTick(t *testing.T) {
	var fired int32
	s := New(func(ctx context.Context, steps []int) error {
		atomic.AddInt32(&fired, 1)
		return nil
	})

	err := s.RunNow(context.Background(), []int{4})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestStartStop_LoopExitsCleanly(t *testing.T) {
	s := New(func(ctx context.Context, steps []int) error { return nil })
	ctx := context.Background()
	s.Start(ctx)
	s.Stop()
}
