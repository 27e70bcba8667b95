package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a canned batch on the first claim, then nothing.
type fakeSource struct {
	mu     sync.Mutex
	batch  []Task
	claims int
	err    error
}

func (f *fakeSource) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims++
	if f.err != nil {
		return nil, f.err
	}
	out := f.batch
	f.batch = nil
	return out, nil
}

func task(id, handler, payload string) Task {
	return Task{
		ID:      id,
		Handler: handler,
		Payload: json.RawMessage(payload),
		FireAt:  time.Now().Add(-time.Minute),
	}
}

func TestWorker_DispatchesByHandlerName(t *testing.T) {
	src := &fakeSource{batch: []Task{
		task("t1", "visit.complete", `{"n":1}`),
		task("t2", "visit.remind", `{"n":2}`),
		task("t3", "visit.complete", `{"n":3}`),
	}}

	var mu sync.Mutex
	var completed, reminded []string

	w := NewWorker(src, time.Hour, zerolog.Nop())
	w.Register("visit.complete", func(ctx context.Context, payload json.RawMessage) error {
		mu.Lock()
		defer mu.Unlock()
		completed = append(completed, string(payload))
		return nil
	})
	w.Register("visit.remind", func(ctx context.Context, payload json.RawMessage) error {
		mu.Lock()
		defer mu.Unlock()
		reminded = append(reminded, string(payload))
		return nil
	})

	w.runOnce(context.Background())

	assert.Equal(t, []string{`{"n":1}`, `{"n":3}`}, completed)
	assert.Equal(t, []string{`{"n":2}`}, reminded)
}

func TestWorker_DropsTasksWithoutHandler(t *testing.T) {
	src := &fakeSource{batch: []Task{
		task("t1", "unknown.handler", `{}`),
		task("t2", "visit.complete", `{}`),
	}}

	var calls int
	w := NewWorker(src, time.Hour, zerolog.Nop())
	w.Register("visit.complete", func(ctx context.Context, payload json.RawMessage) error {
		calls++
		return nil
	})

	w.runOnce(context.Background())

	assert.Equal(t, 1, calls, "the unknown task is dropped, the known one still runs")
}

func TestWorker_HandlerFailureDoesNotStopTheBatch(t *testing.T) {
	src := &fakeSource{batch: []Task{
		task("t1", "visit.complete", `{"n":1}`),
		task("t2", "visit.complete", `{"n":2}`),
	}}

	var calls int
	w := NewWorker(src, time.Hour, zerolog.Nop())
	w.Register("visit.complete", func(ctx context.Context, payload json.RawMessage) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("boom")
		}
		return nil
	})

	w.runOnce(context.Background())

	assert.Equal(t, 2, calls)
}

func TestWorker_RunPollsImmediatelyAndStopsOnCancel(t *testing.T) {
	src := &fakeSource{}
	w := NewWorker(src, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.claims >= 1
	}, time.Second, 10*time.Millisecond, "startup poll should not wait for the first tick")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestSchedule_RejectsPastFireTime(t *testing.T) {
	s := NewRedisScheduler(nil)

	_, err := s.Schedule(context.Background(), "visit.complete", map[string]int{"n": 1}, time.Now().Add(-time.Second))
	assert.ErrorIs(t, err, ErrFireTimeInPast)

	_, err = s.Schedule(context.Background(), "visit.complete", nil, time.Time{})
	assert.ErrorIs(t, err, ErrFireTimeInPast)
}

func TestCancel_EmptyHandleIsANoOp(t *testing.T) {
	s := NewRedisScheduler(nil)
	assert.NoError(t, s.Cancel(context.Background(), "", true))
}
