package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const claimBatchSize = 50

// TaskSource hands out due tasks, each at most once.
type TaskSource interface {
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Task, error)
}

// Worker polls the task source and dispatches claimed tasks to
// registered handlers by name.
type Worker struct {
	sched    TaskSource
	interval time.Duration
	handlers map[string]HandlerFunc
	log      zerolog.Logger
}

func NewWorker(sched TaskSource, interval time.Duration, log zerolog.Logger) *Worker {
	return &Worker{
		sched:    sched,
		interval: interval,
		handlers: make(map[string]HandlerFunc),
		log:      log,
	}
}

// Register binds a handler name to a function. Must be called before Run.
func (w *Worker) Register(name string, fn HandlerFunc) {
	w.handlers[name] = fn
}

// Run polls until ctx is done. One poll runs at startup so restarts do
// not wait a full interval to drain overdue tasks.
func (w *Worker) Run(ctx context.Context) {
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("scheduler worker stopping")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	tasks, err := w.sched.ClaimDue(runCtx, time.Now(), claimBatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("claim due tasks failed")
		return
	}

	for _, task := range tasks {
		fn, ok := w.handlers[task.Handler]
		if !ok {
			w.log.Warn().
				Str("task_id", task.ID).
				Str("handler", task.Handler).
				Msg("no handler registered for claimed task, dropping")
			continue
		}

		start := time.Now()
		if err := fn(runCtx, task.Payload); err != nil {
			w.log.Error().Err(err).
				Str("task_id", task.ID).
				Str("handler", task.Handler).
				Msg("task handler failed")
			continue
		}
		w.log.Info().
			Str("task_id", task.ID).
			Str("handler", task.Handler).
			Dur("duration", time.Since(start)).
			Msg("task executed")
	}
}
