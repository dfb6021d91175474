package planner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/tierplan/pkg/catalog"
)

// Task is a solve running in the background.
type Task struct {
	id      uuid.UUID
	started time.Time
	done    chan struct{}

	// Written once before done is closed.
	plan     *Plan
	err      error
	finished time.Time
}

// Start runs [Solve] on a new goroutine and returns immediately. Canceling
// ctx cancels the solve the same way it does for Solve.
func Start(ctx context.Context, cat *catalog.Catalog, goals []Goal, roots []catalog.GoodID, opts Options) *Task {
	return Go(ctx, func(ctx context.Context) (*Plan, error) {
		return Solve(ctx, cat, goals, roots, opts)
	})
}

// Go runs fn as a task. Callers that wrap Solve (with caching, say) use it
// to get the same future semantics as [Start].
func Go(ctx context.Context, fn func(context.Context) (*Plan, error)) *Task {
	t := &Task{
		id:      uuid.New(),
		started: time.Now(),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		t.plan, t.err = fn(ctx)
		t.finished = time.Now()
	}()
	return t
}

// ID identifies the task.
func (t *Task) ID() uuid.UUID { return t.id }

// Started returns when the task was created.
func (t *Task) Started() time.Time { return t.started }

// Done is closed once the solve has finished.
func (t *Task) Done() <-chan struct{} { return t.done }

// Finished reports whether the solve has finished without blocking.
func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the solve finishes or ctx ends. Ending ctx only stops
// the wait, not the solve.
func (t *Task) Wait(ctx context.Context) (*Plan, error) {
	select {
	case <-t.done:
		return t.plan, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Duration returns how long the solve took, or how long it has been running.
func (t *Task) Duration() time.Duration {
	if t.Finished() {
		return t.finished.Sub(t.started)
	}
	return time.Since(t.started)
}
