// Package schedule runs independent periodic tasks, each on its own ticker.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/remeh/sizedwaitgroup"
	"github.com/rs/zerolog"
)

// Task is one periodic job
type Task struct {
	Name       string
	Interval   time.Duration
	RunAtStart bool
	Run        func(ctx context.Context)
}

// Runner drives a set of tasks. A tick that arrives while the previous run
// of the same task is still in flight is dropped.
type Runner struct {
	log    zerolog.Logger
	tasks  []Task
	onDrop func(task string)
}

func NewRunner(log zerolog.Logger, tasks ...Task) *Runner {
	return &Runner{log: log, tasks: tasks}
}

// OnDrop registers a callback invoked for every dropped tick.
func (r *Runner) OnDrop(fn func(task string)) {
	r.onDrop = fn
}

// Run blocks until ctx is cancelled, then waits for in-flight runs to
// return. Runs see the same ctx and are expected to honour its cancellation.
func (r *Runner) Run(ctx context.Context) error {
	for _, t := range r.tasks {
		if t.Interval <= 0 {
			return fmt.Errorf("task %s: interval must be positive, got %v", t.Name, t.Interval)
		}
		if t.Run == nil {
			return fmt.Errorf("task %s: nil run function", t.Name)
		}
	}

	// every task holds at most one in-flight run
	inflight := sizedwaitgroup.New(max(len(r.tasks), 1))

	var loops sync.WaitGroup
	for _, t := range r.tasks {
		loops.Add(1)
		go func(t Task) {
			defer loops.Done()
			r.loop(ctx, t, &inflight)
		}(t)
	}

	loops.Wait()
	inflight.Wait()
	r.log.Debug().Msg("all tasks stopped")
	return ctx.Err()
}

func (r *Runner) loop(ctx context.Context, t Task, inflight *sizedwaitgroup.SizedWaitGroup) {
	var guard Guard
	log := r.log.With().Str("task", t.Name).Logger()

	fire := func() {
		if !guard.TryEnter() {
			log.Debug().Msg("previous run still in flight, tick dropped")
			if r.onDrop != nil {
				r.onDrop(t.Name)
			}
			return
		}

		inflight.Add()
		go func() {
			defer inflight.Done()
			defer guard.Leave()
			defer func() {
				if p := recover(); p != nil {
					log.Error().Interface("panic", p).Msg("task panicked")
				}
			}()
			t.Run(ctx)
		}()
	}

	log.Debug().Dur("interval", t.Interval).Msg("task scheduled")

	if t.RunAtStart {
		fire()
	}

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fire()
		}
	}
}
