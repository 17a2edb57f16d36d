package status

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/workplus/workplus/internal/schedule"
	"github.com/workplus/workplus/pkg/desktop"
)

var (
	// ErrBusy is returned by Tick when another evaluation is in flight
	ErrBusy = errors.New("status: evaluation already in flight")

	// ErrSuppressed is returned by Tick during quiet hours
	ErrSuppressed = errors.New("status: suppressed by quiet hours")
)

// Suppressor decides whether evaluation is skipped at a given instant
type Suppressor interface {
	ShouldSuppress(now time.Time) bool
}

// Snapshot is a consistent copy of the detector state
type Snapshot struct {
	Status     Status
	Since      time.Time
	LastIdle   time.Duration
	LastSample time.Time
}

// Detector converts idle samples into transitions. Its state starts Online
// at construction time.
type Detector struct {
	log       zerolog.Logger
	source    desktop.IdleSource
	policy    Suppressor
	threshold time.Duration
	now       func() time.Time
	sinks     []Sink

	guard schedule.Guard

	mu         sync.RWMutex
	current    Status
	changedAt  time.Time
	lastIdle   time.Duration
	lastSample time.Time
}

// Option customises a Detector
type Option func(*Detector)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithSinks appends transition sinks, called in order
func WithSinks(sinks ...Sink) Option {
	return func(d *Detector) { d.sinks = append(d.sinks, sinks...) }
}

func NewDetector(log zerolog.Logger, source desktop.IdleSource, policy Suppressor, threshold time.Duration, opts ...Option) *Detector {
	d := &Detector{
		log:       log,
		source:    source,
		policy:    policy,
		threshold: threshold,
		now:       time.Now,
		current:   Online,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.changedAt = d.now()
	return d
}

// AddSink registers another sink. Not safe to call concurrently with Tick.
func (d *Detector) AddSink(s Sink) {
	d.sinks = append(d.sinks, s)
}

// Tick runs one evaluation. It returns the emitted transition, or nil when
// the status did not change.
func (d *Detector) Tick(ctx context.Context) (*Transition, error) {
	if !d.guard.TryEnter() {
		return nil, ErrBusy
	}
	defer d.guard.Leave()

	now := d.now()
	if d.policy != nil && d.policy.ShouldSuppress(now) {
		return nil, ErrSuppressed
	}

	idle, err := d.source.IdleTime()
	if err != nil {
		return nil, fmt.Errorf("failed to sample idle time: %w", err)
	}

	candidate := Candidate(idle, d.threshold)

	d.mu.Lock()
	d.lastIdle = idle
	d.lastSample = now
	if candidate == d.current {
		d.mu.Unlock()
		return nil, nil
	}

	tr := Transition{
		Previous:   d.current,
		Current:    candidate,
		At:         now,
		InPrevious: now.Sub(d.changedAt),
	}
	d.current = candidate
	d.changedAt = now
	d.mu.Unlock()

	d.log.Info().
		Str("from", tr.Previous.String()).
		Str("to", tr.Current.String()).
		Dur("idle", idle).
		Dur("in_previous", tr.InPrevious).
		Msg("status changed")

	for _, s := range d.sinks {
		if err := s.OnTransition(ctx, tr); err != nil {
			d.log.Warn().Err(err).Str("to", tr.Current.String()).Msg("transition sink failed")
		}
	}

	return &tr, nil
}

// Run is the schedule.Task body: Tick with logging only
func (d *Detector) Run(ctx context.Context) {
	if _, err := d.Tick(ctx); err != nil {
		switch {
		case errors.Is(err, ErrSuppressed):
			d.log.Trace().Msg("status evaluation skipped in quiet hours")
		case errors.Is(err, ErrBusy):
			d.log.Debug().Msg("status evaluation dropped")
		default:
			d.log.Warn().Err(err).Msg("status evaluation failed")
		}
	}
}

// Snapshot returns the current state
func (d *Detector) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot{
		Status:     d.current,
		Since:      d.changedAt,
		LastIdle:   d.lastIdle,
		LastSample: d.lastSample,
	}
}
