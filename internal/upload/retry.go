package upload

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog"

	"github.com/workplus/workplus/internal/activitylog"
	"github.com/workplus/workplus/internal/metrics"
	"github.com/workplus/workplus/internal/models"
	"github.com/workplus/workplus/internal/schedule"
)

// SweepResult summarises one pass over the failed queue
type SweepResult struct {
	Attempted int
	Delivered int
	Failed    int
	Skipped   bool
	Busy      bool
}

// RetryScheduler drains the failed queue through the Uploader. Retries are
// unbounded and carry no backoff beyond the sweep interval.
type RetryScheduler struct {
	log      zerolog.Logger
	uploader *Uploader
	queue    *FailedQueue
	probe    Prober
	activity *activitylog.Logger
	metrics  metrics.Recorder

	guard schedule.Guard
}

func NewRetryScheduler(log zerolog.Logger, uploader *Uploader, queue *FailedQueue, probe Prober, activity *activitylog.Logger, rec metrics.Recorder) *RetryScheduler {
	return &RetryScheduler{
		log:      log,
		uploader: uploader,
		queue:    queue,
		probe:    probe,
		activity: activity,
		metrics:  rec,
	}
}

// Sweep retries every queued artifact once, sequentially. Without
// connectivity it returns Skipped and leaves the queue untouched.
func (r *RetryScheduler) Sweep(ctx context.Context) SweepResult {
	if !r.guard.TryEnter() {
		return SweepResult{Busy: true}
	}
	defer r.guard.Leave()

	var res SweepResult

	if err := r.probe.Reachable(ctx); err != nil {
		r.log.Info().Err(err).Msg("retry sweep skipped")
		r.activity.Append("Retry skipped: no internet connectivity")
		res.Skipped = true
		r.metrics.IncRetrySweeps("skipped")
		return res
	}

	queued, err := r.queue.List()
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to list failed queue")
		r.metrics.IncRetrySweeps("error")
		return res
	}

	for _, a := range queued {
		if ctx.Err() != nil {
			break
		}

		active, err := r.queue.Dequeue(a)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				r.log.Warn().Err(err).Str("file", a.Name()).Msg("failed to dequeue screenshot")
			}
			continue
		}

		res.Attempted++
		switch r.uploader.upload(ctx, active, models.SourceRetry).Outcome {
		case Delivered:
			res.Delivered++
		case Failed:
			res.Failed++
		}
	}

	if res.Attempted > 0 {
		r.activity.Appendf("Retry sweep: %d attempted, %d delivered, %d failed", res.Attempted, res.Delivered, res.Failed)
	}
	r.metrics.IncRetrySweeps(sweepLabel(res))
	r.metrics.SetQueueDepth(r.queue.Len())
	return res
}

// Run is the schedule.Task body
func (r *RetryScheduler) Run(ctx context.Context) {
	res := r.Sweep(ctx)
	if res.Busy {
		r.log.Debug().Msg("retry sweep already in flight")
		return
	}
	r.log.Debug().
		Int("attempted", res.Attempted).
		Int("delivered", res.Delivered).
		Int("failed", res.Failed).
		Bool("skipped", res.Skipped).
		Msg("retry sweep finished")
}

func sweepLabel(res SweepResult) string {
	switch {
	case res.Delivered+res.Failed == 0:
		return "empty"
	case res.Failed == 0:
		return "delivered"
	case res.Delivered == 0:
		return "failed"
	default:
		return "partial"
	}
}
