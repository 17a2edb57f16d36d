// Package agent runs the detector, the capture pipeline and the retry sweep
// on their own timers.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/workplus/workplus/internal/activitylog"
	"github.com/workplus/workplus/internal/capture"
	"github.com/workplus/workplus/internal/config"
	"github.com/workplus/workplus/internal/database"
	"github.com/workplus/workplus/internal/identity"
	"github.com/workplus/workplus/internal/metrics"
	"github.com/workplus/workplus/internal/models"
	"github.com/workplus/workplus/internal/reporting"
	"github.com/workplus/workplus/internal/schedule"
	"github.com/workplus/workplus/internal/status"
	"github.com/workplus/workplus/internal/upload"
	"github.com/workplus/workplus/internal/web"
)

const (
	shutdownTimeout = 5 * time.Second
	dailyInterval   = time.Hour
)

// Deps are the components an Agent drives. Web may be nil.
type Deps struct {
	Log      zerolog.Logger
	Config   *config.Config
	Detector *status.Detector
	Pipeline *capture.Pipeline
	Identity *identity.Resolver
	Queue    *upload.FailedQueue
	Retry    *upload.RetryScheduler
	Activity *activitylog.Logger
	Janitor  *activitylog.Janitor
	Gap      *reporting.GapReporter
	Daily    *reporting.DailyActivityReporter
	Repo     *database.Repository
	Metrics  metrics.Recorder
	Web      *web.Server
}

type Agent struct {
	Deps
	log zerolog.Logger
}

// New registers the transition sinks and returns a ready Agent
func New(deps Deps) *Agent {
	a := &Agent{Deps: deps, log: deps.Log.With().Str("component", "agent").Logger()}

	a.Detector.AddSink(a.Activity)
	a.Detector.AddSink(a.Gap)
	a.Detector.AddSink(status.SinkFunc(func(_ context.Context, tr status.Transition) error {
		a.Metrics.IncTransitions(tr.Current.String())
		return nil
	}))
	a.Detector.AddSink(a.Daily)
	if a.Config.Screenshot.Enabled && a.Config.Screenshot.OnTransition {
		a.Detector.AddSink(a.Pipeline)
	}

	return a
}

// Tasks returns the periodic jobs of the agent
func (a *Agent) Tasks() []schedule.Task {
	tasks := []schedule.Task{
		{Name: "status", Interval: a.Config.Status.PollInterval, Run: a.Detector.Run},
		{Name: "retry", Interval: a.Config.Retry.Interval, Run: a.Retry.Run},
		{Name: "janitor", Interval: a.Config.Logs.CleanupInterval, RunAtStart: true, Run: a.cleanup},
		{Name: "daily-activity", Interval: dailyInterval, RunAtStart: true, Run: a.reportDaily},
	}
	if a.Config.Screenshot.Enabled {
		tasks = append(tasks, schedule.Task{Name: "screenshot", Interval: a.Config.Screenshot.Interval, RunAtStart: true, Run: a.Pipeline.Run})
	}
	return tasks
}

// Run blocks until ctx is cancelled. Orphaned artifacts are recovered before
// any timer starts.
func (a *Agent) Run(ctx context.Context) error {
	a.recoverOrphans()
	a.journalMarker(models.StatusStopped, status.Online.String())
	a.Activity.Append("Agent started")

	serverErr := make(chan error, 1)
	if a.Web != nil {
		a.Activity.Appendf("Status API listening on http://%s", a.Web.GetAddress())
		go func() {
			serverErr <- a.Web.Start()
		}()
	}

	runner := schedule.NewRunner(a.log, a.Tasks()...)
	runner.OnDrop(a.Metrics.IncDroppedTicks)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- runner.Run(runCtx)
	}()

	var err error
	select {
	case err = <-runErr:
	case serr := <-serverErr:
		if serr != nil {
			a.log.Error().Err(serr).Msg("status API stopped")
		}
		err = <-runErr
	}

	a.Pipeline.Wait()
	a.shutdownWeb()

	a.journalMarker(a.Detector.Snapshot().Status.String(), models.StatusStopped)
	a.Activity.Append("Agent stopped")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Reload drops cached settings read from disk, currently the identity
func (a *Agent) Reload() {
	a.Identity.Invalidate()
	a.log.Info().Str("identity", a.Identity.Email()).Msg("identity reloaded")
	a.Activity.Append("Identity reloaded")
}

func (a *Agent) recoverOrphans() {
	n, err := a.Queue.RecoverOrphans()
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to recover orphaned screenshots")
		return
	}
	if n > 0 {
		a.log.Info().Int("count", n).Msg("moved orphaned screenshots to failed queue")
		a.Activity.Appendf("Recovered %d orphaned screenshot(s) into the failed queue", n)
	}
	a.Metrics.SetQueueDepth(a.Queue.Len())
}

// journalMarker records agent start and stop so reports do not count
// downtime as online or offline
func (a *Agent) journalMarker(previous, current string) {
	err := a.Repo.RecordTransition(&models.StatusEvent{
		Timestamp: time.Now(),
		Status:    current,
		Previous:  previous,
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to journal lifecycle marker")
	}
}

// reportDaily covers agent start and a day rollover without a transition.
// Reporting is idempotent per day.
func (a *Agent) reportDaily(ctx context.Context) {
	if a.Detector.Snapshot().Status != status.Online {
		return
	}
	if err := a.Daily.Report(ctx); err != nil {
		a.log.Warn().Err(err).Msg("daily activity report failed")
	}
}

func (a *Agent) cleanup(ctx context.Context) {
	a.Janitor.Run(ctx)

	cutoff := time.Now().AddDate(0, 0, -a.Config.Logs.RetentionDays)
	n, err := a.Repo.DeleteOlderThan(cutoff)
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to prune journal")
		return
	}
	if n > 0 {
		a.log.Info().Int64("rows", n).Msg("pruned journal")
	}
}

func (a *Agent) shutdownWeb() {
	if a.Web == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Web.Shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("status API shutdown failed")
	}
}
