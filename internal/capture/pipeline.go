// Package capture takes screenshots and hands them to the upload stage.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/workplus/workplus/internal/activitylog"
	"github.com/workplus/workplus/internal/metrics"
	"github.com/workplus/workplus/internal/models"
	"github.com/workplus/workplus/internal/schedule"
	"github.com/workplus/workplus/internal/status"
	"github.com/workplus/workplus/pkg/desktop"
)

const (
	filePrefix = "screenshot_"
	fileExt    = ".png"
	timeLayout = "20060102_150405"
)

var (
	// ErrSuppressed means capture was skipped in quiet hours
	ErrSuppressed = errors.New("capture: suppressed by quiet hours")

	// ErrLocked means capture was skipped because the session is locked
	ErrLocked = errors.New("capture: session locked")
)

// Error is a failed capture
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Artifact is a screenshot on disk. Whoever holds it owns the file until it
// is deleted or moved on.
type Artifact struct {
	Path       string
	CreatedAt  time.Time
	OwnerEmail string
}

// Name returns the artifact's file name
func (a Artifact) Name() string {
	return filepath.Base(a.Path)
}

// IsArtifactName reports whether name looks like a screenshot file
func IsArtifactName(name string) bool {
	return strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileExt)
}

// Identity supplies the owner email stamped on new artifacts
type Identity interface {
	Email() string
}

// ErrorRecorder journals capture failures
type ErrorRecorder interface {
	RecordError(component, msg string) error
}

// Deps are the collaborators of a Pipeline. Locks, Journal and Deliver may
// be nil.
type Deps struct {
	Grabber  desktop.ScreenGrabber
	Locks    desktop.LockDetector
	Policy   status.Suppressor
	Identity Identity
	Activity *activitylog.Logger
	Journal  ErrorRecorder
	Metrics  metrics.Recorder
	Deliver  func(ctx context.Context, a Artifact)
}

// Pipeline writes screenshots into dir and passes each one to Deliver
type Pipeline struct {
	log  zerolog.Logger
	dir  string
	deps Deps
	now  func() time.Time

	guard    schedule.Guard
	triggers sync.WaitGroup
}

func NewPipeline(log zerolog.Logger, dir string, deps Deps) *Pipeline {
	return &Pipeline{log: log, dir: dir, deps: deps, now: time.Now}
}

// Dir returns the active artifact directory
func (p *Pipeline) Dir() string {
	return p.dir
}

// Capture writes one screenshot. It returns ErrSuppressed or ErrLocked
// without touching the filesystem when capture should be skipped.
func (p *Pipeline) Capture(ctx context.Context) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := p.now()
	if p.deps.Policy != nil && p.deps.Policy.ShouldSuppress(now) {
		return nil, ErrSuppressed
	}
	if p.deps.Locks != nil && p.deps.Locks.IsLocked() {
		return nil, ErrLocked
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, &Error{Op: "mkdir", Err: err}
	}

	path := filepath.Join(p.dir, FileName(now))
	if err := p.deps.Grabber.GrabScreen(path); err != nil {
		_ = os.Remove(path)
		return nil, &Error{Op: "grab", Err: err}
	}

	return &Artifact{
		Path:       path,
		CreatedAt:  now,
		OwnerEmail: p.deps.Identity.Email(),
	}, nil
}

// FileName returns screenshot_<yyyyMMdd_HHmmss>_<8 hex>.png. The random
// suffix keeps two captures in the same second apart.
func FileName(t time.Time) string {
	return fmt.Sprintf("%s%s_%s%s", filePrefix, t.Format(timeLayout), uuid.NewString()[:8], fileExt)
}

// Run is one capture cycle: capture, then hand off. Overlapping runs are
// dropped.
func (p *Pipeline) Run(ctx context.Context) {
	if !p.guard.TryEnter() {
		p.log.Debug().Msg("capture already in flight, skipping")
		return
	}
	defer p.guard.Leave()

	artifact, err := p.Capture(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrSuppressed), errors.Is(err, ErrLocked):
		p.log.Trace().Err(err).Msg("capture skipped")
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return
	default:
		p.fail(err)
		return
	}

	p.log.Debug().Str("file", artifact.Name()).Msg("screenshot captured")
	p.deps.Activity.Appendf("Screenshot captured: %s", artifact.Name())

	if p.deps.Deliver != nil {
		p.deps.Deliver(ctx, *artifact)
	}
}

func (p *Pipeline) fail(err error) {
	p.log.Warn().Err(err).Msg("screenshot capture failed")
	p.deps.Activity.Errorf("Screenshot capture failed: %v", err)
	p.deps.Metrics.IncCaptureErrors()

	if p.deps.Journal != nil {
		if jerr := p.deps.Journal.RecordError(models.ComponentCapture, err.Error()); jerr != nil {
			p.log.Warn().Err(jerr).Msg("failed to journal capture error")
		}
	}
}

// OnTransition starts a capture cycle in the background so the detector is
// not held up by the upload. It implements status.Sink.
func (p *Pipeline) OnTransition(ctx context.Context, _ status.Transition) error {
	p.triggers.Add(1)
	go func() {
		defer p.triggers.Done()
		p.Run(ctx)
	}()
	return nil
}

// Wait blocks until transition-triggered cycles have returned
func (p *Pipeline) Wait() {
	p.triggers.Wait()
}
