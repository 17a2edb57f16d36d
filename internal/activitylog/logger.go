// Package activitylog keeps the human-readable, day-partitioned journal of
// what the agent did. Lines look like
//
//	2024-03-04 09:15:02.117: Status changed to OFFLINE after 35 seconds.
//
// Writes never fail the caller; problems go to the diagnostic log instead.
package activitylog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/workplus/workplus/internal/status"
)

const (
	filePrefix     = "activity_log_"
	fileSuffix     = ".txt"
	dayLayout      = "20060102"
	lineTimeLayout = "2006-01-02 15:04:05.000"
)

// Logger appends timestamped lines to <dir>/activity_log_<yyyyMMdd>.txt
type Logger struct {
	log zerolog.Logger
	dir string
	now func() time.Time

	mu sync.Mutex
}

func New(log zerolog.Logger, dir string) *Logger {
	return &Logger{log: log, dir: dir, now: time.Now}
}

// WithClock replaces time.Now, mostly for tests
func (l *Logger) WithClock(now func() time.Time) *Logger {
	l.now = now
	return l
}

// Dir returns the directory holding the day partitions
func (l *Logger) Dir() string {
	return l.dir
}

// PathFor returns the partition file for the local day of t
func (l *Logger) PathFor(t time.Time) string {
	return filepath.Join(l.dir, filePrefix+t.Format(dayLayout)+fileSuffix)
}

// Append writes message to today's partition
func (l *Logger) Append(message string) {
	now := l.now()
	l.appendLine(l.PathFor(now), now, message)
}

// Appendf is Append with formatting
func (l *Logger) Appendf(format string, args ...any) {
	l.Append(fmt.Sprintf(format, args...))
}

// Errorf writes an "ERROR - " line
func (l *Logger) Errorf(format string, args ...any) {
	l.Append("ERROR - " + fmt.Sprintf(format, args...))
}

// AppendTo writes message to an explicit file
func (l *Logger) AppendTo(path, message string) {
	l.appendLine(path, l.now(), message)
}

func (l *Logger) appendLine(path string, at time.Time, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.log.Warn().Err(err).Str("file", path).Msg("failed to create activity log directory")
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.log.Warn().Err(err).Str("file", path).Msg("failed to open activity log")
		return
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s: %s\n", at.Format(lineTimeLayout), message); err != nil {
		l.log.Warn().Err(err).Str("file", path).Msg("failed to write activity log")
	}
}

// OnTransition records a status change. It implements status.Sink.
func (l *Logger) OnTransition(_ context.Context, tr status.Transition) error {
	l.Append(TransitionMessage(tr))
	return nil
}

// TransitionMessage renders the activity line for a status change
func TransitionMessage(tr status.Transition) string {
	return fmt.Sprintf("Status changed to %s after %.0f seconds.", tr.Current.Upper(), tr.InPrevious.Seconds())
}
