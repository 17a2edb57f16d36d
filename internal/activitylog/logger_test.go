package activitylog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workplus/workplus/internal/status"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestAppend_DayPartition(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "base")
	at := time.Date(2024, 3, 4, 9, 15, 2, 117_000_000, time.Local)
	l := New(zerolog.Nop(), dir).WithClock(fixedClock(at))

	l.Append("first")
	l.Appendf("second %d", 2)

	path := filepath.Join(dir, "activity_log_20240304.txt")
	assert.Equal(t, path, l.PathFor(at))
	assert.Equal(t, []string{
		"2024-03-04 09:15:02.117: first",
		"2024-03-04 09:15:02.117: second 2",
	}, readLines(t, path))
}

func TestAppendTo_SwallowsErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	l := New(zerolog.Nop(), dir)
	assert.NotPanics(t, func() {
		l.AppendTo(filepath.Join(blocker, "sub", "log.txt"), "unreachable")
	})
}

func TestOnTransition(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.Local)
	l := New(zerolog.Nop(), dir).WithClock(fixedClock(at))

	err := l.OnTransition(context.Background(), status.Transition{
		Previous:   status.Online,
		Current:    status.Offline,
		At:         at,
		InPrevious: 35 * time.Second,
	})
	require.NoError(t, err)

	lines := readLines(t, l.PathFor(at))
	require.Len(t, lines, 1)
	assert.Equal(t, "2024-03-04 09:00:00.000: Status changed to OFFLINE after 35 seconds.", lines[0])
}

func TestTransitionMessage_Rounds(t *testing.T) {
	msg := TransitionMessage(status.Transition{Current: status.Online, InPrevious: 1500 * time.Millisecond})
	assert.Equal(t, "Status changed to ONLINE after 2 seconds.", msg)
}
