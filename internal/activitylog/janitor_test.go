package activitylog

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseLogName(t *testing.T) {
	tests := []struct {
		name     string
		wantOK   bool
		archived bool
	}{
		{"activity_log_20240304.txt", true, false},
		{"activity_log_20240304.txt.gz", true, true},
		{"activity_log_2024030.txt", false, false},
		{"activity_log_20240304.txt.gz.tmp", false, false},
		{"screenshot_20240304_090000_abcd1234.png", false, false},
		{"workplus.db", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, archived, ok := parseLogName(tt.name, time.UTC)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.archived, archived)
				assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), day)
			}
		})
	}
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 31, 10, 0, 0, 0, time.Local)
	l := New(zerolog.Nop(), dir).WithClock(fixedClock(now))
	j := NewJanitor(zerolog.Nop(), l, 7, 30)

	today := writeLog(t, dir, "activity_log_20240331.txt", "today\n")
	recent := writeLog(t, dir, "activity_log_20240328.txt", "recent\n")
	old := writeLog(t, dir, "activity_log_20240320.txt", "old line\n")
	expiredPlain := writeLog(t, dir, "activity_log_20240201.txt", "expired\n")
	expiredArchive := writeLog(t, dir, "activity_log_20240202.txt.gz", "not really gzip")
	other := writeLog(t, dir, "notes.txt", "keep")

	res, err := j.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"activity_log_20240320.txt"}, res.Archived)
	assert.ElementsMatch(t, []string{"activity_log_20240201.txt", "activity_log_20240202.txt.gz"}, res.Deleted)

	assert.FileExists(t, today)
	assert.FileExists(t, recent)
	assert.FileExists(t, other)
	assert.NoFileExists(t, old)
	assert.NoFileExists(t, expiredPlain)
	assert.NoFileExists(t, expiredArchive)

	f, err := os.Open(old + ".gz")
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "old line\n", string(data))
	assert.Equal(t, "activity_log_20240320.txt", zr.Name)

	// every action is journaled in today's partition
	lines := readLines(t, today)
	assert.Len(t, lines, 1+3)
}

func TestSweep_MissingDirectory(t *testing.T) {
	l := New(zerolog.Nop(), filepath.Join(t.TempDir(), "absent"))
	res, err := NewJanitor(zerolog.Nop(), l, 7, 30).Sweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Archived)
	assert.Empty(t, res.Deleted)
}

func TestSweep_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "activity_log_20200101.txt", "x")
	l := New(zerolog.Nop(), dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewJanitor(zerolog.Nop(), l, 7, 30).Sweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.FileExists(t, filepath.Join(dir, "activity_log_20200101.txt"))
}
