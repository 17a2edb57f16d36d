package activitylog

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/workplus/workplus/pkg/utils"
)

const archiveSuffix = fileSuffix + ".gz"

// Janitor compresses old day partitions and deletes expired archives.
// Today's partition is never touched.
type Janitor struct {
	log          zerolog.Logger
	activity     *Logger
	archiveAfter int
	retention    int
}

// SweepResult lists the files a sweep changed
type SweepResult struct {
	Archived []string
	Deleted  []string
}

func NewJanitor(log zerolog.Logger, activity *Logger, archiveAfterDays, retentionDays int) *Janitor {
	return &Janitor{
		log:          log,
		activity:     activity,
		archiveAfter: archiveAfterDays,
		retention:    retentionDays,
	}
}

// Run is the schedule.Task body
func (j *Janitor) Run(ctx context.Context) {
	res, err := j.Sweep(ctx)
	if err != nil {
		j.log.Warn().Err(err).Msg("activity log cleanup failed")
		j.activity.Errorf("Error clearing logs: %v", err)
		return
	}
	if len(res.Archived) > 0 || len(res.Deleted) > 0 {
		j.activity.Appendf("Log files cleared: %d archived, %d deleted", len(res.Archived), len(res.Deleted))
	}
}

// Sweep walks the activity log directory once
func (j *Janitor) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	entries, err := os.ReadDir(j.activity.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return res, errors.Wrap(err, "failed to list activity logs")
	}

	now := j.activity.now()
	today := startOfDay(now)

	for _, e := range entries {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if e.IsDir() {
			continue
		}

		name := e.Name()
		day, archived, ok := parseLogName(name, now.Location())
		if !ok {
			continue
		}

		age := int(math.Round(today.Sub(day).Hours() / 24))
		if age <= 0 {
			continue
		}
		path := filepath.Join(j.activity.Dir(), name)

		switch {
		case age >= j.retention:
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				j.log.Warn().Err(err).Str("file", name).Msg("failed to delete activity log")
				j.activity.Errorf("Error deleting log file %s: %v", name, err)
				continue
			}
			res.Deleted = append(res.Deleted, name)
			j.activity.Appendf("Cleared log file %s (%s old)", name, utils.HumanDuration(time.Duration(age)*24*time.Hour))
		case !archived && age >= j.archiveAfter:
			if err := compress(path); err != nil {
				j.log.Warn().Err(err).Str("file", name).Msg("failed to archive activity log")
				j.activity.Errorf("Error archiving log file %s: %v", name, err)
				continue
			}
			res.Archived = append(res.Archived, name)
			j.activity.Appendf("Archived log file %s", name)
		}
	}

	return res, nil
}

// parseLogName extracts the partition day from activity_log_<yyyyMMdd>.txt
// or its .gz archive.
func parseLogName(name string, loc *time.Location) (time.Time, bool, bool) {
	if !strings.HasPrefix(name, filePrefix) {
		return time.Time{}, false, false
	}
	rest := strings.TrimPrefix(name, filePrefix)

	archived := false
	switch {
	case strings.HasSuffix(rest, archiveSuffix):
		archived = true
		rest = strings.TrimSuffix(rest, archiveSuffix)
	case strings.HasSuffix(rest, fileSuffix):
		rest = strings.TrimSuffix(rest, fileSuffix)
	default:
		return time.Time{}, false, false
	}

	day, err := time.ParseInLocation(dayLayout, rest, loc)
	if err != nil {
		return time.Time{}, false, false
	}
	return day, archived, true
}

// compress replaces path with path.gz
func compress(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "failed to open log")
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to stat log")
	}

	tmp := path + ".gz.tmp"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to create archive")
	}

	zw, err := gzip.NewWriterLevel(dst, gzip.BestCompression)
	if err != nil {
		dst.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "failed to create gzip writer")
	}
	zw.Name = filepath.Base(path)
	zw.ModTime = info.ModTime()

	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		dst.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "failed to compress log")
	}
	if err := zw.Close(); err != nil {
		dst.Close()
		os.Remove(tmp)
		return errors.Wrap(err, "failed to flush archive")
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "failed to close archive")
	}

	if err := os.Rename(tmp, strings.TrimSuffix(path, fileSuffix)+archiveSuffix); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "failed to move archive into place")
	}
	return errors.Wrap(os.Remove(path), "failed to remove archived log")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
