package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workplus/workplus/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := Connect(filepath.Join(t.TempDir(), "journal", "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })

	return NewRepository(db)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/base", "workplus.db"), DefaultPath("/base"))
}

func TestConnect_EmptyPath(t *testing.T) {
	_, err := Connect("")
	assert.Error(t, err)
}

func TestTransitions(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	latest, err := repo.LatestTransition()
	require.NoError(t, err)
	assert.Nil(t, latest)

	for i, st := range []string{"offline", "online", "offline"} {
		require.NoError(t, repo.RecordTransition(&models.StatusEvent{
			Timestamp:       base.Add(time.Duration(i) * time.Hour),
			Status:          st,
			Previous:        map[string]string{"online": "offline", "offline": "online"}[st],
			DurationSeconds: 3600,
		}))
	}

	events, err := repo.TransitionsSince(base.Add(30 * time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "online", events[0].Status)
	assert.Equal(t, "offline", events[1].Status)

	latest, err = repo.LatestTransition()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Timestamp.Equal(base.Add(2*time.Hour)))

	before, err := repo.LatestTransitionBefore(base.Add(90 * time.Minute))
	require.NoError(t, err)
	require.NotNil(t, before)
	assert.Equal(t, "online", before.Status)

	none, err := repo.LatestTransitionBefore(base)
	require.NoError(t, err)
	assert.Nil(t, none)

	recent, err := repo.RecentTransitions(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp))
}

func TestUploadStats(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	records := []models.UploadRecord{
		{Timestamp: now, FileName: "a.png", Outcome: models.OutcomeDelivered, Source: models.SourceCapture},
		{Timestamp: now, FileName: "b.png", Outcome: models.OutcomeFailed, Reason: "HTTP 500", Source: models.SourceCapture},
		{Timestamp: now, FileName: "b.png", Outcome: models.OutcomeDelivered, Source: models.SourceRetry},
		{Timestamp: now.Add(-48 * time.Hour), FileName: "old.png", Outcome: models.OutcomeFailed, Source: models.SourceCapture},
	}
	for i := range records {
		require.NoError(t, repo.RecordUpload(&records[i]))
	}

	stats, err := repo.UploadStats(now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.UploadStats{Delivered: 2, Failed: 1}, stats)
}

func TestErrorsAndPruning(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.RecordError("capture", "grabber failed"))
	logs, err := repo.RecentErrors(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "capture", logs[0].Component)

	old := time.Now().Add(-60 * 24 * time.Hour)
	require.NoError(t, repo.RecordTransition(&models.StatusEvent{Timestamp: old, Status: "offline", Previous: "online"}))
	require.NoError(t, repo.RecordUpload(&models.UploadRecord{Timestamp: old, FileName: "x.png", Outcome: models.OutcomeDelivered, Source: models.SourceCapture}))

	n, err := repo.DeleteOlderThan(time.Now().Add(-30 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	logs, err = repo.RecentErrors(10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
