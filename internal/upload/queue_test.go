package upload

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workplus/workplus/internal/capture"
)

func newQueue(t *testing.T) (*FailedQueue, string) {
	t.Helper()
	active := filepath.Join(t.TempDir(), "screenshots")
	require.NoError(t, os.MkdirAll(active, 0o755))
	return NewFailedQueue(active, filepath.Join(active, "failed")), active
}

func makeArtifact(t *testing.T, dir string) capture.Artifact {
	t.Helper()
	path := filepath.Join(dir, capture.FileName(time.Now()))
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))
	return capture.Artifact{Path: path}
}

func TestEnqueueDequeue(t *testing.T) {
	q, active := newQueue(t)
	a := makeArtifact(t, active)

	queued, err := q.Enqueue(a)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(q.Dir(), a.Name()), queued.Path)
	assert.NoFileExists(t, a.Path)
	assert.FileExists(t, queued.Path)
	assert.Equal(t, 1, q.Len())

	back, err := q.Dequeue(queued)
	require.NoError(t, err)
	assert.Equal(t, a.Path, back.Path)
	assert.FileExists(t, back.Path)
	assert.NoFileExists(t, queued.Path)
	assert.Zero(t, q.Len())
}

func TestEnqueue_Idempotent(t *testing.T) {
	q, active := newQueue(t)
	a := makeArtifact(t, active)

	first, err := q.Enqueue(a)
	require.NoError(t, err)

	// the active copy is gone now; enqueueing again still succeeds
	second, err := q.Enqueue(a)
	require.NoError(t, err)
	assert.Equal(t, first.Path, second.Path)

	third, err := q.Enqueue(first)
	require.NoError(t, err)
	assert.Equal(t, first.Path, third.Path)
	assert.Equal(t, 1, q.Len())
}

func TestDequeue_Missing(t *testing.T) {
	q, active := newQueue(t)
	a := makeArtifact(t, active)
	require.NoError(t, os.Remove(a.Path))

	_, err := q.Dequeue(a)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRemove_Idempotent(t *testing.T) {
	_, active := newQueue(t)
	a := makeArtifact(t, active)

	require.NoError(t, Remove(a.Path))
	require.NoError(t, Remove(a.Path))
	assert.NoFileExists(t, a.Path)
}

func TestList_IgnoresForeignFiles(t *testing.T) {
	q, active := newQueue(t)
	a, err := q.Enqueue(makeArtifact(t, active))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(q.Dir(), "notes.txt"), nil, 0o644))

	items, err := q.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, a.Path, items[0].Path)
	assert.False(t, items[0].CreatedAt.IsZero())
}

func TestList_MissingDirectory(t *testing.T) {
	q := NewFailedQueue(t.TempDir(), filepath.Join(t.TempDir(), "absent"))
	items, err := q.List()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRecoverOrphans(t *testing.T) {
	q, active := newQueue(t)
	makeArtifact(t, active)
	makeArtifact(t, active)
	require.NoError(t, os.WriteFile(filepath.Join(active, "keep.txt"), nil, 0o644))

	n, err := q.RecoverOrphans()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, q.Len())
	assert.FileExists(t, filepath.Join(active, "keep.txt"))

	n, err = q.RecoverOrphans()
	require.NoError(t, err)
	assert.Zero(t, n)
}
