package upload

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/workplus/workplus/internal/capture"
)

// FailedQueue is the directory of artifacts awaiting a retry. Membership is
// the directory listing itself. Artifacts move between the active and the
// failed directory by rename only, so a file is never in both.
type FailedQueue struct {
	activeDir string
	dir       string
}

func NewFailedQueue(activeDir, failedDir string) *FailedQueue {
	return &FailedQueue{activeDir: activeDir, dir: failedDir}
}

// Dir returns the failed-queue directory
func (q *FailedQueue) Dir() string {
	return q.dir
}

// Enqueue moves an artifact into the queue. An artifact that is already
// gone, or already queued, is not an error.
func (q *FailedQueue) Enqueue(a capture.Artifact) (capture.Artifact, error) {
	if err := os.MkdirAll(q.dir, 0o755); err != nil {
		return a, errors.Wrap(err, "failed to create failed-queue directory")
	}

	dst := filepath.Join(q.dir, a.Name())
	if a.Path == dst {
		return a, nil
	}

	if err := os.Rename(a.Path, dst); err != nil {
		if os.IsNotExist(err) {
			if _, serr := os.Stat(dst); serr == nil {
				a.Path = dst
			}
			return a, nil
		}
		return a, errors.Wrapf(err, "failed to enqueue %s", a.Name())
	}

	a.Path = dst
	return a, nil
}

// Dequeue moves a queued artifact back to the active directory. It reports
// os.ErrNotExist if the entry is no longer queued.
func (q *FailedQueue) Dequeue(a capture.Artifact) (capture.Artifact, error) {
	if err := os.MkdirAll(q.activeDir, 0o755); err != nil {
		return a, errors.Wrap(err, "failed to create screenshot directory")
	}

	dst := filepath.Join(q.activeDir, a.Name())
	if err := os.Rename(filepath.Join(q.dir, a.Name()), dst); err != nil {
		if os.IsNotExist(err) {
			return a, os.ErrNotExist
		}
		return a, errors.Wrapf(err, "failed to dequeue %s", a.Name())
	}

	a.Path = dst
	return a, nil
}

// Remove deletes an artifact file wherever it is. Removing a missing file
// succeeds.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete %s", filepath.Base(path))
	}
	return nil
}

// List returns the queued artifacts. The order is by name, which callers
// must not rely on.
func (q *FailedQueue) List() ([]capture.Artifact, error) {
	return listArtifacts(q.dir)
}

// Len returns the number of queued artifacts, or 0 if the directory cannot
// be read
func (q *FailedQueue) Len() int {
	items, err := q.List()
	if err != nil {
		return 0
	}
	return len(items)
}

// RecoverOrphans moves every artifact left in the active directory, e.g. by
// a crash between capture and upload, into the queue.
func (q *FailedQueue) RecoverOrphans() (int, error) {
	orphans, err := listArtifacts(q.activeDir)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, a := range orphans {
		if _, err := q.Enqueue(a); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func listArtifacts(dir string) ([]capture.Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to list %s", dir)
	}

	var items []capture.Artifact
	for _, e := range entries {
		if e.IsDir() || !capture.IsArtifactName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, capture.Artifact{
			Path:      filepath.Join(dir, e.Name()),
			CreatedAt: info.ModTime(),
		})
	}
	return items, nil
}
