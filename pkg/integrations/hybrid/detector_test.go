package hybrid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workplus/workplus/pkg/desktop"
)

func TestIdleTime_FallsThrough(t *testing.T) {
	broken := desktop.NewStatic()
	broken.SetIdleFunc(func() (time.Duration, error) { return 0, desktop.ErrUnsupported })
	working := desktop.NewStatic()
	working.SetIdle(42 * time.Second)

	d := New(broken, working)

	idle, err := d.IdleTime()
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, idle)
	assert.Equal(t, "static", d.lastSuccessfulMethod)
}

func TestIdleTime_AllFail(t *testing.T) {
	broken := desktop.NewStatic()
	broken.SetIdleFunc(func() (time.Duration, error) { return 0, desktop.ErrUnsupported })

	_, err := New(broken).IdleTime()
	assert.ErrorIs(t, err, desktop.ErrUnsupported)

	_, err = New().IdleTime()
	assert.ErrorIs(t, err, desktop.ErrUnsupported)
}

func TestGrabScreen_RemovesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")

	failing := desktop.NewStatic()
	failing.SetGrabber(func(p string) error {
		require.NoError(t, os.WriteFile(p, []byte("partial"), 0o644))
		return errors.New("boom")
	})

	err := New(failing).GrabScreen(path)
	assert.Error(t, err)
	assert.NoFileExists(t, path)
}

func TestGrabScreen_SecondBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")

	working := desktop.NewStatic()
	working.SetGrabber(func(p string) error { return os.WriteFile(p, []byte("png"), 0o644) })

	require.NoError(t, New(desktop.NewStatic(), working).GrabScreen(path))
	assert.FileExists(t, path)
}

func TestIsLocked_Backend(t *testing.T) {
	locked := desktop.NewStatic()
	locked.SetLocked(true)

	assert.True(t, New(desktop.NewStatic(), locked).IsLocked())
}

func TestGetStatus(t *testing.T) {
	d := New(desktop.NewStatic())
	assert.Contains(t, d.GetStatus(), "static (available: true)")
	assert.Equal(t, "static", d.GetDisplayServer())
	assert.Equal(t, "none", New().GetDisplayServer())
	assert.NoError(t, d.Close())
}
