package desktop

import (
	"errors"
	"time"
)

// ErrUnsupported is returned when a backend has no way to serve a request
// on the current session (missing tool, missing X extension, ...).
var ErrUnsupported = errors.New("desktop: operation not supported by backend")

// IdleSource reports the time elapsed since the last keyboard or mouse input
type IdleSource interface {
	IdleTime() (time.Duration, error)
}

// LockDetector reports whether the user session is currently locked
type LockDetector interface {
	IsLocked() bool
}

// ScreenGrabber writes a PNG image of the full virtual screen to path
type ScreenGrabber interface {
	GrabScreen(path string) error
}

// Backend is the interface that all desktop integrations must satisfy
type Backend interface {
	IdleSource
	LockDetector
	ScreenGrabber

	// IsAvailable checks if this backend can run on the current system
	IsAvailable() bool

	// GetDisplayServer returns the display server type ("x11" or "wayland")
	GetDisplayServer() string

	// Close cleans up any resources used by the backend
	Close() error
}
