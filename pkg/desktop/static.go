package desktop

import (
	"sync"
	"time"
)

// Static is an in-memory Backend whose answers are set by the caller. It is
// used when no display server is reachable and by tests of the agent.
type Static struct {
	mu     sync.Mutex
	idle   time.Duration
	idleFn func() (time.Duration, error)
	locked bool
	grab   func(path string) error
}

// NewStatic returns a Static backend reporting zero idle time and an
// unlocked session.
func NewStatic() *Static {
	return &Static{}
}

// SetIdle fixes the idle time returned by IdleTime.
func (s *Static) SetIdle(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idle = d
	s.idleFn = nil
}

// SetIdleFunc makes IdleTime delegate to fn.
func (s *Static) SetIdleFunc(fn func() (time.Duration, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleFn = fn
}

func (s *Static) SetLocked(locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = locked
}

// SetGrabber replaces the screen grabber. A nil grabber makes GrabScreen
// return ErrUnsupported.
func (s *Static) SetGrabber(fn func(path string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grab = fn
}

func (s *Static) IdleTime() (time.Duration, error) {
	s.mu.Lock()
	fn, idle := s.idleFn, s.idle
	s.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return idle, nil
}

func (s *Static) IsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

func (s *Static) GrabScreen(path string) error {
	s.mu.Lock()
	fn := s.grab
	s.mu.Unlock()

	if fn == nil {
		return ErrUnsupported
	}
	return fn(path)
}

func (s *Static) IsAvailable() bool        { return true }
func (s *Static) GetDisplayServer() string { return "static" }
func (s *Static) Close() error             { return nil }
