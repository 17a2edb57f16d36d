// Package status turns idle time samples into online/offline transitions.
package status

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Status is the two-state activity signal
type Status int

const (
	Online Status = iota
	Offline
)

func (s Status) String() string {
	switch s {
	case Online:
		return "online"
	case Offline:
		return "offline"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Upper returns the log form, e.g. "OFFLINE"
func (s Status) Upper() string {
	return strings.ToUpper(s.String())
}

// Parse is the inverse of String
func Parse(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online":
		return Online, nil
	case "offline":
		return Offline, nil
	default:
		return Online, fmt.Errorf("unknown status %q", s)
	}
}

// Transition is one detected status change. It is handed to each sink once
// and not retained by the detector.
type Transition struct {
	Previous   Status
	Current    Status
	At         time.Time
	InPrevious time.Duration
}

// Sink consumes transitions
type Sink interface {
	OnTransition(ctx context.Context, tr Transition) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, tr Transition) error

func (f SinkFunc) OnTransition(ctx context.Context, tr Transition) error {
	return f(ctx, tr)
}

// Candidate is Offline when idle strictly exceeds threshold
func Candidate(idle, threshold time.Duration) Status {
	if idle > threshold {
		return Offline
	}
	return Online
}
