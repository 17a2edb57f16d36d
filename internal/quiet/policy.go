// Package quiet decides when tracking and capture are suppressed.
package quiet

import "time"

// Policy suppresses activity from CutoffHour until midnight, local time.
// The zero value never suppresses.
type Policy struct {
	Enabled    bool
	CutoffHour int
	Location   *time.Location
}

// NewPolicy builds an enabled policy; a nil location means time.Local.
func NewPolicy(cutoffHour int, loc *time.Location) Policy {
	if loc == nil {
		loc = time.Local
	}
	return Policy{Enabled: true, CutoffHour: cutoffHour, Location: loc}
}

// ShouldSuppress reports whether now falls in quiet hours. Only the hour
// field is inspected, so suppression ends at the next midnight.
func (p Policy) ShouldSuppress(now time.Time) bool {
	if !p.Enabled {
		return false
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Hour() >= p.CutoffHour
}
