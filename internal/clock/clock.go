// Package clock abstracts "now" so day-boundary and expiry logic can be
// tested against fixed instants.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewSystem returns a Clock backed by time.Now.
func NewSystem() Clock { return systemClock{} }

// Fixed is a Clock that always reports the same instant.
type Fixed struct {
	Instant time.Time
}

func (f Fixed) Now() time.Time { return f.Instant }
