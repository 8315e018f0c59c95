package clock

import "time"

// Clock supplies the current wall-clock time. Every expiration decision in
// the service is a pure function of ticket fields and a Clock reading, so
// tests substitute a fixed implementation.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the real wall clock.
func System() Clock { return systemClock{} }

// Fixed is a Clock pinned to a settable instant.
type Fixed struct {
	Instant time.Time
}

// NewFixed pins a clock at t.
func NewFixed(t time.Time) *Fixed { return &Fixed{Instant: t} }

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time { return f.Instant }

// Advance moves the pinned instant forward.
func (f *Fixed) Advance(d time.Duration) { f.Instant = f.Instant.Add(d) }
