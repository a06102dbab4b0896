package mocks

import (
	"time"

	"github.com/dailyroster/rosterd/internal/dependencies/clock"
)

// MockClock is a Clock frozen at a settable instant. Cutoff, session
// expiry and phase tests move it explicitly instead of sleeping.
type MockClock struct {
	CurrentTime time.Time
}

var _ clock.Clock = (*MockClock)(nil)

// NewMockClock returns a clock frozen at t
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

func (c *MockClock) Now() time.Time {
	return c.CurrentTime
}

// Advance moves the clock forward by d
func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}

// Set jumps the clock to an absolute instant
func (c *MockClock) Set(t time.Time) {
	c.CurrentTime = t
}
