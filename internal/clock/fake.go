package clock

import "time"

// FakeClock is a manually advanced Clock for tests. It lets overdue counting
// and paid-at stamps be asserted against a fixed instant.
type FakeClock struct {
	current time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{current: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

// SetNow pins the clock to a specific instant.
func (c *FakeClock) SetNow(t time.Time) {
	c.current = t.UTC()
}
