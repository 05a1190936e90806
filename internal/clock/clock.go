package clock

import (
	"sync"
	"time"
)

// IST is the fixed civil offset (+05:30) every schedule comparison is made in,
// independent of the device's local zone.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// Source produces the canonical "now".
type Source interface {
	Now() time.Time
}

// System reads the system clock and shifts it to IST.
type System struct{}

// Now returns the current instant in IST.
func (System) Now() time.Time {
	return time.Now().In(IST)
}

// Now is shorthand for System{}.Now().
func Now() time.Time {
	return System{}.Now()
}

// Manual is a settable Source for tests and replays.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a Manual source pinned at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t.In(IST)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t.In(IST)
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
