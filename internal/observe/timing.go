package observe

import "time"

// Clock is the time source used for measurements.
// time.Time values returned by Now must carry a monotonic reading.
type Clock interface {
	Now() time.Time
}

// MonotonicClock reads the process clock. time.Now includes a monotonic
// reading, so differences between two values ignore wall-clock jumps.
type MonotonicClock struct{}

// Now returns the current instant
func (MonotonicClock) Now() time.Time {
	return time.Now()
}

// Timing records start/stop instants only
type Timing struct {
	clock     Clock
	StartedAt time.Time
	StoppedAt time.Time
}

// NewTiming creates a timing bound to clock. A nil clock means MonotonicClock.
func NewTiming(clock Clock) *Timing {
	if clock == nil {
		clock = MonotonicClock{}
	}
	return &Timing{clock: clock}
}

// Start records the start instant
func (t *Timing) Start() {
	t.StartedAt = t.clock.Now()
	t.StoppedAt = time.Time{}
}

// Started reports whether Start was called
func (t *Timing) Started() bool {
	return !t.StartedAt.IsZero()
}

// Stop records the stop instant
func (t *Timing) Stop() {
	t.StoppedAt = t.clock.Now()
}

// Duration returns the elapsed time. Before Stop it is the time since Start.
func (t *Timing) Duration() time.Duration {
	if t.StoppedAt.IsZero() {
		return t.clock.Now().Sub(t.StartedAt)
	}
	return t.StoppedAt.Sub(t.StartedAt)
}

// Seconds returns Duration as fractional seconds
func (t *Timing) Seconds() float64 {
	return t.Duration().Seconds()
}
