package testutil

import (
	"math"
	"time"

	"github.com/psantana5/scopetimer/internal/observe"
)

// FakeClock returns a scripted sequence of instants. Each call to Now
// consumes the next offset; once exhausted the last instant is repeated.
type FakeClock struct {
	base    time.Time
	offsets []time.Duration
	calls   int
}

// NewFakeClock creates a clock whose Now calls return base+offsets[i]
func NewFakeClock(offsets ...time.Duration) *FakeClock {
	return &FakeClock{
		base:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		offsets: offsets,
	}
}

// Seconds builds a FakeClock from second offsets, e.g. Seconds(0, 8450)
func Seconds(offsets ...float64) *FakeClock {
	d := make([]time.Duration, len(offsets))
	for i, s := range offsets {
		d[i] = time.Duration(math.Round(s * float64(time.Second)))
	}
	return NewFakeClock(d...)
}

func (f *FakeClock) Now() time.Time {
	if len(f.offsets) == 0 {
		return f.base
	}
	i := f.calls
	if i >= len(f.offsets) {
		i = len(f.offsets) - 1
	}
	f.calls++
	return f.base.Add(f.offsets[i])
}

// Calls returns how many times Now was called
func (f *FakeClock) Calls() int {
	return f.calls
}

var _ observe.Clock = new(FakeClock)
