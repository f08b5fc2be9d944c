package timer

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Unit labels
const (
	UnitMilliseconds = "millisecond(s)"
	UnitSeconds      = "second(s)"
	UnitMinutes      = "minute(s)"
	UnitHours        = "hour(s)"
)

// ClockLimit is the longest duration FormatClock can render, in seconds
const ClockLimit = 24 * 3600

// naturalPrecision marks values printed with the shortest exact representation
const naturalPrecision = -1

// Measurement is the outcome of one scope exit
type Measurement struct {
	Mode FormatMode `json:"mode"`
	// Seconds is the raw elapsed time
	Seconds float64 `json:"seconds"`
	// Elapsed is what the sink receives as "elapsed": raw seconds for
	// FormatSeconds and FormatClock, the unit-converted value otherwise.
	Elapsed float64 `json:"elapsed"`
	// Value is the display value for numeric modes
	Value float64 `json:"value,omitempty"`
	// Clock is the display value for FormatClock
	Clock     string `json:"clock,omitempty"`
	Precision int    `json:"precision"`
	Unit      string `json:"unit"`
}

// Formatted returns the display value: a float64, or a string for FormatClock
func (m Measurement) Formatted() any {
	if m.Mode == FormatClock {
		return m.Clock
	}
	return m.Value
}

// FormattedString renders the display value at the mode's precision
func (m Measurement) FormattedString() string {
	if m.Mode == FormatClock {
		return m.Clock
	}
	return strconv.FormatFloat(m.Value, 'f', m.Precision, 64)
}

// String renders "<value> <unit>"
func (m Measurement) String() string {
	return m.FormattedString() + " " + m.Unit
}

// Line renders the printed line without the trailing newline
func (m Measurement) Line(label string) string {
	if label != "" {
		return label + "\t-\t" + m.String()
	}
	return m.String()
}

// Duration returns Seconds as a time.Duration
func (m Measurement) Duration() time.Duration {
	return time.Duration(m.Seconds * float64(time.Second))
}

// BestFit converts seconds to the unit that keeps the value readable.
// Comparisons are strict, so exactly 1s falls through to hours.
func BestFit(seconds float64) (float64, string) {
	switch {
	case seconds < 1:
		return seconds * 1000, UnitMilliseconds
	case seconds > 1 && seconds < 60:
		return seconds, UnitSeconds
	case seconds > 59 && seconds < 3600:
		return seconds / 60, UnitMinutes
	default:
		return seconds / 3600, UnitHours
	}
}

// Format applies mode to an elapsed time in seconds
func Format(seconds float64, mode FormatMode) (Measurement, error) {
	m := Measurement{
		Mode:      mode,
		Seconds:   seconds,
		Precision: naturalPrecision,
	}

	switch mode {
	case FormatSeconds:
		m.Elapsed = seconds
		m.Value = seconds
		m.Unit = UnitSeconds
	case FormatRounded, FormatHundredths:
		m.Precision = 0
		if mode == FormatHundredths {
			m.Precision = 2
		}
		m.Elapsed, m.Unit = BestFit(seconds)
		m.Value = round(m.Elapsed, m.Precision)
	case FormatExact:
		m.Elapsed, m.Unit = BestFit(seconds)
		m.Value = m.Elapsed
	case FormatClock:
		if seconds > ClockLimit {
			return Measurement{}, &RangeError{Seconds: seconds, Limit: ClockLimit}
		}
		m.Elapsed = seconds
		m.Clock = clockString(seconds)
	default:
		return Measurement{}, &ConfigurationError{Reason: fmt.Sprintf("format mode %d out of range 0-4", int(mode))}
	}

	return m, nil
}

// round rounds half to even on the exact binary value of x
func round(x float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return r
}

// clockString renders the time of day reached after seconds from midnight
// UTC, followed by the sub-second part in milliseconds.
func clockString(seconds float64) string {
	whole := math.Floor(seconds)
	millis := (seconds - whole) * 1000
	tod := time.Unix(int64(whole), 0).UTC()
	return fmt.Sprintf("%s:%.3f", tod.Format("15:04:05"), millis)
}
