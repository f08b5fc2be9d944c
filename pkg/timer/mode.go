package timer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// FormatMode selects unit conversion and precision of a measurement.
// The integer values are stable and accepted from loosely typed config.
type FormatMode int

const (
	// FormatSeconds reports raw seconds without rounding
	FormatSeconds FormatMode = iota
	// FormatRounded converts to the best-fit unit, rounded to an integer
	FormatRounded
	// FormatHundredths converts to the best-fit unit, rounded to 2 decimals
	FormatHundredths
	// FormatExact converts to the best-fit unit without rounding
	FormatExact
	// FormatClock renders HH:MM:SS:mmm.uuu for durations up to one day
	FormatClock
)

// DefaultFormat is used when no mode is configured
const DefaultFormat = FormatRounded

var modeNames = [...]string{
	FormatSeconds:    "seconds",
	FormatRounded:    "rounded",
	FormatHundredths: "hundredths",
	FormatExact:      "exact",
	FormatClock:      "clock",
}

// Modes lists every valid mode in numeric order
func Modes() []FormatMode {
	return []FormatMode{FormatSeconds, FormatRounded, FormatHundredths, FormatExact, FormatClock}
}

// Valid reports whether m is one of the five defined modes
func (m FormatMode) Valid() bool {
	return m >= FormatSeconds && m <= FormatClock
}

func (m FormatMode) String() string {
	if !m.Valid() {
		return "FormatMode(" + strconv.Itoa(int(m)) + ")"
	}
	return modeNames[m]
}

// UnmarshalText accepts "0".."4" or a mode name
func (m *FormatMode) UnmarshalText(text []byte) error {
	parsed, err := ParseFormatMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseFormatMode converts loosely typed input into a FormatMode.
// Integers of any width, numeric strings and mode names are accepted.
func ParseFormatMode(v any) (FormatMode, error) {
	switch val := v.(type) {
	case nil, bool:
		return 0, fmt.Errorf("invalid format mode %v", v)
	case FormatMode:
		if !val.Valid() {
			return 0, fmt.Errorf("format mode %d out of range 0-4", int(val))
		}
		return val, nil
	case string:
		name := strings.ToLower(strings.TrimSpace(val))
		for i, n := range modeNames {
			if n == name {
				return FormatMode(i), nil
			}
		}
	case float32, float64:
		f := cast.ToFloat64(val)
		if f != float64(int(f)) {
			return 0, fmt.Errorf("format mode %v is not an integer", val)
		}
	}

	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("invalid format mode %v: %w", v, err)
	}
	mode := FormatMode(n)
	if !mode.Valid() {
		return 0, fmt.Errorf("format mode %d out of range 0-4", n)
	}
	return mode, nil
}
