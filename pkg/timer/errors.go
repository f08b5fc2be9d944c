package timer

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError
	ErrConfiguration = errors.New("timer configuration error")
	// ErrRange matches every *RangeError
	ErrRange = errors.New("elapsed time out of range")
	// ErrNotStarted is returned by Stop when Start was never called
	ErrNotStarted = errors.New("timer was not started")
)

// ConfigurationError is returned by New when the options cannot produce
// a measurement anyone can observe, or are malformed.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// RangeError is returned on exit when the clock format cannot represent
// the elapsed time.
type RangeError struct {
	Seconds float64
	Limit   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("elapsed time %.3fs exceeds the %.0fs limit of the clock format", e.Seconds, e.Limit)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrRange
}
