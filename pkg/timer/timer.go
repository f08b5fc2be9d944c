// Package timer measures the wall-clock duration of a scope and reports it
// in a human-readable unit, to an output stream, a caller-owned Sink, or both.
//
//	data := timer.Sink{}
//	t, err := timer.New(timer.WithLabel("build"), timer.WithSink(data))
//	if err != nil {
//		return err
//	}
//	err = t.Measure(func() error {
//		return build()
//	})
//
// A Timer measures exactly one scope.
package timer

import (
	"fmt"
	"io"
	"os"

	"github.com/psantana5/scopetimer/internal/logging"
	"github.com/psantana5/scopetimer/internal/observe"
)

// Timer is a single-use scope guard
type Timer struct {
	label    string
	rawSink  any
	hasSink  bool
	sink     Sink
	mode     FormatMode
	emit     bool
	out      io.Writer
	clock    observe.Clock
	observer func(Measurement)
	logger   *logging.Logger

	timing *observe.Timing
}

// Option configures a Timer
type Option func(*Timer)

// WithLabel prefixes the printed line with label
func WithLabel(label string) Option {
	return func(t *Timer) {
		t.label = label
	}
}

// WithSink makes the timer write its result into sink on exit.
// sink must be a Sink or a map[string]any.
func WithSink(sink any) Option {
	return func(t *Timer) {
		t.rawSink = sink
		t.hasSink = sink != nil
	}
}

// WithFormat selects the format mode. The default is FormatRounded.
func WithFormat(mode FormatMode) Option {
	return func(t *Timer) {
		t.mode = mode
	}
}

// WithOutput enables or disables printing. The default is enabled.
func WithOutput(emit bool) Option {
	return func(t *Timer) {
		t.emit = emit
	}
}

// WithWriter redirects printed lines. The default is os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(t *Timer) {
		t.out = w
	}
}

// WithClock replaces the monotonic clock
func WithClock(clock observe.Clock) Option {
	return func(t *Timer) {
		t.clock = clock
	}
}

// WithObserver registers a callback invoked with every successful measurement
func WithObserver(fn func(Measurement)) Option {
	return func(t *Timer) {
		t.observer = fn
	}
}

// WithLogger sets the logger for diagnostics
func WithLogger(logger *logging.Logger) Option {
	return func(t *Timer) {
		t.logger = logger
	}
}

// New builds a Timer and validates its configuration
func New(opts ...Option) (*Timer, error) {
	t := &Timer{
		mode:  DefaultFormat,
		emit:  true,
		out:   os.Stdout,
		clock: observe.MonotonicClock{},
	}
	for _, opt := range opts {
		opt(t)
	}

	if !t.hasSink && !t.emit {
		return nil, &ConfigurationError{Reason: "sink argument should be passed or output must be enabled"}
	}
	if t.hasSink {
		sink, err := asSink(t.rawSink)
		if err != nil {
			return nil, err
		}
		t.sink = sink
	}
	if !t.mode.Valid() {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("format mode %d out of range 0-4", int(t.mode))}
	}
	if t.out == nil {
		t.out = io.Discard
	}
	if t.logger == nil {
		t.logger = logging.Discard()
	}

	t.timing = observe.NewTiming(t.clock)
	return t, nil
}

// Label returns the configured label
func (t *Timer) Label() string {
	return t.label
}

// Mode returns the configured format mode
func (t *Timer) Mode() FormatMode {
	return t.mode
}

// Start records the start instant and returns t for chaining
func (t *Timer) Start() *Timer {
	t.timing.Start()
	return t
}

// Stop records the stop instant, formats the elapsed time, then writes the
// sink and prints the line as configured.
func (t *Timer) Stop() (Measurement, error) {
	if !t.timing.Started() {
		return Measurement{}, ErrNotStarted
	}
	t.timing.Stop()

	m, err := Format(t.timing.Seconds(), t.mode)
	if err != nil {
		t.logger.Debug("measurement not formatted", map[string]interface{}{
			"label": t.label,
			"error": err.Error(),
		})
		return Measurement{}, err
	}

	if t.sink != nil {
		t.sink.write(m)
	}
	if t.emit {
		if _, err := fmt.Fprintln(t.out, m.Line(t.label)); err != nil {
			t.logger.Warn("failed to print measurement", map[string]interface{}{"error": err.Error()})
		}
	}
	if t.observer != nil {
		t.observer(m)
	}

	t.logger.Debug("measurement recorded", map[string]interface{}{
		"label":   t.label,
		"mode":    t.mode.String(),
		"seconds": m.Seconds,
		"unit":    m.Unit,
	})
	return m, nil
}

// Exit is the deferred form of Stop:
//
//	defer t.Start().Exit(&err)
//
// An error already in *errp is left untouched; a stop error is only
// stored when *errp is nil.
func (t *Timer) Exit(errp *error) {
	_, stopErr := t.Stop()
	if stopErr == nil {
		return
	}
	if errp == nil {
		t.logger.Warn("measurement error dropped", map[string]interface{}{"error": stopErr.Error()})
		return
	}
	if *errp != nil {
		t.logger.Warn("measurement error after scope failure", map[string]interface{}{
			"label":       t.label,
			"error":       stopErr.Error(),
			"scope_error": (*errp).Error(),
		})
		return
	}
	*errp = stopErr
}

// Measure runs fn inside the timer's scope. The exit bookkeeping runs even
// if fn fails or panics; fn's error or panic passes through unchanged.
func (t *Timer) Measure(fn func() error) (err error) {
	defer t.Start().Exit(&err)
	return fn()
}

// Measure builds a Timer from opts, runs fn inside it and returns the
// measurement. When fn fails its error is returned unchanged.
func Measure(fn func() error, opts ...Option) (Measurement, error) {
	var m Measurement
	opts = append(opts, chainObserver(opts, func(got Measurement) {
		m = got
	}))

	t, err := New(opts...)
	if err != nil {
		return Measurement{}, err
	}

	err = t.Measure(fn)
	return m, err
}

// chainObserver keeps any observer set in opts and adds fn after it
func chainObserver(opts []Option, fn func(Measurement)) Option {
	probe := &Timer{}
	for _, opt := range opts {
		opt(probe)
	}
	prev := probe.observer
	return WithObserver(func(m Measurement) {
		if prev != nil {
			prev(m)
		}
		fn(m)
	})
}
