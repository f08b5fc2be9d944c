package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/psantana5/scopetimer/internal/logging"
	"github.com/psantana5/scopetimer/pkg/timer"
)

// Result is the record of one measured run. Fill it once, then treat it
// as read-only: metrics and logs are projections of it.
type Result struct {
	// Identity
	ID      string   `json:"id"`
	Label   string   `json:"label,omitempty"`
	Command []string `json:"command,omitempty"`
	PID     int      `json:"pid,omitempty"`

	// Timing
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Seconds   float64   `json:"seconds"`

	// Measurement, as written to the timer sink
	Mode             string  `json:"mode"`
	Elapsed          float64 `json:"elapsed"`
	ElapsedFormatted any     `json:"elapsed_formatted"`
	Unit             string  `json:"unit"`

	// Outcome
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

// NewResult creates a result with a fresh ID
func NewResult(label string, mode timer.FormatMode, command []string) *Result {
	return &Result{
		ID:      uuid.NewString(),
		Label:   label,
		Mode:    mode.String(),
		Command: command,
	}
}

// SetTiming records the wall-clock bounds of the run
func (r *Result) SetTiming(start, end time.Time) {
	r.StartTime = start
	r.EndTime = end
	r.Seconds = end.Sub(start).Seconds()
}

// SetProcess records the workload process outcome
func (r *Result) SetProcess(pid, exitCode int) {
	r.PID = pid
	r.ExitCode = exitCode
}

// SetError records why the measurement or the run failed
func (r *Result) SetError(err error) {
	if err != nil {
		r.Error = err.Error()
	}
}

// ApplySink copies the measurement entries a timer wrote into sink
func (r *Result) ApplySink(sink timer.Sink) {
	if elapsed, ok := sink.Elapsed(); ok {
		r.Elapsed = elapsed
	}
	r.ElapsedFormatted = sink.Formatted()
	r.Unit = sink.Unit()
}

// Measured reports whether a measurement was recorded
func (r *Result) Measured() bool {
	return r.ElapsedFormatted != nil
}

// Summary renders the one-line description used in logs
func (r *Result) Summary() string {
	status := "OK"
	if r.Error != "" {
		status = "FAILED"
	}

	measured := "n/a"
	if r.Measured() {
		measured = strings.TrimSpace(fmt.Sprintf("%v %s", r.ElapsedFormatted, r.Unit))
	}

	return fmt.Sprintf("RUN %s | status=%s | label=%q | mode=%s | measured=%s | exit=%d | pid=%d",
		r.ID,
		status,
		r.Label,
		r.Mode,
		measured,
		r.ExitCode,
		r.PID,
	)
}

// LogSummary writes Summary through logger at INFO, or WARN on failure
func (r *Result) LogSummary(logger *logging.Logger) {
	if r.Error != "" {
		logger.Warn(r.Summary(), map[string]interface{}{"error": r.Error})
		return
	}
	logger.Info(r.Summary())
}
