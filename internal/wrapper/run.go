package wrapper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/psantana5/scopetimer/internal/logging"
	"github.com/psantana5/scopetimer/internal/observe"
	"github.com/psantana5/scopetimer/internal/report"
	"github.com/psantana5/scopetimer/internal/tracing"
	"github.com/psantana5/scopetimer/pkg/timer"
)

// Spec describes one measured command
type Spec struct {
	Label   string
	Mode    timer.FormatMode
	Quiet   bool
	Command string
	Args    []string
	Dir     string

	// Stdout receives both the workload output and the measurement line
	Stdout io.Writer
	Stderr io.Writer

	Clock   observe.Clock
	Tracer  trace.Tracer
	Metrics *report.Metrics
	Logger  *logging.Logger
}

func (s *Spec) defaults() {
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}
	if s.Tracer == nil {
		s.Tracer = noop.NewTracerProvider().Tracer("")
	}
	if s.Logger == nil {
		s.Logger = logging.Discard()
	}
}

// Run starts the command, waits for it and measures the whole run.
// A non-zero exit code is part of the Result, not an error. Errors are
// returned when the command cannot start, or when the measurement itself
// fails; in the latter case the Result is returned too. A command that
// never starts is not a measured scope: nothing is printed, no sink entry
// is written and only the start failure is counted.
func Run(ctx context.Context, spec Spec) (*report.Result, error) {
	if spec.Command == "" {
		return nil, fmt.Errorf("no command specified")
	}
	spec.defaults()
	logger := spec.Logger.WithField("command", spec.Command)

	sink := timer.Sink{}
	opts := []timer.Option{
		timer.WithLabel(spec.Label),
		timer.WithSink(sink),
		timer.WithFormat(spec.Mode),
		timer.WithOutput(!spec.Quiet),
		timer.WithWriter(spec.Stdout),
		timer.WithLogger(logger),
	}
	if spec.Clock != nil {
		opts = append(opts, timer.WithClock(spec.Clock))
	}
	var record func(timer.Measurement)
	if spec.Metrics != nil {
		record = spec.Metrics.Observer(spec.Label)
	}
	var measurement timer.Measurement
	opts = append(opts, timer.WithObserver(func(m timer.Measurement) {
		measurement = m
		if record != nil {
			record(m)
		}
	}))

	t, err := timer.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid timer configuration: %w", err)
	}

	command := append([]string{spec.Command}, spec.Args...)
	result := report.NewResult(t.Label(), t.Mode(), command)

	ctx, span := spec.Tracer.Start(ctx, "scopetimer.run", trace.WithAttributes(
		attribute.String("scopetimer.label", spec.Label),
		attribute.StringSlice("process.command_args", command),
	))
	defer span.End()

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	startedAt := time.Now()
	t.Start()
	if err := cmd.Start(); err != nil {
		if spec.Metrics != nil {
			spec.Metrics.RecordFailure(report.ReasonStart)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "start failed")
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	pid := cmd.Process.Pid

	exitCode := 0
	waitErr := cmd.Wait()
	_, stopErr := t.Stop()
	result.SetTiming(startedAt, time.Now())

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			span.RecordError(waitErr)
			span.SetStatus(codes.Error, "wait failed")
			return nil, fmt.Errorf("failed waiting for %s: %w", spec.Command, waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	result.SetProcess(pid, exitCode)
	result.ApplySink(sink)
	result.SetError(stopErr)

	span.SetAttributes(attribute.Int("process.pid", pid), attribute.Int("process.exit_code", exitCode))
	if stopErr == nil {
		span.SetAttributes(tracing.MeasurementAttributes(spec.Label, measurement)...)
	}
	switch {
	case stopErr != nil:
		span.RecordError(stopErr)
		span.SetStatus(codes.Error, "measurement failed")
	case exitCode != 0:
		span.SetStatus(codes.Error, fmt.Sprintf("exit code %d", exitCode))
	default:
		span.SetStatus(codes.Ok, "")
	}

	if spec.Metrics != nil {
		spec.Metrics.RecordResult(result)
	}
	result.LogSummary(logger)

	if stopErr != nil {
		return result, stopErr
	}
	return result, nil
}
