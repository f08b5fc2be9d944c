package wrapper

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/psantana5/scopetimer/internal/logging"
	clocktest "github.com/psantana5/scopetimer/internal/observe/testutil"
	"github.com/psantana5/scopetimer/internal/report"
	"github.com/psantana5/scopetimer/pkg/timer"
)

func TestRunSuccess(t *testing.T) {
	var out bytes.Buffer
	metrics := report.NewMetrics()

	result, err := Run(context.Background(), Spec{
		Label:   "echo",
		Mode:    timer.FormatRounded,
		Command: "echo",
		Args:    []string{"hello"},
		Stdout:  &out,
		Clock:   clocktest.Seconds(0, 500),
		Metrics: metrics,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.NotZero(t, result.PID)
	assert.Equal(t, []string{"echo", "hello"}, result.Command)
	assert.Equal(t, 8.0, result.ElapsedFormatted)
	assert.Equal(t, timer.UnitMinutes, result.Unit)
	assert.Empty(t, result.Error)
	assert.Equal(t, "hello\necho\t-\t8 minute(s)\n", out.String())

	text, err := metrics.PrometheusExport()
	require.NoError(t, err)
	assert.Contains(t, text, `scopetimer_measurements_total{mode="rounded",unit="minute(s)"} 1`)
}

func TestRunNonZeroExit(t *testing.T) {
	metrics := report.NewMetrics()

	result, err := Run(context.Background(), Spec{
		Command: "sh",
		Args:    []string{"-c", "exit 3"},
		Quiet:   true,
		Stdout:  &bytes.Buffer{},
		Metrics: metrics,
	})
	require.NoError(t, err, "a failing workload is not a wrapper error")

	assert.Equal(t, 3, result.ExitCode)
	assert.True(t, result.Measured())
	text, err := metrics.PrometheusExport()
	require.NoError(t, err)
	assert.Contains(t, text, `scopetimer_measurement_failures_total{reason="workload"} 1`)
}

func TestRunQuietPrintsNothing(t *testing.T) {
	var out bytes.Buffer
	result, err := Run(context.Background(), Spec{
		Command: "true",
		Quiet:   true,
		Stdout:  &out,
		Clock:   clocktest.Seconds(0, 2),
	})
	require.NoError(t, err)

	assert.Empty(t, out.String())
	assert.Equal(t, 2.0, result.ElapsedFormatted)
	assert.Equal(t, timer.UnitSeconds, result.Unit)
}

func TestRunMissingCommand(t *testing.T) {
	metrics := report.NewMetrics()
	var out bytes.Buffer

	result, err := Run(context.Background(), Spec{
		Label:   "missing",
		Command: "/nonexistent/scopetimer-test-binary",
		Stdout:  &out,
		Metrics: metrics,
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "failed to start")
	assert.Empty(t, out.String())

	text, exportErr := metrics.PrometheusExport()
	require.NoError(t, exportErr)
	assert.Contains(t, text, `scopetimer_measurement_failures_total{reason="start"} 1`)
	assert.NotContains(t, text, "scopetimer_measurements_total{")
}

func TestRunEmptyCommand(t *testing.T) {
	_, err := Run(context.Background(), Spec{})
	assert.EqualError(t, err, "no command specified")
}

func TestRunClockOverflow(t *testing.T) {
	var out bytes.Buffer
	result, err := Run(context.Background(), Spec{
		Command: "true",
		Mode:    timer.FormatClock,
		Stdout:  &out,
		Clock:   clocktest.Seconds(0, 90000),
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, timer.ErrRange))
	require.NotNil(t, result)
	assert.False(t, result.Measured())
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, out.String())
}

func TestRunSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, err := Run(context.Background(), Spec{
		Label:   "traced",
		Mode:    timer.FormatHundredths,
		Command: "true",
		Quiet:   true,
		Stdout:  &bytes.Buffer{},
		Clock:   clocktest.Seconds(0, 8450),
		Tracer:  tp.Tracer("test"),
	})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "scopetimer.run", span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)

	attrs := map[string]string{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "traced", attrs["scopetimer.label"])
	assert.Equal(t, "2.35", attrs["scopetimer.elapsed_formatted"])
	assert.Equal(t, timer.UnitHours, attrs["scopetimer.unit"])
	assert.Equal(t, "0", attrs["process.exit_code"])
}

func TestRunLogsSummaryWithCommand(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewLogger(logging.INFO, false)
	logger.SetOutput(&logs)

	result, err := Run(context.Background(), Spec{
		Label:   "noop",
		Mode:    timer.FormatHundredths,
		Quiet:   true,
		Command: "true",
		Stdout:  &bytes.Buffer{},
		Clock:   clocktest.Seconds(0, 2),
		Logger:  logger,
	})
	require.NoError(t, err)
	assert.Equal(t, "hundredths", result.Mode)
	assert.Equal(t, "noop", result.Label)
	assert.Contains(t, logs.String(), "INFO: "+result.Summary())
	assert.Contains(t, logs.String(), "command=true")
}
