package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/psantana5/scopetimer/internal/ratelimit"
	"github.com/psantana5/scopetimer/internal/report"
	"github.com/psantana5/scopetimer/internal/tracing"
)

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", target, nil))
	return rr
}

func TestHealth(t *testing.T) {
	h := New(report.NewMetrics(), nil, nil).Handler()

	rr := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestFormatDefaultMode(t *testing.T) {
	h := New(report.NewMetrics(), nil, nil).Handler()

	rr := get(t, h, "/v1/format?seconds=500&label=build")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp FormatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "rounded", resp.Mode)
	assert.Equal(t, 8.0, resp.ElapsedFormatted)
	assert.Equal(t, "minute(s)", resp.Unit)
	assert.Equal(t, "build\t-\t8 minute(s)", resp.Line)
	assert.InDelta(t, 500.0/60, resp.Elapsed, 1e-9)
}

func TestFormatClockMode(t *testing.T) {
	h := New(report.NewMetrics(), nil, nil).Handler()

	rr := get(t, h, "/v1/format?seconds=9544.2323&mode=4")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp FormatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "02:39:04:232.300", resp.ElapsedFormatted)
	assert.Equal(t, "", resp.Unit)
	assert.Equal(t, 9544.2323, resp.Elapsed)
}

func TestFormatModeByName(t *testing.T) {
	h := New(report.NewMetrics(), nil, nil).Handler()

	rr := get(t, h, "/v1/format?seconds=8450&mode=hundredths")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"elapsed_formatted":2.35`)
}

func TestFormatErrors(t *testing.T) {
	metrics := report.NewMetrics()
	h := New(metrics, nil, nil).Handler()

	tests := []struct {
		target string
		status int
	}{
		{"/v1/format", http.StatusBadRequest},
		{"/v1/format?seconds=abc", http.StatusBadRequest},
		{"/v1/format?seconds=-1", http.StatusBadRequest},
		{"/v1/format?seconds=1&mode=9", http.StatusBadRequest},
		{"/v1/format?seconds=NaN", http.StatusBadRequest},
		{"/v1/format?seconds=Inf", http.StatusBadRequest},
		{"/v1/format?seconds=inf&mode=0", http.StatusBadRequest},
		{"/v1/format?seconds=%2BInf&mode=exact", http.StatusBadRequest},
		{"/v1/format?seconds=-Inf&mode=3", http.StatusBadRequest},
		{"/v1/format?seconds=90000&mode=clock", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		rr := get(t, h, tt.target)
		assert.Equal(t, tt.status, rr.Code, tt.target)
		assert.Contains(t, rr.Body.String(), `"error"`, tt.target)
	}

	text, err := metrics.PrometheusExport()
	require.NoError(t, err)
	assert.Contains(t, text, `scopetimer_measurement_failures_total{reason="range"} 1`)
}

func TestMetricsEndpoint(t *testing.T) {
	h := New(report.NewMetrics(), nil, nil).Handler()
	get(t, h, "/v1/format?seconds=0.023&label=q")

	rr := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `scopetimer_measurements_total{mode="rounded",unit="millisecond(s)"} 1`)
}

func TestRateLimited(t *testing.T) {
	h := New(report.NewMetrics(), ratelimit.NewLimiter(1, 1), nil).Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, h, "/health").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := New(report.NewMetrics(), nil, nil).Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/v1/format?seconds=1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRequestsAreTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	p := tracing.NewProvider("scopetimer", sdktrace.WithSpanProcessor(recorder))
	defer p.Shutdown(context.Background())

	srv := New(report.NewMetrics(), nil, nil)
	srv.SetTracer(p.Tracer())
	h := srv.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/v1/format?seconds=2.5").Code)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /v1/format", ended[0].Name())
}

func TestWriteJSONUnencodableBody(t *testing.T) {
	srv := New(report.NewMetrics(), nil, nil)

	rr := httptest.NewRecorder()
	srv.writeJSON(rr, http.StatusOK, map[string]float64{"elapsed": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "failed to encode response", body["error"])
}
