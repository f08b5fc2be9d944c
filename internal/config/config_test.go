package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/scopetimer/pkg/timer"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, timer.FormatRounded, cfg.Format)
	assert.True(t, cfg.Output)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "localhost:9095", cfg.Serve.Addr)
	assert.Equal(t, 15*time.Second, cfg.Serve.ReadTimeout)
	assert.Equal(t, "scopetimer", cfg.Tracing.ServiceName)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `label: nightly
format: clock
output: false
log:
  level: debug
serve:
  addr: 0.0.0.0:8088
  read_timeout: 5s
tracing:
  enabled: true
  otlp_endpoint: collector:4318
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "nightly", cfg.Label)
	assert.Equal(t, timer.FormatClock, cfg.Format)
	assert.False(t, cfg.Output)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0:8088", cfg.Serve.Addr)
	assert.Equal(t, 5*time.Second, cfg.Serve.ReadTimeout)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "collector:4318", cfg.Tracing.OTLPEndpoint)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SCOPETIMER_FORMAT", "2")
	t.Setenv("SCOPETIMER_LOG_LEVEL", "error")

	v := newViper()
	BindEnv(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, timer.FormatHundredths, cfg.Format)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]func(v *viper.Viper){
		"mode out of range": func(v *viper.Viper) { v.Set("format", 7) },
		"unknown log level": func(v *viper.Viper) { v.Set("log.level", "loud") },
		"negative rate":     func(v *viper.Viper) { v.Set("serve.rate_limit", -1.0) },
		"bad address":       func(v *viper.Viper) { v.Set("serve.addr", "nowhere") },
		"zero burst":        func(v *viper.Viper) { v.Set("serve.burst", 0) },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			v := newViper()
			mutate(v)

			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), ValidationErrorPrefix)
		})
	}
}

func TestLoadRejectsUnknownModeName(t *testing.T) {
	v := newViper()
	v.Set("format", "weekly")

	_, err := Load(v)
	assert.Error(t, err)
}
