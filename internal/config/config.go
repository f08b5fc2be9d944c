package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/psantana5/scopetimer/internal/tracing"
	"github.com/psantana5/scopetimer/pkg/timer"
)

// EnvPrefix prefixes every environment override, e.g. SCOPETIMER_FORMAT
const EnvPrefix = "SCOPETIMER"

// ValidationErrorPrefix starts every error returned by Validate
const ValidationErrorPrefix = "invalid configuration: "

// Config is the effective configuration of the CLI
type Config struct {
	Label       string           `mapstructure:"label" yaml:"label" json:"label"`
	Format      timer.FormatMode `mapstructure:"format" yaml:"format" json:"format" validate:"min=0,max=4"`
	Output      bool             `mapstructure:"output" yaml:"output" json:"output"`
	MetricsFile string           `mapstructure:"metrics_file" yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"`

	Log     LogConfig      `mapstructure:"log" yaml:"log" json:"log"`
	Serve   ServeConfig    `mapstructure:"serve" yaml:"serve" json:"serve"`
	Tracing tracing.Config `mapstructure:"tracing" yaml:"tracing" json:"tracing"`
}

// LogConfig configures the diagnostic logger
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" json:"level" validate:"oneof=debug info warn warning error"`
	JSON  bool   `mapstructure:"json" yaml:"json" json:"json"`
	File  string `mapstructure:"file" yaml:"file,omitempty" json:"file,omitempty"`
}

// ServeConfig configures the HTTP surface
type ServeConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr" json:"addr" validate:"required,hostname_port"`
	RateLimit    float64       `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit" validate:"gte=0"`
	Burst        int           `mapstructure:"burst" yaml:"burst" json:"burst" validate:"gte=1"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout" validate:"gt=0"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("label", "")
	v.SetDefault("format", int(timer.DefaultFormat))
	v.SetDefault("output", true)
	v.SetDefault("metrics_file", "")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")

	v.SetDefault("serve.addr", "localhost:9095")
	v.SetDefault("serve.rate_limit", 20.0)
	v.SetDefault("serve.burst", 40)
	v.SetDefault("serve.read_timeout", 15*time.Second)
	v.SetDefault("serve.write_timeout", 15*time.Second)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "scopetimer")
	v.SetDefault("tracing.service_version", "dev")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.otlp_endpoint", "localhost:4318")
}

// BindEnv makes SCOPETIMER_<KEY> override every key, with dots as underscores
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf(ValidationErrorPrefix+"%w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf(ValidationErrorPrefix+"%s", strings.Join(msgs, "; "))
}
