package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/psantana5/scopetimer/internal/config"
	"github.com/psantana5/scopetimer/internal/logging"
)

var (
	cfgFile string

	// Set by loadConfig before any subcommand runs
	cfg    *config.Config
	logger = logging.Discard()
)

// flagKeys maps command-line flags to configuration keys
var flagKeys = map[string]string{
	"label":         "label",
	"format":        "format",
	"metrics-file":  "metrics_file",
	"log-level":     "log.level",
	"log-json":      "log.json",
	"log-file":      "log.file",
	"addr":          "serve.addr",
	"rate-limit":    "serve.rate_limit",
	"burst":         "serve.burst",
	"otlp-endpoint": "tracing.otlp_endpoint",
}

// ExitError carries the exit code of a measured workload
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("workload exited with code %d", e.Code)
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "scopetimer",
	Short: "Measure how long things take",
	Long: `scopetimer measures the wall-clock duration of a command and reports it in
a human-readable unit. It can also format arbitrary durations and serve the
formatter over HTTP.

Format modes:
  0 seconds     raw seconds, no rounding
  1 rounded     best-fit unit, no decimals (default)
  2 hundredths  best-fit unit, two decimals
  3 exact       best-fit unit, no rounding
  4 clock       HH:MM:SS:mmm.uuu, up to 24 hours`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// The logger is closed on every path, including failed commands.
func Execute() (err error) {
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close log file: %w", closeErr)
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.scopetimer/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "log as JSON")
	rootCmd.PersistentFlags().String("log-file", "", "also append logs to this file")
}

// loadConfig reads the config file, environment and flags into cfg
func loadConfig(cmd *cobra.Command, args []string) error {
	v := viper.New()
	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".scopetimer"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("otlp-endpoint"); f != nil && f.Changed {
		v.Set("tracing.enabled", true)
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("quiet"); f != nil && f.Changed && f.Value.String() == "true" {
		loaded.Output = false
	}
	cfg = loaded

	return setupLogger(cmd, cfg.Log)
}

// bindFlags binds every known flag present on the command
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setupLogger(cmd *cobra.Command, lc config.LogConfig) error {
	level := logging.ParseLevel(lc.Level)
	if lc.File == "" {
		logger = logging.NewLogger(level, lc.JSON)
		logger.SetOutput(cmd.ErrOrStderr())
		return nil
	}

	fileLogger, err := logging.NewFileLogger(lc.File, level, lc.JSON)
	if err != nil {
		return err
	}
	logger = fileLogger
	return nil
}
