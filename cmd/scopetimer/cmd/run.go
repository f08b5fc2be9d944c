package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/psantana5/scopetimer/internal/report"
	"github.com/psantana5/scopetimer/internal/shutdown"
	"github.com/psantana5/scopetimer/internal/tracing"
	"github.com/psantana5/scopetimer/internal/wrapper"
)

var (
	workDir    string
	jsonOutput bool
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <command> [args...]",
	Short: "Run a command and report how long it took",
	Long: `Run spawns the command, waits for it and prints the elapsed time in the
selected format mode. The workload's exit code becomes scopetimer's exit code.

Example:
  scopetimer run --label build -- make all
  scopetimer run --format clock -- ./long-job.sh
  scopetimer run --quiet --json -- sleep 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWorkload,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("label", "", "label printed before the elapsed time")
	runCmd.Flags().String("format", "", "format mode: 0-4 or seconds, rounded, hundredths, exact, clock")
	runCmd.Flags().Bool("quiet", false, "do not print the elapsed time line")
	runCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file after the run")
	runCmd.Flags().String("otlp-endpoint", "", "export a trace span to this OTLP/HTTP endpoint")
	runCmd.Flags().StringVar(&workDir, "workdir", "", "working directory for the command")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the run result as JSON")
}

func runWorkload(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdowns := shutdown.New(5*time.Second, logger)
	defer shutdowns.Shutdown()

	provider, err := tracing.InitTracer(ctx, cfg.Tracing, logger)
	if err != nil {
		return err
	}
	shutdowns.Register("tracer", provider.Shutdown)

	metrics := report.Global()
	result, runErr := wrapper.Run(ctx, wrapper.Spec{
		Label:   cfg.Label,
		Mode:    cfg.Format,
		Quiet:   !cfg.Output,
		Command: args[0],
		Args:    args[1:],
		Dir:     workDir,
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
		Tracer:  provider.Tracer(),
		Metrics: metrics,
		Logger:  logger,
	})

	if result != nil && jsonOutput {
		if err := outputJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteFile(cfg.MetricsFile); err != nil {
			logger.Error("Failed to write metrics file", map[string]interface{}{
				"path":  cfg.MetricsFile,
				"error": err.Error(),
			})
		}
	}

	if runErr != nil {
		return runErr
	}
	if result.ExitCode != 0 {
		return &ExitError{Code: result.ExitCode}
	}
	return nil
}

func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
