package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/psantana5/scopetimer/internal/server"
	"github.com/psantana5/scopetimer/pkg/timer"
)

var formatJSON bool

var formatCmd = &cobra.Command{
	Use:   "format <seconds|duration>",
	Short: "Format a duration without running anything",
	Long: `Format converts a duration given in seconds (8450.5) or as a Go duration
string (2h20m50s) using the selected format mode.

Example:
  scopetimer format 0.5
  scopetimer format --format clock 8450.5
  scopetimer format --format hundredths --label build 1h30m`,
	Args: cobra.ExactArgs(1),
	RunE: runFormat,
}

func init() {
	rootCmd.AddCommand(formatCmd)

	formatCmd.Flags().String("label", "", "label printed before the elapsed time")
	formatCmd.Flags().String("format", "", "format mode: 0-4 or seconds, rounded, hundredths, exact, clock")
	formatCmd.Flags().BoolVar(&formatJSON, "json", false, "print the measurement as JSON")
}

func runFormat(cmd *cobra.Command, args []string) error {
	seconds, err := parseSeconds(args[0])
	if err != nil {
		return err
	}

	m, err := timer.Format(seconds, cfg.Format)
	if err != nil {
		return err
	}

	if formatJSON {
		return outputJSON(cmd.OutOrStdout(), server.FormatResponse{
			Mode:             m.Mode.String(),
			Seconds:          m.Seconds,
			Elapsed:          m.Elapsed,
			ElapsedFormatted: m.Formatted(),
			Unit:             m.Unit,
			Line:             m.Line(cfg.Label),
		})
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), m.Line(cfg.Label))
	return err
}

// parseSeconds accepts plain seconds or a time.Duration string
func parseSeconds(arg string) (float64, error) {
	arg = strings.TrimSpace(arg)
	if s, err := strconv.ParseFloat(arg, 64); err == nil {
		if math.IsInf(s, 0) || math.IsNaN(s) {
			return 0, fmt.Errorf("duration must be a finite number: %s", arg)
		}
		if s < 0 {
			return 0, fmt.Errorf("duration must not be negative: %s", arg)
		}
		return s, nil
	}

	d, err := time.ParseDuration(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: expected seconds or a duration like 1m30s", arg)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s", arg)
	}
	return d.Seconds(), nil
}
