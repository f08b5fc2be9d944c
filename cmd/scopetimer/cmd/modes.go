package cmd

import (
	"errors"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/scopetimer/pkg/timer"
)

var modesCmd = &cobra.Command{
	Use:   "modes [seconds|duration]",
	Short: "Show every format mode, optionally applied to a duration",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModes,
}

func init() {
	rootCmd.AddCommand(modesCmd)
}

func runModes(cmd *cobra.Command, args []string) error {
	table := tablewriter.NewWriter(cmd.OutOrStdout())

	if len(args) == 0 {
		table.Header("Mode", "Name")
		for _, mode := range timer.Modes() {
			table.Append([]string{strconv.Itoa(int(mode)), mode.String()})
		}
		return table.Render()
	}

	seconds, err := parseSeconds(args[0])
	if err != nil {
		return err
	}

	table.Header("Mode", "Name", "Elapsed", "Unit")
	for _, mode := range timer.Modes() {
		m, err := timer.Format(seconds, mode)
		if errors.Is(err, timer.ErrRange) {
			table.Append([]string{strconv.Itoa(int(mode)), mode.String(), "out of range", "-"})
			continue
		}
		if err != nil {
			return err
		}

		unit := m.Unit
		if unit == "" {
			unit = "-"
		}
		table.Append([]string{strconv.Itoa(int(mode)), mode.String(), m.FormattedString(), unit})
	}
	return table.Render()
}
