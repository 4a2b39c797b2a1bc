package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/isheraz/stroll-test/internal/config"
	"github.com/isheraz/stroll-test/internal/cycle"
)

var (
	cycleDate string
	cycleType string
)

func init() {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Print the cycle window for a date",
		Long:  "Print the cycle number and window containing --date (default now). With --type the date is numbered in calendar days or weeks.",
		RunE:  runCycle,
	}
	cmd.Flags().StringVar(&cycleDate, "date", "", "Date as YYYY-MM-DD or RFC3339 (default: now)")
	cmd.Flags().StringVar(&cycleType, "type", "", "Cycle type: day or week (default: configured duration)")

	RootCmd.AddCommand(cmd)
}

func runCycle(cmd *cobra.Command, args []string) error {
	epoch, days, err := config.LoadCycle()
	if err != nil {
		return err
	}
	calc, err := cycle.NewCalculator(epoch, days)
	if err != nil {
		return err
	}

	ref := time.Now().UTC()
	if cycleDate != "" {
		ref, err = parseDate(cycleDate)
		if err != nil {
			return err
		}
	}

	return printCycle(cmd.OutOrStdout(), calc, ref, cycleType)
}

func printCycle(w io.Writer, calc cycle.Calculator, ref time.Time, rawType string) error {
	var c cycle.Cycle
	if rawType == "" {
		n, err := calc.Current(ref)
		if err != nil {
			return err
		}
		if c, err = calc.Cycle(n); err != nil {
			return err
		}
	} else {
		t, err := cycle.ParseType(rawType)
		if err != nil {
			return err
		}
		if c, err = calc.ForDateCycle(ref, t); err != nil {
			return err
		}
	}

	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD or RFC3339", raw)
	}
	return t, nil
}
