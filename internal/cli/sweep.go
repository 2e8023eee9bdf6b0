package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepMaxAgeDays int

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepMaxAgeDays, "max-age-days", 0, "Age threshold in days (defaults to configured retention)")
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove records older than the retention age",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	st, snap, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	days := sweepMaxAgeDays
	if days <= 0 {
		days = snap.Retention.MaxAgeDays
	}

	removed, err := st.SweepExpired(days)
	if err != nil {
		return fmt.Errorf("sweep removed %d record(s) before failing: %w", removed, err)
	}
	fmt.Printf("removed %d record(s) older than %d day(s)\n", removed, days)
	return nil
}
