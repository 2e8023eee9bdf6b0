package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate audit trail statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	st, snap, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(snap.Threshold)
	if err != nil {
		return err
	}

	fmt.Printf("Total records:   %d\n", stats.TotalRecords)
	fmt.Printf("High risk (>=%d): %d\n", snap.Threshold, stats.HighRiskCount)
	fmt.Printf("Today:           %d\n", stats.TodayCount)
	fmt.Printf("Storage (est):   %d bytes\n", stats.SizeEstimate)
	return nil
}
