package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leakwatch/leakwatch/internal/store"
)

var (
	queryProvider string
	queryMinScore int
	querySince    time.Duration
	queryLimit    int
)

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&queryProvider, "provider", "", "Filter by provider name")
	queryCmd.Flags().IntVar(&queryMinScore, "min-score", 0, "Minimum risk score (0-10)")
	queryCmd.Flags().DurationVar(&querySince, "since", 0, "Look-back window, e.g. 24h")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Maximum records to print")
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the audit trail",
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.Query(store.Filters{
		Provider:     queryProvider,
		MinRiskScore: queryMinScore,
		Since:        querySince,
	}, queryLimit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "no matching records")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  risk=%-2d  %-12s  %s  %s\n",
			rec.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			rec.RiskScore, rec.Provider, rec.Direction, rec.URL)
	}
	fmt.Fprintf(os.Stderr, "%d record(s)\n", len(records))
	return nil
}
