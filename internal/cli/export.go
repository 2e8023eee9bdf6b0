package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leakwatch/leakwatch/internal/report"
)

var exportFormat string

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json or csv")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full audit trail to stdout",
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := st.ExportAll()
	if err != nil {
		return err
	}

	switch exportFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case "csv":
		return report.WriteCSV(os.Stdout, snap)
	default:
		return fmt.Errorf("unknown format %q (want json or csv)", exportFormat)
	}
}
