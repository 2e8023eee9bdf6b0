// Package report renders log store snapshots as delimited-text reports.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/leakwatch/leakwatch/internal/store"
)

// Columns is the documented column set of the CSV report, in order.
var Columns = []string{
	"timestamp",
	"provider",
	"url",
	"risk_score",
	"categories",
	"personal_data",
	"secrets",
	"code",
	"match_count",
}

// WriteCSV writes one row per record in the snapshot, preceded by the
// header row.
func WriteCSV(w io.Writer, snap store.Snapshot) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}

	for _, rec := range snap.Records {
		cats := make([]string, len(rec.Analysis.CategoriesPresent))
		for i, c := range rec.Analysis.CategoriesPresent {
			cats[i] = string(c)
		}
		row := []string{
			rec.Timestamp.UTC().Format(time.RFC3339),
			rec.Provider,
			rec.URL,
			strconv.Itoa(rec.RiskScore),
			strings.Join(cats, ";"),
			strconv.FormatBool(rec.Analysis.HasPersonalData),
			strconv.FormatBool(rec.Analysis.HasSecrets),
			strconv.FormatBool(rec.Analysis.HasCode),
			strconv.Itoa(rec.Analysis.TotalMatchCount),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("report: write row for %s: %w", rec.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: flush: %w", err)
	}
	return nil
}
