package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/leakwatch/leakwatch/internal/model"
	"github.com/leakwatch/leakwatch/internal/store"
)

// QueryInput defines parameters for the leakwatch_query tool.
type QueryInput struct {
	Provider string `json:"provider,omitempty" jsonschema:"provider name to filter by"`
	MinScore int    `json:"min_score,omitempty" jsonschema:"minimum risk score (0-10)"`
	Since    string `json:"since,omitempty" jsonschema:"look-back duration, e.g. 24h"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum records to return"`
}

// QueryOutput contains matching records, most recent first.
type QueryOutput struct {
	Records []model.CanonicalInteraction `json:"records"`
	Total   int                          `json:"total"`
}

// ExportInput has no parameters.
type ExportInput struct{}

// ExportOutput contains the full snapshot.
type ExportOutput struct {
	ExportedAt   string                       `json:"exported_at"`
	TotalEntries int                          `json:"total_entries"`
	Records      []model.CanonicalInteraction `json:"records"`
}

// StatsInput has no parameters.
type StatsInput struct{}

// StatsOutput contains aggregate counts.
type StatsOutput struct {
	TotalRecords  int   `json:"total_records"`
	HighRiskCount int   `json:"high_risk_count"`
	TodayCount    int   `json:"today_count"`
	SizeEstimate  int64 `json:"size_estimate_bytes"`
}

// SweepInput defines parameters for the leakwatch_sweep tool.
type SweepInput struct {
	MaxAgeDays int `json:"max_age_days,omitempty" jsonschema:"age threshold in days, defaults to the configured retention"`
}

// SweepOutput reports how many records were removed.
type SweepOutput struct {
	Removed int `json:"removed"`
}

func (s *Server) handleQuery(ctx context.Context, req *mcpsdk.CallToolRequest, input QueryInput) (*mcpsdk.CallToolResult, QueryOutput, error) {
	f := store.Filters{
		Provider:     input.Provider,
		MinRiskScore: input.MinScore,
	}
	if input.Since != "" {
		d, err := time.ParseDuration(input.Since)
		if err != nil {
			return nil, QueryOutput{}, fmt.Errorf("invalid since duration %q: %w", input.Since, err)
		}
		f.Since = d
	}

	records, err := s.store.Query(f, input.Limit)
	if err != nil {
		return nil, QueryOutput{}, err
	}
	return nil, QueryOutput{Records: records, Total: len(records)}, nil
}

func (s *Server) handleExport(ctx context.Context, req *mcpsdk.CallToolRequest, input ExportInput) (*mcpsdk.CallToolResult, ExportOutput, error) {
	snap, err := s.store.ExportAll()
	if err != nil {
		return nil, ExportOutput{}, err
	}
	return nil, ExportOutput{
		ExportedAt:   snap.ExportedAt.Format(time.RFC3339),
		TotalEntries: snap.TotalEntries,
		Records:      snap.Records,
	}, nil
}

func (s *Server) handleStats(ctx context.Context, req *mcpsdk.CallToolRequest, input StatsInput) (*mcpsdk.CallToolResult, StatsOutput, error) {
	stats, err := s.store.Stats(s.snap.Threshold)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, StatsOutput{
		TotalRecords:  stats.TotalRecords,
		HighRiskCount: stats.HighRiskCount,
		TodayCount:    stats.TodayCount,
		SizeEstimate:  stats.SizeEstimate,
	}, nil
}

func (s *Server) handleSweep(ctx context.Context, req *mcpsdk.CallToolRequest, input SweepInput) (*mcpsdk.CallToolResult, SweepOutput, error) {
	days := input.MaxAgeDays
	if days <= 0 {
		days = s.snap.Retention.MaxAgeDays
	}
	removed, err := s.store.SweepExpired(days)
	if err != nil {
		return nil, SweepOutput{Removed: removed}, err
	}
	return nil, SweepOutput{Removed: removed}, nil
}
