package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/leakwatch/leakwatch/internal/model"
	"github.com/leakwatch/leakwatch/internal/store"
)

func TestWriteCSV(t *testing.T) {
	ts := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	snap := store.Snapshot{
		ExportedAt:   ts,
		TotalEntries: 2,
		Records: []model.CanonicalInteraction{
			{
				ID:        "i-1",
				Timestamp: ts,
				Provider:  "openai",
				URL:       "https://api.openai.com/v1/chat",
				Direction: model.DirectionRequest,
				RiskScore: 8,
				Analysis: model.Analysis{
					CategoriesPresent: []model.Category{model.CategoryEmail, model.CategoryCredentialLike},
					TotalMatchCount:   3,
					HasPersonalData:   true,
					HasSecrets:        true,
				},
			},
			{
				ID:        "i-2",
				Timestamp: ts.Add(time.Minute),
				Provider:  "anthropic",
				URL:       "https://api.anthropic.com/v1/messages",
				Direction: model.DirectionResponse,
				RiskScore: 0,
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, snap); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Columns, ",") {
		t.Errorf("header mismatch: %v", rows[0])
	}

	first := rows[1]
	if first[0] != "2026-08-23T12:00:00Z" {
		t.Errorf("timestamp: %q", first[0])
	}
	if first[1] != "openai" || first[3] != "8" {
		t.Errorf("provider/score: %v", first)
	}
	if first[4] != "email;credentialLike" {
		t.Errorf("categories column: %q", first[4])
	}
	if first[5] != "true" || first[6] != "true" || first[7] != "false" {
		t.Errorf("flag columns: %v", first[5:8])
	}
	if first[8] != "3" {
		t.Errorf("match count: %q", first[8])
	}

	second := rows[2]
	if second[4] != "" || second[3] != "0" {
		t.Errorf("clean record row wrong: %v", second)
	}
}

func TestWriteCSVEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, store.Snapshot{}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("empty snapshot should still emit the header, got %d rows", len(rows))
	}
}
