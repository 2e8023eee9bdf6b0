package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/leakwatch/leakwatch/internal/model"
	"github.com/leakwatch/leakwatch/internal/report"
	"github.com/leakwatch/leakwatch/internal/store"
)

// maxObservationBody bounds a single ingest request.
const maxObservationBody = 4 << 20

// queryResponse carries query results plus any non-fatal filter
// diagnostics. A malformed filter value degrades the query, it does not
// abort it.
type queryResponse struct {
	Records     []model.CanonicalInteraction `json:"records"`
	Diagnostics []string                     `json:"diagnostics,omitempty"`
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	var obs model.Observation
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxObservationBody))
	if err := dec.Decode(&obs); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Sprintf("decode observation: %v", err))
		return
	}

	switch obs.SourceKind {
	case model.SourceNetworkRequest, model.SourceNetworkResponse, model.SourceDOMExtract:
	default:
		httpError(w, http.StatusBadRequest, fmt.Sprintf("unknown source kind %q", obs.SourceKind))
		return
	}
	switch obs.Direction {
	case model.DirectionRequest, model.DirectionResponse:
	default:
		httpError(w, http.StatusBadRequest, fmt.Sprintf("unknown direction %q", obs.Direction))
		return
	}

	if obs.ObservedAt.IsZero() {
		obs.ObservedAt = time.Now().UTC()
	}
	if obs.Provider == "" {
		obs.Provider = s.snapshot().Providers.Resolve(obs.URL)
	}

	s.correlator.Observe(obs)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.Filters
	var diags []string

	f.Provider = q.Get("provider")

	if v := q.Get("min_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			diags = append(diags, fmt.Sprintf("min_score %q ignored: not a non-negative integer", v))
		} else {
			f.MinRiskScore = n
		}
	}
	if v := q.Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			diags = append(diags, fmt.Sprintf("since %q ignored: not a duration", v))
		} else {
			f.Since = d
		}
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			diags = append(diags, fmt.Sprintf("limit %q ignored: not a non-negative integer", v))
		} else {
			limit = n
		}
	}

	records, err := s.store.Query(f, limit)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []model.CanonicalInteraction{}
	}
	writeJSON(w, queryResponse{Records: records, Diagnostics: diags})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := s.store.Index(limit)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []model.LogIndexEntry{}
	}
	writeJSON(w, entries)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.ExportAll()
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.ExportAll()
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	if err := report.WriteCSV(w, snap); err != nil {
		// Headers are gone; all that is left is to log.
		fmt.Fprintf(w, "\n# report aborted: %v\n", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(s.snapshot().Threshold)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	cs := s.correlator.Stats()
	writeJSON(w, map[string]any{
		"status":       "ok",
		"open_windows": cs.Open,
		"finalized":    cs.Finalized,
		"late_drops":   cs.LateDrops,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
