// Package store persists canonical interactions in SQLite and maintains the
// size-bounded index over them.
//
// The retention bound is an invariant, not a maintenance pass: eviction of
// the oldest rows happens inside the same transaction as each append, so the
// index never exceeds MaxEntries at any observation point. Age-based removal
// is a separate, explicitly triggered sweep.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leakwatch/leakwatch/internal/model"
)

// DefaultQueryLimit caps query results when the caller does not.
const DefaultQueryLimit = 100

// perRowOverhead is the fixed bookkeeping cost added per record when
// estimating storage size, so the estimate is deterministic.
const perRowOverhead = 64

// Store is the bounded interaction log.
type Store struct {
	db        *sql.DB
	retention model.RetentionPolicy

	// mu serializes append+evict and sweeps. Two concurrent appends must
	// not both observe a pre-eviction size and jointly break the bound.
	mu sync.Mutex
}

// Filters narrow a query. Zero values mean "no constraint"; filters are
// conjunctive.
type Filters struct {
	Provider     string
	MinRiskScore int
	Since        time.Duration
}

// Snapshot is a consistent read-only export of the whole store.
type Snapshot struct {
	ExportedAt   time.Time                    `json:"exported_at"`
	TotalEntries int                          `json:"total_entries"`
	Records      []model.CanonicalInteraction `json:"records"`
}

// Stats are aggregate counts over the current index.
type Stats struct {
	TotalRecords  int   `json:"total_records"`
	HighRiskCount int   `json:"high_risk_count"`
	TodayCount    int   `json:"today_count"`
	SizeEstimate  int64 `json:"size_estimate_bytes"`
}

// Open opens (or creates) the store at path and applies the retention
// policy. MaxEntries <= 0 means unbounded.
func Open(path string, retention model.RetentionPolicy) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS interactions (
			id         TEXT PRIMARY KEY,
			ts         INTEGER NOT NULL,
			provider   TEXT NOT NULL,
			url        TEXT NOT NULL,
			direction  TEXT NOT NULL,
			risk_score INTEGER NOT NULL,
			body       TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_interactions_ts ON interactions(ts);
		CREATE INDEX IF NOT EXISTS idx_interactions_provider ON interactions(provider);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	return &Store{db: db, retention: retention}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append persists one finalized record and evicts the oldest rows above the
// retention bound, all in one transaction. Oldest means lowest timestamp,
// ties broken by insertion order. Storage errors surface to the caller.
func (s *Store) Append(rec model.CanonicalInteraction) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin append: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO interactions (id, ts, provider, url, direction, risk_score, body)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Timestamp.UnixMilli(), rec.Provider, rec.URL, string(rec.Direction), rec.RiskScore, string(body),
	); err != nil {
		return fmt.Errorf("store: insert record: %w", err)
	}

	if s.retention.MaxEntries > 0 {
		var count int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM interactions`).Scan(&count); err != nil {
			return fmt.Errorf("store: count index: %w", err)
		}
		if excess := count - s.retention.MaxEntries; excess > 0 {
			if _, err := tx.Exec(
				`DELETE FROM interactions WHERE rowid IN (
					SELECT rowid FROM interactions ORDER BY ts ASC, rowid ASC LIMIT ?
				)`, excess,
			); err != nil {
				return fmt.Errorf("store: evict oldest: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit append: %w", err)
	}
	return nil
}

// Query returns records matching all filters, most recent first. limit <= 0
// applies DefaultQueryLimit.
func (s *Store) Query(f Filters, limit int) ([]model.CanonicalInteraction, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	query := `SELECT body FROM interactions WHERE 1=1`
	var args []any
	if f.Provider != "" {
		query += ` AND provider = ?`
		args = append(args, f.Provider)
	}
	if f.MinRiskScore > 0 {
		query += ` AND risk_score >= ?`
		args = append(args, f.MinRiskScore)
	}
	if f.Since > 0 {
		query += ` AND ts >= ?`
		args = append(args, time.Now().Add(-f.Since).UnixMilli())
	}
	query += ` ORDER BY ts DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	var records []model.CanonicalInteraction
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		var rec model.CanonicalInteraction
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("store: decode record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate rows: %w", err)
	}
	return records, nil
}

// Index returns the lightweight index projection, most recent first.
func (s *Store) Index(limit int) ([]model.LogIndexEntry, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	rows, err := s.db.Query(
		`SELECT id, ts, provider, risk_score, url FROM interactions ORDER BY ts DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query index: %w", err)
	}
	defer rows.Close()

	var entries []model.LogIndexEntry
	for rows.Next() {
		var e model.LogIndexEntry
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.Provider, &e.RiskScore, &e.URL); err != nil {
			return nil, fmt.Errorf("store: scan index row: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate index: %w", err)
	}
	return entries, nil
}

// Count returns the current index size.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM interactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// SweepExpired removes entries older than maxAgeDays. The returned count
// equals actual removals; on error the sweep aborts and reports what was
// removed so far alongside the error.
func (s *Store) SweepExpired(maxAgeDays int) (int, error) {
	if maxAgeDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays).UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT rowid FROM interactions WHERE ts < ? ORDER BY ts ASC`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: sweep select: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("store: sweep scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("store: sweep iterate: %w", err)
	}
	rows.Close()

	removed := 0
	for _, id := range ids {
		if _, err := s.db.Exec(`DELETE FROM interactions WHERE rowid = ?`, id); err != nil {
			return removed, fmt.Errorf("store: sweep delete: %w", err)
		}
		removed++
	}
	return removed, nil
}

// ExportAll returns an internally consistent snapshot of every record,
// oldest first. Records are exported verbatim: re-appending them into a
// fresh unbounded store reproduces the same set.
func (s *Store) ExportAll() (Snapshot, error) {
	snap := Snapshot{ExportedAt: time.Now().UTC()}

	tx, err := s.db.Begin()
	if err != nil {
		return snap, fmt.Errorf("store: begin export: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT body FROM interactions ORDER BY ts ASC, rowid ASC`)
	if err != nil {
		return snap, fmt.Errorf("store: export query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return snap, fmt.Errorf("store: export scan: %w", err)
		}
		var rec model.CanonicalInteraction
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return snap, fmt.Errorf("store: export decode: %w", err)
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("store: export iterate: %w", err)
	}

	snap.TotalEntries = len(snap.Records)
	return snap, nil
}

// Stats computes aggregate counts over the current index. highRiskThreshold
// is the score at or above which a record counts as high risk.
func (s *Store) Stats(highRiskThreshold int) (Stats, error) {
	var st Stats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM interactions`).Scan(&st.TotalRecords); err != nil {
		return st, fmt.Errorf("store: stats total: %w", err)
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM interactions WHERE risk_score >= ?`, highRiskThreshold,
	).Scan(&st.HighRiskCount); err != nil {
		return st, fmt.Errorf("store: stats high risk: %w", err)
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM interactions WHERE ts >= ?`, dayStart.UnixMilli(),
	).Scan(&st.TodayCount); err != nil {
		return st, fmt.Errorf("store: stats today: %w", err)
	}

	var bodyBytes sql.NullInt64
	if err := s.db.QueryRow(`SELECT SUM(LENGTH(body)) FROM interactions`).Scan(&bodyBytes); err != nil {
		return st, fmt.Errorf("store: stats size: %w", err)
	}
	st.SizeEstimate = bodyBytes.Int64 + int64(st.TotalRecords)*perRowOverhead
	return st, nil
}
