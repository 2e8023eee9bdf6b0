// Package server exposes the leakwatch pipeline over HTTP: an ingest
// endpoint for capture sources and query/export/stats endpoints for the
// dashboard collaborator.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/leakwatch/leakwatch/internal/alert"
	"github.com/leakwatch/leakwatch/internal/classify"
	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/leakwatch/leakwatch/internal/correlate"
	"github.com/leakwatch/leakwatch/internal/model"
	"github.com/leakwatch/leakwatch/internal/risk"
	"github.com/leakwatch/leakwatch/internal/store"
)

// Config holds HTTP server configuration.
type Config struct {
	Addr       string
	ConfigPath string
	DBPath     string
}

// Server wires the correlator, classifier, store, and alert dispatcher
// behind the HTTP surface.
type Server struct {
	mu         sync.RWMutex
	snap       *config.Snapshot
	dispatcher *alert.Dispatcher

	store      *store.Store
	correlator *correlate.Correlator
	cfg        Config
	httpServer *http.Server
}

// New loads configuration, opens the store, and assembles the pipeline.
func New(cfg Config) (*Server, error) {
	fileCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Addr == "" {
		cfg.Addr = fileCfg.Server.Addr
	}
	if cfg.DBPath == "" {
		cfg.DBPath = fileCfg.DBPath
	}

	snap := fileCfg.Compile()

	st, err := store.Open(cfg.DBPath, snap.Retention)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	s := &Server{
		snap:       snap,
		dispatcher: alert.NewDispatcher(snap.Threshold, nil, snap.Escalation),
		store:      st,
		cfg:        cfg,
	}

	s.correlator = correlate.New(
		correlate.Config{Window: snap.MergeWindow},
		s.analyze,
		s.persist,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/observations", s.handleObservations)
	mux.HandleFunc("GET /v1/interactions", s.handleInteractions)
	mux.HandleFunc("GET /v1/index", s.handleIndex)
	mux.HandleFunc("GET /v1/export", s.handleExport)
	mux.HandleFunc("GET /v1/report.csv", s.handleReportCSV)
	mux.HandleFunc("GET /v1/stats", s.handleStats)
	mux.HandleFunc("GET /v1/healthz", s.handleHealthz)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler. For testing.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Store returns the underlying log store. For testing.
func (s *Server) Store() *store.Store {
	return s.store
}

// Serve starts the HTTP server on the configured address. Blocks until
// shutdown.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	err = s.httpServer.Serve(lis)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown flushes open merge windows and stops the HTTP server, so no
// accepted observation is silently dropped.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.correlator.Flush()
	return err
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// ReloadConfig atomically swaps the compiled config snapshot and the alert
// dispatcher. Called by the hot-reloader on file change. In-flight
// operations keep the snapshot they started with.
func (s *Server) ReloadConfig() error {
	fileCfg, err := config.Load(s.cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	snap := fileCfg.Compile()

	s.mu.Lock()
	s.snap = snap
	s.dispatcher = alert.NewDispatcher(snap.Threshold, nil, snap.Escalation)
	s.mu.Unlock()

	return nil
}

// snapshot returns the current compiled config. Operations call this once
// and use the result throughout, never observing a mid-operation swap.
func (s *Server) snapshot() *config.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// analyze classifies and scores merged text under the current snapshot.
// Custom-pattern failures are diagnostics, never classification failures.
func (s *Server) analyze(text string) (model.Analysis, int) {
	snap := s.snapshot()
	analysis, diags := classify.Classify(text, snap.Enabled, snap.Custom)
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "classify: %s\n", d)
	}
	return analysis, risk.Score(analysis)
}

// persist is the correlator sink: append to the store, then alert. The
// audit trail takes priority. A storage failure is reported loudly and
// the record never reaches the dispatcher, while alerting failures can
// never undo the append.
func (s *Server) persist(rec model.CanonicalInteraction) {
	if err := s.store.Append(rec); err != nil {
		fmt.Fprintf(os.Stderr, "store: append %s: %v\n", rec.ID, err)
		return
	}

	s.mu.RLock()
	d := s.dispatcher
	s.mu.RUnlock()
	d.Dispatch(rec)
}
