// Package mcp exposes the leakwatch audit trail as MCP tools over stdio,
// for agent-driven dashboards.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/leakwatch/leakwatch/internal/store"
)

// Config holds MCP server configuration.
type Config struct {
	ConfigPath string
	DBPath     string
}

// Server wraps the MCP SDK server around the log store.
type Server struct {
	mcpServer *mcpsdk.Server
	store     *store.Store
	snap      *config.Snapshot
}

// New loads configuration, opens the store, and registers the tools.
func New(cfg Config) (*Server, error) {
	fileCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
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
		store: st,
		snap:  snap,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "leakwatch",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// registerTools adds all leakwatch tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "leakwatch_query",
		Description: "Query the interaction audit trail with optional provider, minimum risk score, and time filters.",
	}, s.handleQuery)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "leakwatch_export",
		Description: "Export a consistent snapshot of every recorded interaction.",
	}, s.handleExport)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "leakwatch_stats",
		Description: "Aggregate counts over the audit trail: total, high-risk, today, storage estimate.",
	}, s.handleStats)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "leakwatch_sweep",
		Description: "Remove interactions older than the retention age and report how many were removed.",
	}, s.handleSweep)
}
