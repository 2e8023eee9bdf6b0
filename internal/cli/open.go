package cli

import (
	"fmt"

	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/leakwatch/leakwatch/internal/store"
)

// openStore loads the config and opens the log store for read-side
// commands.
func openStore() (*store.Store, *config.Snapshot, error) {
	fileCfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	snap := fileCfg.Compile()

	dbPath := flagDB
	if dbPath == "" {
		dbPath = fileCfg.DBPath
	}
	st, err := store.Open(dbPath, snap.Retention)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, snap, nil
}
