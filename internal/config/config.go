// Package config loads leakwatch configuration and compiles it into the
// immutable snapshot consumed by the pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leakwatch/leakwatch/internal/alert"
	"github.com/leakwatch/leakwatch/internal/model"
	"github.com/leakwatch/leakwatch/internal/provider"
)

// Config is the on-disk YAML configuration.
type Config struct {
	Server            ServerConfig            `yaml:"server"`
	DBPath            string                  `yaml:"db_path"`
	Categories        []string                `yaml:"categories"`
	CustomPatterns    []PatternDef            `yaml:"custom_patterns"`
	AlertThreshold    int                     `yaml:"alert_threshold"`
	Retention         model.RetentionPolicy   `yaml:"retention"`
	Escalation        *alert.EscalationConfig `yaml:"escalation"`
	MergeWindow       time.Duration           `yaml:"merge_window"`
	ProviderEndpoints map[string]string       `yaml:"provider_endpoints"`
}

// ServerConfig holds the ingest/dashboard HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// PatternDef defines a custom detector category from config. The expression
// stays raw here; the classifier compiles it per call and reports a
// diagnostic instead of failing when it is malformed.
type PatternDef struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
}

// Snapshot is the compiled, immutable view of one configuration state.
// The pipeline reads a snapshot per operation; hot reload swaps the whole
// snapshot between operations, never mid-operation.
type Snapshot struct {
	Enabled     map[model.Category]bool // nil means all builtin categories
	Custom      map[string]string
	Threshold   int
	Retention   model.RetentionPolicy
	Escalation  *alert.EscalationConfig
	MergeWindow time.Duration
	Providers   *provider.Table
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server:         ServerConfig{Addr: ":7654"},
		DBPath:         filepath.Join(home, ".leakwatch", "leakwatch.db"),
		AlertThreshold: alert.DefaultThreshold,
		Retention:      model.RetentionPolicy{MaxEntries: 10000, MaxAgeDays: 30},
		MergeWindow:    5 * time.Second,
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// default config and no error; malformed YAML is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":7654"
	}
	if cfg.DBPath == "" {
		home, _ := os.UserHomeDir()
		cfg.DBPath = filepath.Join(home, ".leakwatch", "leakwatch.db")
	}
	if cfg.AlertThreshold <= 0 {
		cfg.AlertThreshold = alert.DefaultThreshold
	}
	if cfg.Retention.MaxEntries <= 0 {
		cfg.Retention.MaxEntries = 10000
	}
	if cfg.Retention.MaxAgeDays <= 0 {
		cfg.Retention.MaxAgeDays = 30
	}
	if cfg.MergeWindow <= 0 {
		cfg.MergeWindow = 5 * time.Second
	}
}

// Compile turns the raw config into an immutable snapshot.
func (c *Config) Compile() *Snapshot {
	var enabled map[model.Category]bool
	if len(c.Categories) > 0 {
		enabled = make(map[model.Category]bool, len(c.Categories))
		for _, name := range c.Categories {
			enabled[model.Category(name)] = true
		}
	}

	var custom map[string]string
	if len(c.CustomPatterns) > 0 {
		custom = make(map[string]string, len(c.CustomPatterns))
		for _, def := range c.CustomPatterns {
			if def.Name == "" {
				continue
			}
			custom[def.Name] = def.Regex
		}
	}

	return &Snapshot{
		Enabled:     enabled,
		Custom:      custom,
		Threshold:   c.AlertThreshold,
		Retention:   c.Retention,
		Escalation:  c.Escalation,
		MergeWindow: c.MergeWindow,
		Providers:   provider.NewTable(c.ProviderEndpoints),
	}
}
