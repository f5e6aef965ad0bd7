package eventlog

import (
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendJSONL    = "jsonl"
	BackendRotating = "jsonl-rotating"
	BackendSQLite   = "sqlite"
)

// Config selects and parameterises a backend.
type Config struct {
	Backend    string `json:"backend" yaml:"backend"`
	Path       string `json:"path" yaml:"path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

// SetDefaults fills missing values.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}
	if c.Backend == BackendRotating {
		if c.MaxSizeMB <= 0 {
			c.MaxSizeMB = 10
		}
		if c.MaxBackups <= 0 {
			c.MaxBackups = 3
		}
		if c.MaxAgeDays <= 0 {
			c.MaxAgeDays = 7
		}
	}
}

// Validate checks the backend name and that file backends have a path.
func (c Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case BackendMemory:
		return nil
	case BackendJSONL, BackendRotating, BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("eventlog: backend %s requires a path", c.Backend)
		}
		return nil
	default:
		return fmt.Errorf("eventlog: unknown backend %q", c.Backend)
	}
}

// Open creates the store described by cfg.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Backend) {
	case BackendJSONL:
		return NewJSONLStore(cfg.Path)
	case BackendRotating:
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	default:
		return NewMemoryStore(), nil
	}
}
