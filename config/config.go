// Package config loads the simulation configuration from a YAML or JSON file
// with K_-prefixed environment overrides.
package config

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/kilianp07/bikesim/core/eventlog"
	"github.com/kilianp07/bikesim/core/metrics"
	"github.com/kilianp07/bikesim/infra/logger"
	"github.com/kilianp07/bikesim/infra/mqtt"
)

type Config struct {
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Network    NetworkConfig    `json:"network" yaml:"network"`
	Policy     PolicyConfig     `json:"policy" yaml:"policy"`
	Timing     TimingConfig     `json:"timing" yaml:"timing"`
	EventLog   eventlog.Config  `json:"eventlog" yaml:"eventlog"`
	Metrics    metrics.Config   `json:"metrics" yaml:"metrics"`
	MQTT       mqtt.Config      `json:"mqtt" yaml:"mqtt"`
	Logging    logger.Options   `json:"logging" yaml:"logging"`
	Sentry     SentryConfig     `json:"sentry" yaml:"sentry"`
	API        APIConfig        `json:"api" yaml:"api"`
}

// APIConfig protects the read-only HTTP API.
type APIConfig struct {
	// Token, when set, is required as a bearer token on /api/events.
	Token string `json:"token" yaml:"token"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Network.SetDefaults()
	c.Policy.SetDefaults()
	c.Timing.SetDefaults()
	c.EventLog.SetDefaults()
	c.Logging.SetDefaults()
	if c.MQTT.Enabled {
		c.MQTT.SetDefaults()
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"simulation", c.Simulation.Validate},
		{"network", c.Network.Validate},
		{"policy", c.Policy.Validate},
		{"timing", c.Timing.Validate},
		{"eventlog", c.EventLog.Validate},
		{"mqtt", c.MQTT.Validate},
		{"logging", c.Logging.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.name, err)
		}
	}
	return nil
}

// Load reads path, applies environment overrides, defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Write prints the configuration as YAML with secrets masked.
func (c Config) Write(w io.Writer) error {
	if c.MQTT.Password != "" {
		c.MQTT.Password = "***"
	}
	if c.API.Token != "" {
		c.API.Token = "***"
	}
	if c.Sentry.DSN != "" {
		c.Sentry.DSN = "***"
	}
	enc := yamlv3.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
