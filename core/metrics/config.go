package metrics

import "github.com/kilianp07/bikesim/core/factory"

// Config defines settings for metrics sinks and the HTTP endpoint serving
// /metrics and the read-only API.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	Addr  string                 `json:"addr" yaml:"addr"`
}
