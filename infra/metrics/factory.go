package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/bikesim/core/factory"
	coremetrics "github.com/kilianp07/bikesim/core/metrics"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterSnapshotSink("nop", func(map[string]any) (coremetrics.SnapshotSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterSnapshotSink("prometheus", func(map[string]any) (coremetrics.SnapshotSink, error) {
		// Exposition is served by the app HTTP server on metrics.addr.
		s, err := NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, err
		}
		return s, nil
	})

	_ = coremetrics.RegisterSnapshotSink("influx", func(conf map[string]any) (coremetrics.SnapshotSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
