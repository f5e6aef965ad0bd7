package mqtt

import (
	"github.com/kilianp07/bikesim/core/factory"
	coremetrics "github.com/kilianp07/bikesim/core/metrics"
)

// init registers the "mqtt" snapshot sink. Its conf block takes the same keys
// as Config.
func init() {
	_ = coremetrics.RegisterSnapshotSink("mqtt", func(conf map[string]any) (coremetrics.SnapshotSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		c.Enabled = true
		c.SetDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewPublisher(c)
	})
}
