package metrics

import (
	"context"

	"github.com/kilianp07/bikesim/core/events"
	coremetrics "github.com/kilianp07/bikesim/core/metrics"
	"github.com/kilianp07/bikesim/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards every event to
// sink when it implements EventRecorder. It stops when the context is
// canceled or the bus is closed. The returned channel is closed on exit.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.Event], sink coremetrics.SnapshotSink) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.EventRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				_ = rec.RecordEvent(ev)
			}
		}
	}()
	return done
}
