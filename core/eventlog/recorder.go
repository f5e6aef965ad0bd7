package eventlog

import (
	"context"

	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/logger"
)

// Recorder appends every recorded event to a Store. Write failures are
// logged and otherwise ignored so a broken log never stalls a worker.
type Recorder struct {
	store Store
	log   logger.Logger
}

func NewRecorder(store Store, log logger.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

func (r *Recorder) Record(e events.Event) {
	if err := r.store.Append(context.Background(), e); err != nil && r.log != nil {
		r.log.Warnf("eventlog append %s: %v", e.ID, err)
	}
}

var _ events.Recorder = (*Recorder)(nil)
