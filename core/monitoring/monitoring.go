// Package monitoring forwards unexpected failures to an error tracker. The
// process-wide monitor is a no-op until Init installs a real one.
package monitoring

import (
	"errors"
	"sync"
	"time"

	"github.com/kilianp07/bikesim/core/events"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	get().CaptureException(err, tags)
}

// Recover captures panics in goroutines. It must be deferred directly.
func Recover() {
	get().Recover()
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}

// ErrorRecorder reports SystemError events to the global monitor.
type ErrorRecorder struct{}

func (ErrorRecorder) Record(e events.Event) {
	if e.Kind != events.SystemError {
		return
	}
	tags := map[string]string{"origin": e.Origin, "event_id": e.ID}
	if e.Destination != "" {
		tags["destination"] = e.Destination
	}
	if e.BicycleID != "" {
		tags["bicycle_id"] = e.BicycleID
	}
	CaptureException(errors.New(e.Detail), tags)
}
