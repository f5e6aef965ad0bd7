package events

import (
	"sync"

	"github.com/kilianp07/bikesim/core/ident"
)

// Recorder consumes events. Implementations must be safe for concurrent use
// and must not block for long: Record is called from worker goroutines.
type Recorder interface {
	Record(Event)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Event)

func (f RecorderFunc) Record(e Event) { f(e) }

// NopRecorder drops every event.
type NopRecorder struct{}

func (NopRecorder) Record(Event) {}

// Emitter stamps events with an id and timestamp and fans them out.
type Emitter struct {
	gen ident.Generator

	mu    sync.RWMutex
	sinks []Recorder
}

func NewEmitter(gen ident.Generator, sinks ...Recorder) *Emitter {
	if gen == nil {
		gen = ident.Default
	}
	e := &Emitter{gen: gen}
	for _, s := range sinks {
		e.Add(s)
	}
	return e
}

// Add registers another sink.
func (e *Emitter) Add(r Recorder) {
	if r == nil {
		return
	}
	e.mu.Lock()
	e.sinks = append(e.sinks, r)
	e.mu.Unlock()
}

// Emit stamps ev when needed, forwards it to every sink and returns it.
// A nil Emitter only stamps.
func (e *Emitter) Emit(ev Event) Event {
	gen := ident.Default
	if e != nil {
		gen = e.gen
	}
	if ev.ID == "" {
		ev.ID = gen.NewID()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = gen.Now()
	}
	if e == nil {
		return ev
	}
	e.mu.RLock()
	sinks := e.sinks
	e.mu.RUnlock()
	for _, s := range sinks {
		s.Record(ev)
	}
	return ev
}

// Record implements Recorder so emitters can be chained.
func (e *Emitter) Record(ev Event) { e.Emit(ev) }
