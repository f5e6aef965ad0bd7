package metrics

import (
	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/model"
)

// SnapshotSink records station occupancy snapshots.
type SnapshotSink interface {
	RecordStationSnapshots(snaps []model.StationSnapshot) error
}

// EventRecorder is implemented by sinks that also track simulation events.
type EventRecorder interface {
	RecordEvent(e events.Event) error
}

// NopSink implements every sink interface with no-op methods.
type NopSink struct{}

func (NopSink) RecordStationSnapshots([]model.StationSnapshot) error { return nil }
func (NopSink) RecordEvent(events.Event) error                       { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []SnapshotSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...SnapshotSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStationSnapshots forwards to all sinks, returning the first error.
func (m *MultiSink) RecordStationSnapshots(snaps []model.StationSnapshot) error {
	for _, s := range m.Sinks {
		if err := s.RecordStationSnapshots(snaps); err != nil {
			return err
		}
	}
	return nil
}

// RecordEvent forwards to the sinks able to record events.
func (m *MultiSink) RecordEvent(e events.Event) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(EventRecorder); ok {
			if err := rec.RecordEvent(e); err != nil {
				return err
			}
		}
	}
	return nil
}
