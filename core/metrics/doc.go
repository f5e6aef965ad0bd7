// Package metrics defines the observability sinks of the simulation. A
// SnapshotSink receives periodic per-station occupancy snapshots; sinks may
// also implement EventRecorder to count simulation events coming from the
// event bus. Sinks are built from configuration through a factory registry,
// and NewSnapshotSink returns a MultiSink when several are configured.
package metrics
