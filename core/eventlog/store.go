// Package eventlog persists simulation events and answers filtered queries.
// Backends: in-memory, JSONL file, rotating JSONL file and SQLite.
package eventlog

import (
	"context"
	"time"

	"github.com/kilianp07/bikesim/core/events"
)

// Query filters stored events. Zero fields match everything.
type Query struct {
	Start     time.Time
	End       time.Time
	Kind      events.Kind
	Origin    string
	BicycleID string
	// Limit caps the number of returned events; 0 means no cap.
	Limit int
}

// Match reports whether e satisfies every set filter except Limit.
func (q Query) Match(e events.Event) bool {
	if !q.Start.IsZero() && e.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.Timestamp.After(q.End) {
		return false
	}
	if q.Kind != 0 && e.Kind != q.Kind {
		return false
	}
	if q.Origin != "" && e.Origin != q.Origin {
		return false
	}
	if q.BicycleID != "" && e.BicycleID != q.BicycleID {
		return false
	}
	return true
}

func (q Query) full(n int) bool { return q.Limit > 0 && n >= q.Limit }

// Store persists events and supports querying.
type Store interface {
	Append(ctx context.Context, e events.Event) error
	Query(ctx context.Context, q Query) ([]events.Event, error)
	Close() error
}
