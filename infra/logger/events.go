package logger

import "github.com/kilianp07/bikesim/core/events"

// EventSink writes simulation events as structured log lines.
type EventSink struct {
	Log Logger
}

// NewEventSink returns a recorder logging to l.
func NewEventSink(l Logger) *EventSink { return &EventSink{Log: OrNop(l)} }

func (s *EventSink) Record(e events.Event) {
	fields := map[string]any{
		"event_id": e.ID,
		"kind":     e.Kind.String(),
		"code":     e.Kind.Code(),
		"origin":   e.Origin,
	}
	if e.Destination != "" {
		fields["destination"] = e.Destination
	}
	if e.BicycleID != "" {
		fields["bicycle_id"] = e.BicycleID
	}
	if e.Detail != "" {
		fields["detail"] = e.Detail
	}
	if e.Kind == events.SystemError {
		s.Log.Errorf("%s", e.Format())
		return
	}
	s.Log.Infow(e.Kind.Description(), fields)
}
