package events

import (
	"strconv"
	"strings"
	"time"
)

// Event is an immutable record of something that happened in the network.
// Origin names the actor (user, station, truck...), Destination and
// BicycleID are set when relevant.
type Event struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Timestamp   time.Time `json:"timestamp"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination,omitempty"`
	BicycleID   string    `json:"bicycle_id,omitempty"`
	Detail      string    `json:"detail,omitempty"`
}

// New builds an unstamped event. The Emitter fills ID and Timestamp.
func New(kind Kind, origin, detail string) Event {
	return Event{Kind: kind, Origin: origin, Detail: detail}
}

// To returns a copy with the destination set.
func (e Event) To(destination string) Event {
	e.Destination = destination
	return e
}

// About returns a copy with the bicycle set.
func (e Event) About(bicycleID string) Event {
	e.BicycleID = bicycleID
	return e
}

// Format renders the event as a single log line:
//
//	[ts] [code] description - origin: o, destination: d, bicycle: b - detail
func (e Event) Format() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(e.Timestamp.UTC().Format(time.RFC3339Nano))
	sb.WriteString("] [")
	sb.WriteString(strconv.Itoa(e.Kind.Code()))
	sb.WriteString("] ")
	sb.WriteString(e.Kind.Description())
	sb.WriteString(" - origin: ")
	sb.WriteString(e.Origin)
	if e.Destination != "" {
		sb.WriteString(", destination: ")
		sb.WriteString(e.Destination)
	}
	if e.BicycleID != "" {
		sb.WriteString(", bicycle: ")
		sb.WriteString(e.BicycleID)
	}
	if e.Detail != "" {
		sb.WriteString(" - ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e Event) String() string { return e.Format() }
