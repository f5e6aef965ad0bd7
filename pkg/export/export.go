package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/report"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, csv, yaml and yml, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Write encodes the run summary in format f.
func Write(w io.Writer, f Format, s report.Summary) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, s)
	case FormatCSV:
		return WriteCSV(w, s)
	case FormatYAML:
		return WriteYAML(w, s)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteJSON writes the run summary to w in JSON format.
func WriteJSON(w io.Writer, s report.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteYAML writes the run summary to w in YAML format.
func WriteYAML(w io.Writer, s report.Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

var stationHeader = []string{
	"station_id", "capacity", "available", "rented", "in_repair", "in_transit",
	"relocating", "out_of_service", "occupancy", "free", "captured_at",
}

// WriteCSV writes one row per station.
func WriteCSV(w io.Writer, s report.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(stationHeader); err != nil {
		return err
	}
	for _, st := range s.Stations {
		rec := []string{
			st.StationID,
			strconv.Itoa(st.Capacity),
			strconv.Itoa(st.Available),
			strconv.Itoa(st.Rented),
			strconv.Itoa(st.InRepair),
			strconv.Itoa(st.InTransit),
			strconv.Itoa(st.Relocating),
			strconv.Itoa(st.OutOfService),
			strconv.Itoa(st.Occupancy),
			strconv.Itoa(st.Free),
			st.CapturedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEventsCSV writes events with their numeric code and description.
func WriteEventsCSV(w io.Writer, evs []events.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "timestamp", "code", "kind", "origin", "destination", "bicycle_id", "detail"}); err != nil {
		return err
	}
	for _, e := range evs {
		rec := []string{
			e.ID,
			e.Timestamp.UTC().Format(time.RFC3339Nano),
			strconv.Itoa(e.Kind.Code()),
			e.Kind.String(),
			e.Origin,
			e.Destination,
			e.BicycleID,
			e.Detail,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
