package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/bikesim/core/eventlog"
	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/pkg/export"
)

var eventsFlags struct {
	kind      string
	origin    string
	bicycleID string
	since     time.Duration
	limit     int
	format    string
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Query the persisted event log",
	RunE:  queryEvents,
}

func init() {
	f := eventsCmd.Flags()
	f.StringVarP(&eventsFlags.kind, "kind", "k", "", "event kind name or numeric code")
	f.StringVar(&eventsFlags.origin, "origin", "", "only events from this actor")
	f.StringVar(&eventsFlags.bicycleID, "bicycle", "", "only events about this bicycle")
	f.DurationVar(&eventsFlags.since, "since", 0, "only events newer than this")
	f.IntVarP(&eventsFlags.limit, "limit", "n", 0, "maximum number of events")
	f.StringVarP(&eventsFlags.format, "format", "f", "json", "output format (json or csv)")
	rootCmd.AddCommand(eventsCmd)
}

func queryEvents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.EventLog.Backend == eventlog.BackendMemory {
		return fmt.Errorf("event log backend %q keeps nothing between runs", eventlog.BackendMemory)
	}
	q := eventlog.Query{
		Origin:    eventsFlags.origin,
		BicycleID: eventsFlags.bicycleID,
		Limit:     eventsFlags.limit,
	}
	if eventsFlags.kind != "" {
		k, err := parseKind(eventsFlags.kind)
		if err != nil {
			return err
		}
		q.Kind = k
	}
	if eventsFlags.since > 0 {
		q.Start = time.Now().Add(-eventsFlags.since)
	}

	store, err := eventlog.Open(cfg.EventLog)
	if err != nil {
		return err
	}
	defer store.Close()
	evs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch export.Format(eventsFlags.format) {
	case export.FormatCSV:
		return export.WriteEventsCSV(out, evs)
	case export.FormatJSON:
		if evs == nil {
			evs = []events.Event{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(evs)
	default:
		return fmt.Errorf("unsupported format %q", eventsFlags.format)
	}
}

func parseKind(s string) (events.Kind, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if k := events.Kind(n); k.Valid() {
			return k, nil
		}
	}
	return events.ParseKind(s)
}
