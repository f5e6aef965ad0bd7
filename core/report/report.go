// Package report summarises a simulation run: final station stock, spread of
// occupancy across the network and event counts.
package report

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/model"
)

// Stats describes a distribution of per-station values.
type Stats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Median float64 `json:"median" yaml:"median"`
	Max    float64 `json:"max" yaml:"max"`
}

// Describe computes Stats over values. An empty input yields zero Stats.
func Describe(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}
	return Stats{
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(sorted),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Max:    floats.Max(sorted),
	}
}

// Summary is the end-of-run report.
type Summary struct {
	GeneratedAt time.Time               `json:"generated_at" yaml:"generated_at"`
	Duration    time.Duration           `json:"duration" yaml:"duration"`
	Stations    []model.StationSnapshot `json:"stations" yaml:"stations"`
	YardCount   int                     `json:"yard_count" yaml:"yard_count"`
	// Available and Utilisation (occupancy over capacity) across stations.
	Available   Stats          `json:"available" yaml:"available"`
	Utilisation Stats          `json:"utilisation" yaml:"utilisation"`
	StateTotals map[string]int `json:"state_totals" yaml:"state_totals"`
	EventCounts map[string]int `json:"event_counts" yaml:"event_counts"`
}

// Build assembles a Summary from final snapshots and the recorded events.
func Build(at time.Time, duration time.Duration, stations []model.StationSnapshot, yardCount int, evs []events.Event) Summary {
	s := Summary{
		GeneratedAt: at,
		Duration:    duration,
		Stations:    append([]model.StationSnapshot(nil), stations...),
		YardCount:   yardCount,
		StateTotals: make(map[string]int, len(model.States)),
		EventCounts: make(map[string]int),
	}
	sort.Slice(s.Stations, func(i, j int) bool { return s.Stations[i].StationID < s.Stations[j].StationID })

	avail := make([]float64, 0, len(stations))
	util := make([]float64, 0, len(stations))
	for _, snap := range s.Stations {
		avail = append(avail, float64(snap.Available))
		if snap.Capacity > 0 {
			util = append(util, float64(snap.Occupancy)/float64(snap.Capacity))
		}
		for _, st := range model.States {
			s.StateTotals[st.String()] += snap.Count(st)
		}
	}
	s.Available = Describe(avail)
	s.Utilisation = Describe(util)
	for _, e := range evs {
		s.EventCounts[e.Kind.String()]++
	}
	return s
}
