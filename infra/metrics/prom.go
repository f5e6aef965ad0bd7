package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/bikesim/core/events"
	coremetrics "github.com/kilianp07/bikesim/core/metrics"
	"github.com/kilianp07/bikesim/core/model"
)

// PromSink exposes station snapshots as gauges and counts simulation events.
type PromSink struct {
	bicycles *prometheus.GaugeVec
	capacity *prometheus.GaugeVec
	free     *prometheus.GaugeVec
	events   *prometheus.CounterVec
}

// NewPromSink registers the station metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	bicycles := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bikesim_station_bicycles",
		Help: "Bicycles held by a station, by state",
	}, []string{"station", "state"})
	capacity := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bikesim_station_capacity",
		Help: "Number of docks of a station",
	}, []string{"station"})
	free := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bikesim_station_free_docks",
		Help: "Number of free docks of a station",
	}, []string{"station"})
	evs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bikesim_events_total",
		Help: "Simulation events by kind",
	}, []string{"kind", "code"})

	var err error
	if bicycles, err = register(reg, bicycles); err != nil {
		return nil, err
	}
	if capacity, err = register(reg, capacity); err != nil {
		return nil, err
	}
	if free, err = register(reg, free); err != nil {
		return nil, err
	}
	if evs, err = register(reg, evs); err != nil {
		return nil, err
	}
	return &PromSink{bicycles: bicycles, capacity: capacity, free: free, events: evs}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordStationSnapshots sets the per-station gauges.
func (s *PromSink) RecordStationSnapshots(snaps []model.StationSnapshot) error {
	for _, snap := range snaps {
		for _, st := range model.States {
			s.bicycles.WithLabelValues(snap.StationID, st.String()).Set(float64(snap.Count(st)))
		}
		s.capacity.WithLabelValues(snap.StationID).Set(float64(snap.Capacity))
		s.free.WithLabelValues(snap.StationID).Set(float64(snap.Free))
	}
	return nil
}

// RecordEvent increments the counter of the event kind.
func (s *PromSink) RecordEvent(e events.Event) error {
	s.events.WithLabelValues(e.Kind.String(), strconv.Itoa(e.Kind.Code())).Inc()
	return nil
}

var (
	_ coremetrics.SnapshotSink  = (*PromSink)(nil)
	_ coremetrics.EventRecorder = (*PromSink)(nil)
)
