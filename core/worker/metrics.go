package worker

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveries  *prometheus.CounterVec
	truckTrips  *prometheus.CounterVec
	recharges   prometheus.Counter
	repairs     prometheus.Counter
	tripSeconds prometheus.Histogram
)

func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Histogram) {
	d := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bikesim_deliveries_total",
		Help: "User trips by outcome",
	}, []string{"outcome"})
	tt := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bikesim_truck_trips_total",
		Help: "Redistribution runs by outcome",
	}, []string{"outcome"})
	rc := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bikesim_recharges_total",
		Help: "Completed charging sessions",
	})
	rp := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bikesim_repairs_total",
		Help: "Bicycles repaired and handed to the maintenance yard",
	})
	ts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bikesim_trip_duration_seconds",
		Help:    "Wall time from transport request to delivery",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
	})
	return d, tt, rc, rp, ts
}

func init() {
	deliveries, truckTrips, recharges, repairs, tripSeconds = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers worker metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(deliveries, truckTrips, recharges, repairs, tripSeconds)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	deliveries, truckTrips, recharges, repairs, tripSeconds = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
