package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsResolved  prometheus.Counter
	requestsRequeued  prometheus.Counter
	requestsDropped   prometheus.Counter
	maintenanceAlerts prometheus.Counter
	redistributions   *prometheus.CounterVec
	bicyclesMoved     prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Counter, *prometheus.CounterVec, prometheus.Counter) {
	resolved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bikesim_requests_resolved_total",
		Help: "Transport requests matched to a bicycle and a free dock",
	})
	requeued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bikesim_requests_requeued_total",
		Help: "Resolution attempts that found no bicycle or no dock and requeued the request",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bikesim_requests_dropped_total",
		Help: "Transport requests naming an unknown or identical station pair",
	})
	alerts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bikesim_maintenance_alerts_total",
		Help: "Technician wake-ups issued by the maintenance sweep",
	})
	redist := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bikesim_redistributions_total",
		Help: "Completed redistribution requests",
	}, []string{"source_kind"})
	moved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bikesim_bicycles_moved_total",
		Help: "Bicycles requested for redistribution",
	})
	return resolved, requeued, dropped, alerts, redist, moved
}

func init() {
	requestsResolved, requestsRequeued, requestsDropped, maintenanceAlerts, redistributions, bicyclesMoved = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers manager metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(requestsResolved, requestsRequeued, requestsDropped, maintenanceAlerts, redistributions, bicyclesMoved)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	requestsResolved, requestsRequeued, requestsDropped, maintenanceAlerts, redistributions, bicyclesMoved = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
