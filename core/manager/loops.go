package manager

import (
	"context"
	"fmt"

	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/request"
	"github.com/kilianp07/bikesim/core/signal"
	"github.com/kilianp07/bikesim/core/station"
)

// intake moves submitted transport requests to the pending queue.
func (m *Manager) intake(ctx context.Context) error {
	for {
		r, err := m.transport.Pop(ctx)
		if err != nil {
			return err
		}
		m.emit(events.New(events.ManagerProcessingRequest, m.id, "request received").To(r.Origin()))
		m.pending.Push(r)
	}
}

// resolve matches pending requests against the network. A request that
// cannot be served yet goes back to the pending queue.
func (m *Manager) resolve(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := m.pending.Pop(ctx)
		if err != nil {
			return err
		}
		route, err := m.route(r)
		if err != nil {
			requestsDropped.Inc()
			m.emit(events.New(events.SystemError, m.id, fmt.Sprintf("dropping %s: %v", r, err)))
			continue
		}
		if !m.tryReserve(route, r) {
			requestsRequeued.Inc()
			m.pending.Push(r)
			if err := signal.Sleep(ctx, m.cfg.RetryBackoff); err != nil {
				return err
			}
			continue
		}
		r.Resolve()
		requestsResolved.Inc()
		m.emit(events.New(events.UserRequestConfirmed, m.id, "request resolved").To(r.Origin()))
	}
}

func (m *Manager) route(r *request.Request) (station.Route, error) {
	origin, ok := m.byID[r.Origin()]
	if !ok {
		return station.Route{}, fmt.Errorf("%w: %s", ErrUnknownStation, r.Origin())
	}
	dest, ok := m.byID[r.Destination()]
	if !ok {
		return station.Route{}, fmt.Errorf("%w: %s", ErrUnknownStation, r.Destination())
	}
	return station.NewRoute(origin, dest)
}

// tryReserve rents a bicycle at the origin under the requester's id and books
// a dock for it at the destination, atomically over both stations.
func (m *Manager) tryReserve(route station.Route, r *request.Request) bool {
	route.Lock()
	defer route.Unlock()
	origin, dest := route.Origin(), route.Destination()
	if origin.AvailableCount() == 0 || !dest.HasSpace() {
		return false
	}
	b, ok := origin.RequestRental(r.Requester())
	if !ok {
		return false
	}
	return dest.ReserveTransit(b)
}

// maintenanceSweep wakes the technician of every station holding too many
// out-of-service bicycles. One station lock at a time.
func (m *Manager) maintenanceSweep(ctx context.Context) error {
	for {
		for _, s := range m.stations {
			m.checkMaintenance(s)
		}
		if err := signal.Sleep(ctx, m.cfg.MaintenanceInterval); err != nil {
			return err
		}
	}
}

func (m *Manager) checkMaintenance(s *station.Station) {
	s.Lock()
	defer s.Unlock()
	if !s.NeedsMaintenanceAttention() {
		return
	}
	s.MaintenanceSignal().Release()
	maintenanceAlerts.Inc()
	m.emit(events.New(events.StationMaintenanceRequired, m.id, "maintenance required").To(s.ID()))
}

// plan describes one redistribution decision.
type plan struct {
	source      string
	destination string
	count       int
	fromYard    bool
}

// planRedistribution picks the yard when it holds more than MinMaintenance
// bicycles, else the first station above MinCapacity available; the
// destination is the first station below MinCapacity available.
func (m *Manager) planRedistribution() (plan, bool) {
	var p plan
	if n := m.yard.Count(); n > m.cfg.MinMaintenance {
		p = plan{source: m.yard.ID(), count: n, fromYard: true}
	} else {
		for _, s := range m.stations {
			if n, ok := availableAbove(s, m.cfg.MinCapacity); ok {
				p = plan{source: s.ID(), count: n}
				break
			}
		}
	}
	for _, s := range m.stations {
		if availableBelow(s, m.cfg.MinCapacity) {
			p.destination = s.ID()
			break
		}
	}
	if p.source == "" || p.destination == "" || p.count <= 0 || p.source == p.destination {
		return plan{}, false
	}
	return p, true
}

func availableAbove(s *station.Station, threshold int) (int, bool) {
	s.Lock()
	defer s.Unlock()
	n := s.AvailableCount()
	return n, n > threshold
}

func availableBelow(s *station.Station, threshold int) bool {
	s.Lock()
	defer s.Unlock()
	return s.AvailableCount() < threshold
}

// redistributionSweep hands one redistribution at a time to the trucks and
// waits for it to complete before sweeping again.
func (m *Manager) redistributionSweep(ctx context.Context) error {
	for {
		if p, ok := m.planRedistribution(); ok {
			if err := m.redistribute(ctx, p); err != nil {
				return err
			}
		}
		if err := signal.Sleep(ctx, m.cfg.RedistributionInterval); err != nil {
			return err
		}
	}
}

func (m *Manager) redistribute(ctx context.Context, p plan) error {
	r, err := request.New(m.id, p.source, p.destination, p.count, signal.New(0))
	if err != nil {
		return err
	}
	m.debugf("redistribution %s -> %s (%d bicycles)", p.source, p.destination, p.count)
	m.emit(events.New(events.ManagerRequestingTruck, m.id, fmt.Sprintf("%d bicycles", p.count)).To(p.destination))
	m.redistribution.Push(r)
	if err := r.Wait(ctx); err != nil {
		return err
	}
	kind := "station"
	if p.fromYard {
		kind = "yard"
	}
	redistributions.WithLabelValues(kind).Inc()
	bicyclesMoved.Add(float64(p.count))
	m.emit(events.New(events.ManagerRedistributing, m.id,
		fmt.Sprintf("redistribution completed from %s", p.source)).To(p.destination))
	return nil
}
