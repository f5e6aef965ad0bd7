package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/logger"
	"github.com/kilianp07/bikesim/core/model"
	"github.com/kilianp07/bikesim/core/request"
	"github.com/kilianp07/bikesim/core/signal"
	"github.com/kilianp07/bikesim/core/station"
)

// Truck serves redistribution requests one at a time.
type Truck struct {
	id            string
	net           Network
	transportTime time.Duration
	events        *events.Emitter
	log           logger.Logger
}

// NewTruck creates a truck consuming net's redistribution queue.
func NewTruck(gen ident.Generator, net Network, transportTime time.Duration, log logger.Logger, em *events.Emitter) *Truck {
	if gen == nil {
		gen = ident.Default
	}
	return &Truck{
		id:            ident.Prefixed(gen, "Truck"),
		net:           net,
		transportTime: transportTime,
		events:        em,
		log:           log,
	}
}

func (t *Truck) ID() string { return t.id }

// Run serves requests until ctx is cancelled.
func (t *Truck) Run(ctx context.Context) error {
	for {
		r, err := t.net.Redistribution().Pop(ctx)
		if err != nil {
			if stopped(err) {
				return nil
			}
			return err
		}
		if err := t.serve(ctx, r); err != nil {
			if stopped(err) {
				return nil
			}
			return err
		}
	}
}

// serve runs one redistribution. The request is always resolved so the
// manager never waits on a run that cannot complete, except on cancellation.
func (t *Truck) serve(ctx context.Context, r *request.Request) error {
	emit(t.events, events.New(events.TruckRequested, t.id, r.String()).To(r.Destination()))
	dest, ok := t.net.Station(r.Destination())
	if !ok {
		truckTrips.WithLabelValues("failed").Inc()
		emit(t.events, events.New(events.SystemError, t.id, fmt.Sprintf("unknown destination %s", r.Destination())))
		r.Resolve()
		return nil
	}
	load, err := t.collect(r)
	if err != nil {
		truckTrips.WithLabelValues("failed").Inc()
		emit(t.events, events.New(events.SystemError, t.id, err.Error()))
		r.Resolve()
		return nil
	}
	if len(load) == 0 {
		truckTrips.WithLabelValues("empty").Inc()
		t.debugf("nothing to collect at %s", r.Origin())
		r.Resolve()
		return nil
	}
	emit(t.events, events.New(events.TruckCollecting, t.id, fmt.Sprintf("%d bicycles", len(load))).To(r.Origin()))

	emit(t.events, events.New(events.TruckInTransit, t.id, fmt.Sprintf("%d bicycles", len(load))).To(dest.ID()))
	if err := signal.Sleep(ctx, t.transportTime); err != nil {
		t.giveBack(r.Origin(), load)
		return err
	}

	loaded := append([]*model.Bicycle(nil), load...)
	dest.Lock()
	reserved := dest.ReserveRelocation(&load)
	dest.Unlock()
	if !reserved {
		truckTrips.WithLabelValues("returned").Inc()
		emit(t.events, events.New(events.StationNoSpace, t.id,
			fmt.Sprintf("no room for %d bicycles, returning them", len(load))).To(dest.ID()))
		t.giveBack(r.Origin(), load)
		r.Resolve()
		return nil
	}
	r.Resolve()

	dest.Lock()
	dest.FulfillRelocation(&loaded)
	dest.Unlock()
	truckTrips.WithLabelValues("delivered").Inc()
	emit(t.events, events.New(events.TruckDelivering, t.id, fmt.Sprintf("%d bicycles", r.Count())).To(dest.ID()))
	return nil
}

func (t *Truck) collect(r *request.Request) ([]*model.Bicycle, error) {
	if station.IsYardID(r.Origin()) {
		return t.net.Yard().Collect(r.Count())
	}
	src, ok := t.net.Station(r.Origin())
	if !ok {
		return nil, fmt.Errorf("unknown source %s", r.Origin())
	}
	src.Lock()
	defer src.Unlock()
	return src.CollectForRedistribution(r.Count())
}

// giveBack returns an undelivered load to where it came from. Bicycles that
// no longer fit at a station source go to the yard.
func (t *Truck) giveBack(origin string, load []*model.Bicycle) {
	yard := t.net.Yard()
	if src, ok := t.net.Station(origin); ok {
		src.Lock()
		src.CancelRelocation(&load)
		src.Unlock()
	}
	if len(load) > 0 {
		yard.Deposit(&load)
	}
}

func (t *Truck) debugf(format string, args ...any) {
	if t.log != nil {
		t.log.Debugf(format, args...)
	}
}
