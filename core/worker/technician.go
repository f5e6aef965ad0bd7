package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/logger"
	"github.com/kilianp07/bikesim/core/signal"
	"github.com/kilianp07/bikesim/core/station"
)

// Technician repairs the broken bicycles of one station and hands them to
// the maintenance yard.
type Technician struct {
	id         string
	station    *station.Station
	yard       *station.MaintenanceYard
	repairTime time.Duration
	events     *events.Emitter
	log        logger.Logger
}

func NewTechnician(gen ident.Generator, st *station.Station, yard *station.MaintenanceYard, repairTime time.Duration, log logger.Logger, em *events.Emitter) *Technician {
	if gen == nil {
		gen = ident.Default
	}
	return &Technician{
		id:         ident.Prefixed(gen, "Technician"),
		station:    st,
		yard:       yard,
		repairTime: repairTime,
		events:     em,
		log:        log,
	}
}

func (t *Technician) ID() string { return t.id }

// Run waits for maintenance alerts on the station until ctx is cancelled.
func (t *Technician) Run(ctx context.Context) error {
	for {
		if err := t.station.MaintenanceSignal().Acquire(ctx); err != nil {
			return nil
		}
		if err := t.service(ctx); err != nil {
			if stopped(err) {
				return nil
			}
			return err
		}
	}
}

func (t *Technician) service(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	emit(t.events, events.New(events.TechnicianRequested, t.id, "maintenance alert").To(t.station.ID()))

	t.station.Lock()
	broken := t.station.DrainForMaintenance()
	t.station.Unlock()
	if len(broken) == 0 {
		return nil
	}
	emit(t.events, events.New(events.TechnicianCollecting, t.id, fmt.Sprintf("%d bicycles", len(broken))).To(t.station.ID()))

	emit(t.events, events.New(events.TechnicianRepairing, t.id, fmt.Sprintf("%d bicycles", len(broken))))
	if err := signal.Sleep(ctx, t.repairTime); err != nil {
		// deposit unrepaired on shutdown
		t.yard.Deposit(&broken)
		return err
	}

	n := len(broken)
	t.yard.Deposit(&broken)
	repairs.Add(float64(n))
	emit(t.events, events.New(events.TechnicianDelivering, t.id, fmt.Sprintf("%d bicycles", n)).To(t.yard.ID()))
	emit(t.events, events.New(events.YardBicycleReceived, t.yard.ID(), fmt.Sprintf("%d bicycles from %s", n, t.station.ID())))
	if t.log != nil {
		t.log.Infof("technician %s repaired %d bicycles from %s", t.id, n, t.station.ID())
	}
	return nil
}
