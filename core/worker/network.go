package worker

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/request"
	"github.com/kilianp07/bikesim/core/station"
)

// Network is the view of the simulation a worker needs. *manager.Manager
// implements it.
type Network interface {
	Stations() []*station.Station
	Station(id string) (*station.Station, bool)
	Yard() *station.MaintenanceYard
	Recharge() *station.RechargePoint
	Redistribution() *request.Queue
	SubmitTransport(r *request.Request)
}

// Timing groups the simulated durations of worker activities.
type Timing struct {
	TransportTime time.Duration `json:"transport" yaml:"transport" koanf:"transport"`
	RepairTime    time.Duration `json:"repair" yaml:"repair" koanf:"repair"`
	RideStartTime time.Duration `json:"ride_start" yaml:"ride_start" koanf:"ride_start"`
	ChargeTime    time.Duration `json:"charge" yaml:"charge" koanf:"charge"`
}

// DefaultTiming returns the stock durations.
func DefaultTiming() Timing {
	return Timing{
		TransportTime: 2 * time.Second,
		RepairTime:    12 * time.Second,
		RideStartTime: 1500 * time.Millisecond,
		ChargeTime:    1500 * time.Millisecond,
	}
}

func stopped(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func emit(em *events.Emitter, e events.Event) { em.Emit(e) }
