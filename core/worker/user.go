package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/logger"
	"github.com/kilianp07/bikesim/core/model"
	"github.com/kilianp07/bikesim/core/random"
	"github.com/kilianp07/bikesim/core/request"
	"github.com/kilianp07/bikesim/core/signal"
	"github.com/kilianp07/bikesim/core/station"
)

// UserOptions configures a rider.
type UserOptions struct {
	Gen  ident.Generator
	Rand random.Source
	// ChargePct is the chance, in percent, that an electric bicycle needs
	// charging during the trip.
	ChargePct     int
	RideStartTime time.Duration
	ChargeTime    time.Duration
}

// Outcome is the result of one user trip.
type Outcome string

const (
	OutcomeDelivered   Outcome = "delivered"
	OutcomeRejected    Outcome = "rejected"
	OutcomeNoBicycles  Outcome = "no_bicycles"
	OutcomeInterrupted Outcome = "interrupted"
)

// User performs exactly one trip between two distinct random stations.
type User struct {
	id     string
	net    Network
	opts   UserOptions
	events *events.Emitter
	log    logger.Logger

	origin      *station.Station
	destination *station.Station
	outcome     Outcome
}

// NewUser picks the trip endpoints. The network must hold at least two
// stations.
func NewUser(net Network, opts UserOptions, log logger.Logger, em *events.Emitter) (*User, error) {
	if opts.Gen == nil {
		opts.Gen = ident.Default
	}
	if opts.Rand == nil {
		opts.Rand = random.NewSeeded(0)
	}
	stations := net.Stations()
	if len(stations) < 2 {
		return nil, fmt.Errorf("%w: a trip needs two stations, got %d", station.ErrInvalidArgument, len(stations))
	}
	o := opts.Rand.Intn(len(stations))
	d := opts.Rand.Intn(len(stations) - 1)
	if d >= o {
		d++
	}
	return &User{
		id:          ident.Prefixed(opts.Gen, "User"),
		net:         net,
		opts:        opts,
		events:      em,
		log:         log,
		origin:      stations[o],
		destination: stations[d],
	}, nil
}

func (u *User) ID() string                    { return u.id }
func (u *User) Origin() *station.Station      { return u.origin }
func (u *User) Destination() *station.Station { return u.destination }

// Outcome reports how the trip ended. It is empty until Run returns.
func (u *User) Outcome() Outcome { return u.outcome }

// Run performs the trip. Cancellation ends it early without error.
func (u *User) Run(ctx context.Context) error {
	started := time.Now()
	u.outcome = u.trip(ctx)
	deliveries.WithLabelValues(string(u.outcome)).Inc()
	if u.outcome == OutcomeDelivered {
		tripSeconds.Observe(time.Since(started).Seconds())
	}
	if u.log != nil {
		u.log.Debugw("trip finished", map[string]any{
			"user":        u.id,
			"origin":      u.origin.ID(),
			"destination": u.destination.ID(),
			"outcome":     string(u.outcome),
		})
	}
	return nil
}

func (u *User) trip(ctx context.Context) Outcome {
	r, err := request.NewTransport(u.id, u.origin.ID(), u.destination.ID(), signal.New(0))
	if err != nil {
		emit(u.events, events.New(events.SystemError, u.id, err.Error()))
		return OutcomeInterrupted
	}
	emit(u.events, events.New(events.UserTransportRequested, u.id, "").To(u.destination.ID()))
	u.net.SubmitTransport(r)
	emit(u.events, events.New(events.UserAwaitingConfirmation, u.id, "").To(u.origin.ID()))
	if err := r.Wait(ctx); err != nil {
		return OutcomeInterrupted
	}

	b, ok := u.pickup()
	if !ok {
		emit(u.events, events.New(events.StationNoBicycles, u.origin.ID(), "").To(u.id))
		return OutcomeNoBicycles
	}
	emit(u.events, events.New(events.UserBicyclePickup, u.id, "").To(u.origin.ID()).About(b.ID()))

	emit(u.events, events.New(events.UserTripStarted, u.id, b.Type().String()).To(u.destination.ID()).About(b.ID()))
	if err := signal.Sleep(ctx, u.opts.RideStartTime); err != nil {
		return OutcomeInterrupted
	}
	if b.NeedsCharge(u.opts.Rand, u.opts.ChargePct) {
		emit(u.events, events.New(events.UserNeedsRecharge, u.id, "").About(b.ID()))
		if err := u.charge(ctx, b); err != nil {
			return OutcomeInterrupted
		}
	}

	emit(u.events, events.New(events.UserTripFinishing, u.id, "").To(u.destination.ID()).About(b.ID()))
	u.destination.Lock()
	delivered := u.destination.DeliverTransit(b)
	u.destination.Unlock()
	if !delivered {
		emit(u.events, events.New(events.StationNoSpace, u.destination.ID(), "delivery rejected").To(u.id).About(b.ID()))
		return OutcomeRejected
	}
	emit(u.events, events.New(events.UserBicycleDelivered, u.id, "").To(u.destination.ID()).About(b.ID()))
	return OutcomeDelivered
}

// pickup collects the bicycle the manager set aside for this user, or rents
// one directly when none is waiting.
func (u *User) pickup() (*model.Bicycle, bool) {
	u.origin.Lock()
	defer u.origin.Unlock()
	if b, ok := u.origin.PickupRental(u.id); ok {
		return b, true
	}
	if _, ok := u.origin.RequestRental(u.id); !ok {
		return nil, false
	}
	return u.origin.PickupRental(u.id)
}

func (u *User) charge(ctx context.Context, b *model.Bicycle) error {
	rp := u.net.Recharge()
	if rp == nil {
		return nil
	}
	if rp.Free() == 0 {
		emit(u.events, events.New(events.RechargeNoSlots, rp.ID(), "waiting for a charger").To(u.id))
	}
	if err := rp.AcquireSlot(ctx); err != nil {
		return err
	}
	defer rp.ReleaseSlot()
	if err := rp.StartCharge(b); err != nil {
		emit(u.events, events.New(events.SystemError, rp.ID(), err.Error()).About(b.ID()))
		return nil
	}
	emit(u.events, events.New(events.RechargeStarted, rp.ID(), "").To(u.id).About(b.ID()))
	err := signal.Sleep(ctx, u.opts.ChargeTime)
	rp.FinishCharge(b.ID())
	if err != nil {
		return err
	}
	recharges.Inc()
	emit(u.events, events.New(events.RechargeFinished, rp.ID(), "").To(u.id).About(b.ID()))
	return nil
}
