// Package model holds the bicycle value entity and the immutable records used
// for reporting.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/random"
)

// ErrInvalidArgument is returned for malformed input supplied at construction
// or to a pool operation.
var ErrInvalidArgument = errors.New("invalid argument")

// DefaultServiceInterval is the time a bicycle may stay available before it is
// due for maintenance.
const DefaultServiceInterval = 12 * time.Second

// Bicycle is a value entity. Its state is mutated only by the pool that owns it,
// while that pool's lock is held.
type Bicycle struct {
	id              string
	typ             BikeType
	state           State
	stateChangedAt  time.Time
	maintenanceDue  time.Time
	serviceInterval time.Duration
}

// NewBicycle creates an available bicycle. A blank id is replaced by a
// generated one.
func NewBicycle(gen ident.Generator, id string, typ BikeType, serviceInterval time.Duration) (*Bicycle, error) {
	return Restore(gen, id, typ, Available, gen.Now(), serviceInterval)
}

// NewRandomBicycle creates an available bicycle with a generated id and a
// random type.
func NewRandomBicycle(gen ident.Generator, rnd random.Source, serviceInterval time.Duration) *Bicycle {
	b, _ := NewBicycle(gen, "", RandomType(rnd), serviceInterval)
	return b
}

// Restore creates a bicycle in an arbitrary state as of changedAt.
func Restore(gen ident.Generator, id string, typ BikeType, state State, changedAt time.Time, serviceInterval time.Duration) (*Bicycle, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: bicycle type must be set", ErrInvalidArgument)
	}
	if !state.Valid() {
		return nil, fmt.Errorf("%w: bicycle state must be set", ErrInvalidArgument)
	}
	if changedAt.IsZero() {
		return nil, fmt.Errorf("%w: state timestamp must be set", ErrInvalidArgument)
	}
	if serviceInterval <= 0 {
		serviceInterval = DefaultServiceInterval
	}
	return &Bicycle{
		id:              ident.OrNew(gen, id),
		typ:             typ,
		state:           state,
		stateChangedAt:  changedAt,
		maintenanceDue:  changedAt.Add(serviceInterval),
		serviceInterval: serviceInterval,
	}, nil
}

func (b *Bicycle) ID() string                { return b.id }
func (b *Bicycle) Type() BikeType            { return b.typ }
func (b *Bicycle) State() State              { return b.state }
func (b *Bicycle) StateChangedAt() time.Time { return b.stateChangedAt }
func (b *Bicycle) MaintenanceDue() time.Time { return b.maintenanceDue }

// SetState moves the bicycle to s at now. The maintenance due date is only
// recomputed when the bicycle becomes available again.
func (b *Bicycle) SetState(s State, now time.Time) {
	b.stateChangedAt = now
	if s == Available {
		b.maintenanceDue = now.Add(b.serviceInterval)
	}
	b.state = s
}

// MaintenanceOverdue reports whether the due date has passed at now.
func (b *Bicycle) MaintenanceOverdue(now time.Time) bool {
	return b.maintenanceDue.Before(now)
}

// NeedsCharge rolls whether an electric bicycle must be recharged to complete
// a trip. pct is the probability in percent.
func (b *Bicycle) NeedsCharge(rnd random.Source, pct int) bool {
	roll := random.Percent(rnd)
	return b.typ == Electric && roll < pct
}

// Clone returns an independent copy.
func (b *Bicycle) Clone() *Bicycle {
	c := *b
	return &c
}

// CloneAs returns a copy carrying a substituted identity. It models the
// physical hand-off of a bicycle to a requester.
func (b *Bicycle) CloneAs(id string) *Bicycle {
	c := *b
	c.id = id
	return &c
}

// Equal compares identity and type only.
func (b *Bicycle) Equal(o *Bicycle) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.id == o.id && b.typ == o.typ
}

// Record returns an immutable snapshot of the bicycle.
func (b *Bicycle) Record(at time.Time) BicycleRecord {
	return BicycleRecord{ID: b.id, Type: b.typ, State: b.state, CapturedAt: at}
}

func (b *Bicycle) String() string {
	return fmt.Sprintf("Bicycle{id=%s type=%s state=%s}", b.id, b.typ, b.state)
}

// Compare orders bicycles by id: numerically when both ids are integers,
// lexicographically otherwise.
func Compare(a, b *Bicycle) int {
	na, errA := strconv.ParseInt(a.id, 10, 64)
	nb, errB := strconv.ParseInt(b.id, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	return strings.Compare(a.id, b.id)
}
