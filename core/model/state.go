package model

import (
	"fmt"
	"time"

	"github.com/kilianp07/bikesim/core/random"
)

// BikeType tells whether a bicycle may need a recharge during a trip.
type BikeType int

const (
	TypeUnset BikeType = iota
	Normal
	Electric
)

func (t BikeType) String() string {
	switch t {
	case Normal:
		return "normal"
	case Electric:
		return "electric"
	default:
		return "unset"
	}
}

// Valid reports whether t is a concrete type.
func (t BikeType) Valid() bool { return t == Normal || t == Electric }

func (t BikeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *BikeType) UnmarshalText(b []byte) error {
	v, err := ParseBikeType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseBikeType converts the textual form produced by String.
func ParseBikeType(s string) (BikeType, error) {
	switch s {
	case "normal":
		return Normal, nil
	case "electric":
		return Electric, nil
	}
	return TypeUnset, fmt.Errorf("%w: bike type %q", ErrInvalidArgument, s)
}

// RandomType flips a coin between Normal and Electric.
func RandomType(rnd random.Source) BikeType {
	if rnd.Bool() {
		return Electric
	}
	return Normal
}

// State is the lifecycle tag of a bicycle.
type State int

const (
	StateUnset State = iota
	Available
	Rented
	InRepair
	InTransit
	Relocating
	OutOfService
)

// States lists every concrete state in table order.
var States = []State{Available, Rented, InRepair, InTransit, Relocating, OutOfService}

// stateEntry is one row of the weighted selection table.
// weight is cumulative out of random.D100; docked states count towards station
// occupancy.
type stateEntry struct {
	state  State
	weight int
	opTime time.Duration
	name   string
	docked bool
}

var stateTable = []stateEntry{
	{Available, 50, 0, "available", true},
	{Rented, 70, 4 * time.Second, "rented", true},
	{InRepair, 85, 2 * time.Second, "in_repair", false},
	{InTransit, 95, 6 * time.Second, "in_transit", true},
	{Relocating, 98, 0, "relocating", true},
	{OutOfService, 100, 0, "out_of_service", true},
}

func (s State) entry() (stateEntry, bool) {
	for _, e := range stateTable {
		if e.state == s {
			return e, true
		}
	}
	return stateEntry{}, false
}

func (s State) String() string {
	if e, ok := s.entry(); ok {
		return e.name
	}
	return "unset"
}

// Valid reports whether s is a concrete state.
func (s State) Valid() bool {
	_, ok := s.entry()
	return ok
}

// Docked reports whether bicycles in this state occupy a dock at their station.
// InRepair bicycles have physically left the station.
func (s State) Docked() bool {
	e, _ := s.entry()
	return e.docked
}

// OperationTime is the nominal time a bicycle spends in the state.
func (s State) OperationTime() time.Duration {
	e, _ := s.entry()
	return e.opTime
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseState converts the textual form produced by String.
func ParseState(name string) (State, error) {
	for _, e := range stateTable {
		if e.name == name {
			return e.state, nil
		}
	}
	return StateUnset, fmt.Errorf("%w: state %q", ErrInvalidArgument, name)
}

// RandomState draws a single D100 roll and returns the first state whose
// cumulative weight exceeds it.
func RandomState(rnd random.Source) State {
	return StateForRoll(random.Percent(rnd))
}

// StateForRoll maps a roll in [0,100) onto the weighted table.
func StateForRoll(roll int) State {
	for _, e := range stateTable {
		if e.weight > roll {
			return e.state
		}
	}
	return StateUnset
}
