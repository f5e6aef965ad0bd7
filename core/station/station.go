package station

import (
	"fmt"
	"sync"

	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/model"
	"github.com/kilianp07/bikesim/core/random"
	"github.com/kilianp07/bikesim/core/signal"
)

// ErrInvalidArgument aliases the model error so callers only need one sentinel.
var ErrInvalidArgument = model.ErrInvalidArgument

// Options carries the collaborators and policy values of a station.
type Options struct {
	Gen  ident.Generator
	Rand random.Source
	// MinCapacity and MaxCapacity bound the random capacity given to stations
	// created with a capacity below MinCapacity.
	MinCapacity int
	MaxCapacity int
	// BreakdownPct is the probability, in percent, that a delivered bicycle is
	// flagged for service.
	BreakdownPct int
	// MinMaintenance is the out-of-service count a station must exceed before
	// it asks for a technician.
	MinMaintenance int
}

// DefaultOptions returns the stock policy values.
func DefaultOptions() Options {
	return Options{
		Gen:            ident.Default,
		Rand:           random.NewSeeded(0),
		MinCapacity:    5,
		MaxCapacity:    10,
		BreakdownPct:   20,
		MinMaintenance: 2,
	}
}

func (o *Options) setDefaults() {
	d := DefaultOptions()
	if o.Gen == nil {
		o.Gen = d.Gen
	}
	if o.Rand == nil {
		o.Rand = d.Rand
	}
	if o.MinCapacity <= 0 {
		o.MinCapacity = d.MinCapacity
	}
	if o.MaxCapacity < o.MinCapacity {
		o.MaxCapacity = o.MinCapacity
	}
}

// Station is a fixed-capacity dock.
type Station struct {
	id       string
	capacity int
	opts     Options

	mu          sync.Mutex
	pools       map[model.State][]*model.Bicycle
	maintenance *signal.Signal
}

// NewStation creates a station holding bikes as available bicycles. A blank id
// is replaced by a generated one and a capacity below opts.MinCapacity by a
// random one in [MinCapacity, MaxCapacity). Nil or duplicate bicycles, or more
// bicycles than capacity, are rejected.
func NewStation(id string, capacity int, opts Options, bikes ...*model.Bicycle) (*Station, error) {
	opts.setDefaults()
	seen := make(map[string]struct{}, len(bikes))
	for _, b := range bikes {
		if b == nil {
			return nil, fmt.Errorf("%w: nil bicycle", ErrInvalidArgument)
		}
		if _, dup := seen[b.ID()]; dup {
			return nil, fmt.Errorf("%w: duplicate bicycle %s", ErrInvalidArgument, b.ID())
		}
		seen[b.ID()] = struct{}{}
	}
	if capacity < opts.MinCapacity {
		capacity = random.Between(opts.Rand, opts.MinCapacity, opts.MaxCapacity)
	}
	if len(bikes) > capacity {
		return nil, fmt.Errorf("%w: %d bicycles exceed capacity %d", ErrInvalidArgument, len(bikes), capacity)
	}
	s := &Station{
		id:          ident.OrNew(opts.Gen, id),
		capacity:    capacity,
		opts:        opts,
		pools:       make(map[model.State][]*model.Bicycle, len(model.States)),
		maintenance: signal.New(0),
	}
	now := opts.Gen.Now()
	for _, b := range bikes {
		if b.State() != model.Available {
			b.SetState(model.Available, now)
		}
		s.pools[model.Available] = append(s.pools[model.Available], b)
	}
	return s, nil
}

// ID returns the station identifier.
func (s *Station) ID() string { return s.id }

// Capacity returns the fixed number of docks.
func (s *Station) Capacity() int { return s.capacity }

// MaintenanceSignal is released by the manager when the station needs a
// technician.
func (s *Station) MaintenanceSignal() *signal.Signal { return s.maintenance }

// Lock acquires the station lock.
func (s *Station) Lock() { s.mu.Lock() }

// Unlock releases the station lock.
func (s *Station) Unlock() { s.mu.Unlock() }

// AvailableCount returns the number of rentable bicycles. Requires the lock.
func (s *Station) AvailableCount() int { return len(s.pools[model.Available]) }

// Occupancy returns the number of docks in use. Requires the lock.
func (s *Station) Occupancy() int {
	n := 0
	for _, st := range model.States {
		if st.Docked() {
			n += len(s.pools[st])
		}
	}
	return n
}

// FreeCapacity returns the number of free docks. Requires the lock.
func (s *Station) FreeCapacity() int { return s.capacity - s.Occupancy() }

// HasSpace reports whether at least one dock is free. Requires the lock.
func (s *Station) HasSpace() bool { return s.FreeCapacity() > 0 }

// Count returns the size of the pool for st. Requires the lock.
func (s *Station) Count(st model.State) (int, error) {
	if !st.Valid() {
		return 0, fmt.Errorf("%w: state must be set", ErrInvalidArgument)
	}
	return len(s.pools[st]), nil
}

// RequestRental takes the oldest available bicycle, marks it rented and keeps
// a copy under requesterID in the rented pool. The returned bicycle carries
// the same substituted identity. Requires the lock.
func (s *Station) RequestRental(requesterID string) (*model.Bicycle, bool) {
	b, ok := s.pop(model.Available)
	if !ok {
		return nil, false
	}
	b.SetState(model.Rented, s.opts.Gen.Now())
	s.push(model.Rented, b.CloneAs(requesterID))
	return b.CloneAs(requesterID), true
}

// ReserveTransit books a dock for a bicycle inbound to this station. Requires
// the lock.
func (s *Station) ReserveTransit(b *model.Bicycle) bool {
	if b == nil || !s.HasSpace() {
		return false
	}
	b.SetState(model.InTransit, s.opts.Gen.Now())
	s.push(model.InTransit, b.Clone())
	return true
}

// ReserveRelocation books docks for every bicycle in *list and moves them to
// the relocating pool, leaving *list empty. Nothing changes when the list does
// not fit. It reports whether *list is empty afterwards. Requires the lock.
func (s *Station) ReserveRelocation(list *[]*model.Bicycle) bool {
	return s.admit(list, model.Relocating)
}

// CancelRelocation returns every bicycle in *list to the available pool under
// the same contract as ReserveRelocation. Requires the lock.
func (s *Station) CancelRelocation(list *[]*model.Bicycle) bool {
	return s.admit(list, model.Available)
}

func (s *Station) admit(list *[]*model.Bicycle, st model.State) bool {
	if list == nil {
		return true
	}
	if len(*list) <= s.FreeCapacity() {
		now := s.opts.Gen.Now()
		for _, b := range *list {
			b.SetState(st, now)
			s.push(st, b)
		}
		*list = (*list)[:0]
	}
	return len(*list) == 0
}

// PickupRental removes the rented bicycle held under id. Requires the lock.
func (s *Station) PickupRental(id string) (*model.Bicycle, bool) {
	pool := s.pools[model.Rented]
	for i, b := range pool {
		if b.ID() == id {
			s.pools[model.Rented] = append(pool[:i], pool[i+1:]...)
			return b, true
		}
	}
	return nil, false
}

// DeliverTransit completes an inbound trip. The bicycle must match (id and
// type) one previously reserved with ReserveTransit. It is filed as out of
// service when the maintenance check fails, as available otherwise. Requires
// the lock.
func (s *Station) DeliverTransit(b *model.Bicycle) bool {
	if b == nil || !s.remove(model.InTransit, b) {
		return false
	}
	now := s.opts.Gen.Now()
	if s.needsService(b) {
		b.SetState(model.OutOfService, now)
		s.push(model.OutOfService, b)
	} else {
		b.SetState(model.Available, now)
		s.push(model.Available, b)
	}
	return true
}

// needsService rolls the breakdown die once; an overdue bicycle always needs
// service.
func (s *Station) needsService(b *model.Bicycle) bool {
	roll := random.Percent(s.opts.Rand)
	return roll < s.opts.BreakdownPct || b.MaintenanceOverdue(s.opts.Gen.Now())
}

// CollectForRedistribution drains up to n available bicycles. Requires the lock.
func (s *Station) CollectForRedistribution(n int) ([]*model.Bicycle, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: bicycle count must be positive, got %d", ErrInvalidArgument, n)
	}
	pool := s.pools[model.Available]
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]*model.Bicycle, n)
	copy(out, pool[:n])
	s.pools[model.Available] = pool[n:]
	return out, nil
}

// FulfillRelocation moves previously reserved bicycles from the relocating
// pool to the available pool and empties *list. When any bicycle of *list is
// not relocating here, nothing changes. Requires the lock.
func (s *Station) FulfillRelocation(list *[]*model.Bicycle) bool {
	if list == nil {
		return true
	}
	pool := s.pools[model.Relocating]
	used := make([]bool, len(pool))
	idx := make([]int, 0, len(*list))
	for _, want := range *list {
		found := -1
		for i, b := range pool {
			if !used[i] && b.Equal(want) {
				found = i
				break
			}
		}
		if found < 0 {
			return len(*list) == 0
		}
		used[found] = true
		idx = append(idx, found)
	}
	now := s.opts.Gen.Now()
	for _, i := range idx {
		b := pool[i]
		b.SetState(model.Available, now)
		s.push(model.Available, b)
	}
	kept := pool[:0:0]
	for i, b := range pool {
		if !used[i] {
			kept = append(kept, b)
		}
	}
	s.pools[model.Relocating] = kept
	*list = (*list)[:0]
	return true
}

// NeedsMaintenanceAttention reports whether the out-of-service count exceeds
// the configured minimum. Requires the lock.
func (s *Station) NeedsMaintenanceAttention() bool {
	return len(s.pools[model.OutOfService]) > s.opts.MinMaintenance
}

// DrainForMaintenance empties the out-of-service pool and hands every bicycle
// over for repair. Requires the lock.
func (s *Station) DrainForMaintenance() []*model.Bicycle {
	pool := s.pools[model.OutOfService]
	out := make([]*model.Bicycle, len(pool))
	now := s.opts.Gen.Now()
	for i, b := range pool {
		b.SetState(model.InRepair, now)
		out[i] = b
	}
	s.pools[model.OutOfService] = nil
	return out
}

// Snapshot captures the station counts. It takes the lock itself.
func (s *Station) Snapshot() model.StationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Station) snapshotLocked() model.StationSnapshot {
	return model.StationSnapshot{
		StationID:    s.id,
		Capacity:     s.capacity,
		Available:    len(s.pools[model.Available]),
		Rented:       len(s.pools[model.Rented]),
		InRepair:     len(s.pools[model.InRepair]),
		InTransit:    len(s.pools[model.InTransit]),
		Relocating:   len(s.pools[model.Relocating]),
		OutOfService: len(s.pools[model.OutOfService]),
		Occupancy:    s.Occupancy(),
		Free:         s.FreeCapacity(),
		CapturedAt:   s.opts.Gen.Now(),
	}
}

func (s *Station) String() string {
	snap := s.Snapshot()
	return fmt.Sprintf("Station{id=%s capacity=%d occupancy=%d available=%d}", s.id, s.capacity, snap.Occupancy, snap.Available)
}

func (s *Station) pop(st model.State) (*model.Bicycle, bool) {
	pool := s.pools[st]
	if len(pool) == 0 {
		return nil, false
	}
	b := pool[0]
	pool[0] = nil
	s.pools[st] = pool[1:]
	return b, true
}

func (s *Station) push(st model.State, b *model.Bicycle) {
	s.pools[st] = append(s.pools[st], b)
}

func (s *Station) remove(st model.State, b *model.Bicycle) bool {
	pool := s.pools[st]
	for i, x := range pool {
		if x.Equal(b) {
			s.pools[st] = append(pool[:i], pool[i+1:]...)
			return true
		}
	}
	return false
}
