package station

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/model"
	"github.com/kilianp07/bikesim/core/random"
)

// RechargePoint is a bounded set of charging slots for electric bicycles.
// Callers take a slot with AcquireSlot before StartCharge and give it back with
// ReleaseSlot after FinishCharge.
type RechargePoint struct {
	id       string
	capacity int
	slots    *semaphore.Weighted

	mu       sync.Mutex
	charging []*model.Bicycle
}

// NewRechargePoint creates a recharge point. A capacity outside
// [1, opts.MaxCapacity] is replaced by a random one in
// [opts.MinCapacity, opts.MaxCapacity).
func NewRechargePoint(capacity int, opts Options) *RechargePoint {
	opts.setDefaults()
	if capacity < 1 || capacity > opts.MaxCapacity {
		capacity = random.Between(opts.Rand, opts.MinCapacity, opts.MaxCapacity)
	}
	return &RechargePoint{
		id:       ident.Prefixed(opts.Gen, "RechargePoint"),
		capacity: capacity,
		slots:    semaphore.NewWeighted(int64(capacity)),
	}
}

func (p *RechargePoint) ID() string    { return p.id }
func (p *RechargePoint) Capacity() int { return p.capacity }

// AcquireSlot blocks until a slot is free or ctx is done.
func (p *RechargePoint) AcquireSlot(ctx context.Context) error {
	return p.slots.Acquire(ctx, 1)
}

// ReleaseSlot returns a slot taken with AcquireSlot.
func (p *RechargePoint) ReleaseSlot() { p.slots.Release(1) }

// StartCharge plugs in a copy of b. Only electric bicycles can be charged.
func (p *RechargePoint) StartCharge(b *model.Bicycle) error {
	if b == nil || b.Type() != model.Electric {
		return fmt.Errorf("%w: only electric bicycles can be charged", ErrInvalidArgument)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.charging) >= p.capacity {
		return fmt.Errorf("%w: recharge point %s is full", ErrInvalidArgument, p.id)
	}
	p.charging = append(p.charging, b.Clone())
	return nil
}

// FinishCharge unplugs the bicycle with the given id.
func (p *RechargePoint) FinishCharge(id string) (*model.Bicycle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, b := range p.charging {
		if b.ID() == id {
			p.charging = append(p.charging[:i], p.charging[i+1:]...)
			return b, true
		}
	}
	return nil, false
}

// Charging returns the number of bicycles plugged in.
func (p *RechargePoint) Charging() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.charging)
}

// Free returns the number of unused chargers.
func (p *RechargePoint) Free() int { return p.capacity - p.Charging() }
