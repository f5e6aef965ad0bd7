// Package manager coordinates the bicycle network. A Manager runs four loops:
// transport intake, transport resolution, the maintenance sweep and the
// redistribution sweep.
package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/logger"
	"github.com/kilianp07/bikesim/core/request"
	"github.com/kilianp07/bikesim/core/station"
)

// ErrUnknownStation is reported when a request names a station the manager
// does not own.
var ErrUnknownStation = errors.New("unknown station")

// Config holds the manager policy.
type Config struct {
	// MaintenanceInterval is the pause between two maintenance sweeps.
	MaintenanceInterval time.Duration
	// RedistributionInterval is the pause between two redistribution sweeps.
	RedistributionInterval time.Duration
	// RetryBackoff pauses the resolution loop after requeueing a request.
	// Zero keeps the plain busy retry.
	RetryBackoff time.Duration
	// MinCapacity is the available-bicycle threshold used to pick
	// redistribution sources (above) and destinations (below).
	MinCapacity int
	// MinMaintenance is the yard count above which the yard becomes the
	// redistribution source.
	MinMaintenance int
}

// DefaultConfig returns the stock policy.
func DefaultConfig() Config {
	return Config{
		MaintenanceInterval:    time.Second,
		RedistributionInterval: time.Second,
		MinCapacity:            5,
		MinMaintenance:         2,
	}
}

func (c *Config) setDefaults() {
	d := DefaultConfig()
	if c.MaintenanceInterval <= 0 {
		c.MaintenanceInterval = d.MaintenanceInterval
	}
	if c.RedistributionInterval <= 0 {
		c.RedistributionInterval = d.RedistributionInterval
	}
	if c.MinCapacity <= 0 {
		c.MinCapacity = d.MinCapacity
	}
	if c.MinMaintenance <= 0 {
		c.MinMaintenance = d.MinMaintenance
	}
}

// Manager owns the station table and the request queues.
type Manager struct {
	id       string
	cfg      Config
	stations []*station.Station
	byID     map[string]*station.Station
	yard     *station.MaintenanceYard
	recharge *station.RechargePoint

	transport      *request.Queue
	pending        *request.Queue
	redistribution *request.Queue

	events *events.Emitter
	log    logger.Logger
	gen    ident.Generator
}

// New builds a manager over stations, kept in the given order for the
// redistribution scans. The yard is required; recharge may be nil.
func New(cfg Config, stations []*station.Station, yard *station.MaintenanceYard, recharge *station.RechargePoint, log logger.Logger, em *events.Emitter) (*Manager, error) {
	if len(stations) == 0 {
		return nil, fmt.Errorf("%w: manager needs at least one station", station.ErrInvalidArgument)
	}
	if yard == nil {
		return nil, fmt.Errorf("%w: manager needs a maintenance yard", station.ErrInvalidArgument)
	}
	cfg.setDefaults()
	byID := make(map[string]*station.Station, len(stations))
	for _, s := range stations {
		if s == nil {
			return nil, fmt.Errorf("%w: nil station", station.ErrInvalidArgument)
		}
		if _, dup := byID[s.ID()]; dup {
			return nil, fmt.Errorf("%w: duplicate station %s", station.ErrInvalidArgument, s.ID())
		}
		byID[s.ID()] = s
	}
	m := &Manager{
		cfg:            cfg,
		stations:       append([]*station.Station(nil), stations...),
		byID:           byID,
		yard:           yard,
		recharge:       recharge,
		transport:      request.NewQueue(),
		pending:        request.NewQueue(),
		redistribution: request.NewQueue(),
		events:         em,
		log:            log,
		gen:            ident.Default,
	}
	m.id = ident.Prefixed(m.gen, "Manager")
	return m, nil
}

// SetGenerator replaces the id generator, mainly for tests.
func (m *Manager) SetGenerator(gen ident.Generator) {
	if gen != nil {
		m.gen = gen
		m.id = ident.Prefixed(gen, "Manager")
	}
}

func (m *Manager) ID() string { return m.id }

// Stations returns the stations in configured order.
func (m *Manager) Stations() []*station.Station {
	return append([]*station.Station(nil), m.stations...)
}

// Station looks a station up by id.
func (m *Manager) Station(id string) (*station.Station, bool) {
	s, ok := m.byID[id]
	return s, ok
}

func (m *Manager) Yard() *station.MaintenanceYard { return m.yard }

func (m *Manager) Recharge() *station.RechargePoint { return m.recharge }

// Redistribution is the queue trucks consume.
func (m *Manager) Redistribution() *request.Queue { return m.redistribution }

// SubmitTransport enqueues a user trip request and wakes the intake loop.
func (m *Manager) SubmitTransport(r *request.Request) {
	m.transport.Push(r)
}

// Run starts the four loops and blocks until ctx is cancelled. Cancellation
// is not an error.
func (m *Manager) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.intake(ctx) })
	g.Go(func() error { return m.resolve(ctx) })
	g.Go(func() error { return m.maintenanceSweep(ctx) })
	g.Go(func() error { return m.redistributionSweep(ctx) })
	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (m *Manager) emit(e events.Event) {
	m.events.Emit(e)
}

func (m *Manager) debugf(format string, args ...any) {
	if m.log != nil {
		m.log.Debugf(format, args...)
	}
}
