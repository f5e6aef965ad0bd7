// Package app wires the configuration into a running simulation: the
// network, the manager, the workers, the event sinks and the HTTP endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	eventsapi "github.com/kilianp07/bikesim/api/events"
	stationsapi "github.com/kilianp07/bikesim/api/stations"
	"github.com/kilianp07/bikesim/config"
	"github.com/kilianp07/bikesim/core/eventlog"
	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/manager"
	coremetrics "github.com/kilianp07/bikesim/core/metrics"
	"github.com/kilianp07/bikesim/core/model"
	"github.com/kilianp07/bikesim/core/monitoring"
	"github.com/kilianp07/bikesim/core/random"
	"github.com/kilianp07/bikesim/core/report"
	"github.com/kilianp07/bikesim/core/signal"
	"github.com/kilianp07/bikesim/core/station"
	"github.com/kilianp07/bikesim/core/worker"
	"github.com/kilianp07/bikesim/infra/logger"
	"github.com/kilianp07/bikesim/infra/metrics"
	inframon "github.com/kilianp07/bikesim/infra/monitoring"
	"github.com/kilianp07/bikesim/infra/mqtt"
	"github.com/kilianp07/bikesim/internal/eventbus"
	"github.com/kilianp07/bikesim/pkg/export"
)

// Service runs one simulation.
type Service struct {
	cfg *config.Config
	id  string
	gen ident.Generator
	rnd random.Source
	log logger.Logger

	events    *events.Emitter
	bus       *eventbus.TypedBus[events.Event]
	store     eventlog.Store
	sink      coremetrics.SnapshotSink
	publisher *mqtt.Publisher
	logCloser io.Closer

	manager     *manager.Manager
	trucks      []*worker.Truck
	technicians []*worker.Technician

	mu       sync.Mutex
	outcomes map[worker.Outcome]int
	summary  report.Summary
}

// New creates a Service from the configuration. cfg is used as given; Load
// has already applied defaults. An empty Metrics.Addr disables the HTTP
// endpoint.
func New(cfg *config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	closer, err := logger.Configure(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(mon)

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := &Service{
		cfg:       cfg,
		gen:       ident.Default,
		rnd:       random.NewSeeded(seed),
		log:       logger.New("simulation"),
		bus:       eventbus.NewTyped[events.Event](),
		logCloser: closer,
		outcomes:  make(map[worker.Outcome]int),
	}
	s.id = ident.Prefixed(s.gen, "Simulation")
	if err := s.setup(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) setup() error {
	store, err := eventlog.Open(s.cfg.EventLog)
	if err != nil {
		return fmt.Errorf("eventlog: %w", err)
	}
	s.store = store

	s.events = events.NewEmitter(s.gen,
		eventlog.NewRecorder(store, s.log),
		events.RecorderFunc(s.bus.Publish),
		logger.NewEventSink(logger.New("events")),
		monitoring.ErrorRecorder{},
	)

	sink, err := coremetrics.NewSnapshotSink(s.cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	if s.cfg.MQTT.Enabled {
		pub, err := mqtt.NewPublisher(s.cfg.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		s.publisher = pub
		s.events.Add(pub)
		sink = coremetrics.NewMultiSink(sink, pub)
	}
	s.sink = sink

	stations, recharge, err := BuildNetwork(s.cfg, s.gen, s.rnd)
	if err != nil {
		return fmt.Errorf("network: %w", err)
	}
	yard := station.NewMaintenanceYard(s.gen)
	mgr, err := manager.New(manager.Config{
		MaintenanceInterval:    s.cfg.Timing.Sweep,
		RedistributionInterval: s.cfg.Timing.Sweep,
		RetryBackoff:           s.cfg.Timing.RetryBackoff,
		MinCapacity:            s.cfg.Policy.MinCapacity,
		MinMaintenance:         s.cfg.Policy.MinMaintenance,
	}, stations, yard, recharge, logger.New("manager"), s.events)
	if err != nil {
		return fmt.Errorf("manager: %w", err)
	}
	mgr.SetGenerator(s.gen)
	s.manager = mgr

	timing := s.cfg.Timing.Worker()
	for i := 0; i < s.cfg.Simulation.Trucks; i++ {
		s.trucks = append(s.trucks, worker.NewTruck(s.gen, mgr, timing.TransportTime, logger.New("truck"), s.events))
	}
	for _, st := range stations {
		s.technicians = append(s.technicians, worker.NewTechnician(s.gen, st, yard, timing.RepairTime, logger.New("technician"), s.events))
	}
	return nil
}

// Manager returns the network coordinator.
func (s *Service) Manager() *manager.Manager { return s.manager }

// Store returns the event log.
func (s *Service) Store() eventlog.Store { return s.store }

// Summary returns the report of the last completed Run.
func (s *Service) Summary() report.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Outcomes counts finished user trips by outcome.
func (s *Service) Outcomes() map[worker.Outcome]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[worker.Outcome]int, len(s.outcomes))
	for k, v := range s.outcomes {
		out[k] = v
	}
	return out
}

// Handler serves /metrics and the read-only API.
func (s *Service) Handler() http.Handler {
	return metrics.NewMux(nil, map[string]http.Handler{
		"/api/events":   eventsapi.NewHandler(s.store, s.cfg.API.Token),
		"/api/stations": stationsapi.NewHandler(s.manager),
	})
}

// Run starts every actor and blocks until ctx is cancelled or the configured
// duration elapses. The end-of-run report is built and, when configured,
// written before returning.
func (s *Service) Run(ctx context.Context) error {
	defer monitoring.Recover()
	if d := s.cfg.Simulation.Duration; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	started := time.Now()
	s.events.Emit(events.New(events.SystemStarted, s.id,
		fmt.Sprintf("%d stations, %d users, %d trucks", len(s.manager.Stations()), s.cfg.Simulation.Users, len(s.trucks))))

	g, gctx := errgroup.WithContext(ctx)
	collected := metrics.StartEventCollector(gctx, s.bus, s.sink)
	g.Go(func() error { return s.manager.Run(gctx) })
	for _, t := range s.trucks {
		g.Go(func() error { return t.Run(gctx) })
	}
	for _, t := range s.technicians {
		g.Go(func() error { return t.Run(gctx) })
	}
	g.Go(func() error { return s.spawnUsers(gctx, g) })
	g.Go(func() error { return s.recordSnapshots(gctx) })
	if addr := s.cfg.Metrics.Addr; addr != "" {
		g.Go(func() error {
			s.log.Infof("serving metrics and API on %s", addr)
			return metrics.Serve(gctx, addr, s.Handler())
		})
	}
	err := g.Wait()
	<-collected
	if err != nil {
		s.events.Emit(events.New(events.SystemError, s.id, err.Error()))
	}
	s.events.Emit(events.New(events.SystemStopped, s.id, ""))

	if rerr := s.finish(time.Since(started)); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

func (s *Service) spawnUsers(ctx context.Context, g *errgroup.Group) error {
	opts := worker.UserOptions{
		Gen:           s.gen,
		Rand:          s.rnd,
		ChargePct:     s.cfg.Policy.ChargePct,
		RideStartTime: s.cfg.Timing.RideStart,
		ChargeTime:    s.cfg.Timing.Charge,
	}
	log := logger.New("user")
	for i := 0; i < s.cfg.Simulation.Users; i++ {
		u, err := worker.NewUser(s.manager, opts, log, s.events)
		if err != nil {
			return err
		}
		g.Go(func() error {
			err := u.Run(ctx)
			s.mu.Lock()
			s.outcomes[u.Outcome()]++
			s.mu.Unlock()
			return err
		})
		if err := signal.Sleep(ctx, s.cfg.Simulation.UserSpawnInterval); err != nil {
			return nil
		}
	}
	return nil
}

func (s *Service) recordSnapshots(ctx context.Context) error {
	t := time.NewTicker(s.cfg.Timing.Sweep)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := s.sink.RecordStationSnapshots(s.snapshots()); err != nil {
				s.log.Warnf("record snapshots: %v", err)
			}
		}
	}
}

func (s *Service) snapshots() []model.StationSnapshot {
	stations := s.manager.Stations()
	out := make([]model.StationSnapshot, len(stations))
	for i, st := range stations {
		out[i] = st.Snapshot()
	}
	return out
}

func (s *Service) finish(elapsed time.Duration) error {
	evs, err := s.store.Query(context.Background(), eventlog.Query{})
	if err != nil {
		return fmt.Errorf("read event log: %w", err)
	}
	sum := report.Build(time.Now(), elapsed, s.snapshots(), s.manager.Yard().Count(), evs)
	s.mu.Lock()
	s.summary = sum
	fields := map[string]any{"duration": elapsed.String(), "events": len(evs)}
	for k, v := range s.outcomes {
		fields[string(k)] = v
	}
	s.mu.Unlock()
	s.log.Infow("simulation finished", fields)

	path := s.cfg.Simulation.ReportPath
	if path == "" {
		return nil
	}
	format, err := export.ParseFormat(s.cfg.Simulation.ReportFormat)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := export.Write(f, format, sum); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

// Close releases the event log, the broker connection and the log file.
func (s *Service) Close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	s.bus.Close()
	monitoring.Flush(2 * time.Second)
	if s.logCloser != nil {
		errs = append(errs, s.logCloser.Close())
	}
	return errors.Join(errs...)
}
