package manager

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bikesim/core/events"
	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/model"
	"github.com/kilianp07/bikesim/core/random"
	"github.com/kilianp07/bikesim/core/request"
	"github.com/kilianp07/bikesim/core/signal"
	"github.com/kilianp07/bikesim/core/station"
)

var epoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

type capture struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capture) Record(e events.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *capture) count(k events.Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

type fixture struct {
	gen      *ident.Fixed
	opts     station.Options
	yard     *station.MaintenanceYard
	recorder *capture
}

func newFixture(rolls ...int) *fixture {
	if len(rolls) == 0 {
		rolls = []int{99}
	}
	gen := ident.NewFixed("id-", epoch)
	return &fixture{
		gen: gen,
		opts: station.Options{
			Gen:            gen,
			Rand:           &random.Fixed{Rolls: rolls},
			MinCapacity:    5,
			MaxCapacity:    10,
			BreakdownPct:   20,
			MinMaintenance: 2,
		},
		yard:     station.NewMaintenanceYard(gen),
		recorder: &capture{},
	}
}

func (f *fixture) bikes(t *testing.T, prefix string, n int) []*model.Bicycle {
	t.Helper()
	out := make([]*model.Bicycle, 0, n)
	for i := 0; i < n; i++ {
		b, err := model.NewBicycle(f.gen, fmt.Sprintf("%s%d", prefix, i), model.Normal, 12*time.Second)
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}

func (f *fixture) station(t *testing.T, id string, capacity, bikes int) *station.Station {
	t.Helper()
	s, err := station.NewStation(id, capacity, f.opts, f.bikes(t, id+"-B", bikes)...)
	require.NoError(t, err)
	return s
}

func (f *fixture) manager(t *testing.T, cfg Config, stations ...*station.Station) *Manager {
	t.Helper()
	ResetMetrics(prometheus.NewRegistry())
	m, err := New(cfg, stations, f.yard, nil, nil, events.NewEmitter(f.gen, f.recorder))
	require.NoError(t, err)
	m.SetGenerator(f.gen)
	return m
}

// start runs m until the test ends and waits for it to stop, so the
// package counters are never swapped under a live loop.
func start(t *testing.T, m *Manager) context.Context {
	t.Helper()
	ctx := start(t, m)
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Error("manager did not stop")
		}
	})
	return ctx
}

func fastConfig() Config {
	return Config{
		MaintenanceInterval:    10 * time.Millisecond,
		RedistributionInterval: 10 * time.Millisecond,
		MinCapacity:            5,
		MinMaintenance:         2,
	}
}

func TestNew_Validation(t *testing.T) {
	f := newFixture()
	s1 := f.station(t, "S1", 10, 1)

	_, err := New(Config{}, nil, f.yard, nil, nil, nil)
	assert.ErrorIs(t, err, station.ErrInvalidArgument)

	_, err = New(Config{}, []*station.Station{s1}, nil, nil, nil, nil)
	assert.ErrorIs(t, err, station.ErrInvalidArgument)

	_, err = New(Config{}, []*station.Station{s1, s1}, f.yard, nil, nil, nil)
	assert.ErrorIs(t, err, station.ErrInvalidArgument)

	m, err := New(Config{}, []*station.Station{s1}, f.yard, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), m.cfg)
	got, ok := m.Station("S1")
	assert.True(t, ok)
	assert.Same(t, s1, got)
	_, ok = m.Station("nope")
	assert.False(t, ok)
}

func TestTryReserve(t *testing.T) {
	f := newFixture()
	origin := f.station(t, "S1", 10, 1)
	dest := f.station(t, "S2", 5, 4)
	m := f.manager(t, fastConfig(), origin, dest)

	r, err := request.NewTransport("U1", "S1", "S2", signal.New(0))
	require.NoError(t, err)
	route, err := m.route(r)
	require.NoError(t, err)

	require.True(t, m.tryReserve(route, r))
	snapO, snapD := origin.Snapshot(), dest.Snapshot()
	assert.Equal(t, 0, snapO.Count(model.Available))
	assert.Equal(t, 1, snapO.Count(model.Rented))
	assert.Equal(t, 1, snapD.Count(model.InTransit))
	assert.Equal(t, 0, snapD.Free)

	origin.Lock()
	b, ok := origin.PickupRental("U1")
	origin.Unlock()
	require.True(t, ok)
	assert.Equal(t, "U1", b.ID())

	// origin is now empty
	assert.False(t, m.tryReserve(route, r))
}

func TestRoute_UnknownStation(t *testing.T) {
	f := newFixture()
	m := f.manager(t, fastConfig(), f.station(t, "S1", 10, 1))
	r, err := request.NewTransport("U1", "S1", "S9", signal.New(0))
	require.NoError(t, err)
	_, err = m.route(r)
	assert.ErrorIs(t, err, ErrUnknownStation)
}

func TestRun_ResolvesTransport(t *testing.T) {
	f := newFixture()
	m := f.manager(t, fastConfig(), f.station(t, "S1", 10, 5), f.station(t, "S2", 10, 5))

	ctx := start(t, m)

	r, err := request.NewTransport("U1", "S1", "S2", signal.New(0))
	require.NoError(t, err)
	m.SubmitTransport(r)

	wctx, wcancel := context.WithTimeout(ctx, time.Second)
	defer wcancel()
	require.NoError(t, r.Wait(wctx))
	// the done signal was released exactly once and consumed by Wait
	assert.False(t, r.Resolve())

	assert.Eventually(t, func() bool {
		return f.recorder.count(events.UserRequestConfirmed) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(requestsResolved))
	assert.Equal(t, 1, f.recorder.count(events.ManagerProcessingRequest))
}

func TestRun_RequeuesUntilCancelled(t *testing.T) {
	f := newFixture()
	cfg := fastConfig()
	cfg.RetryBackoff = time.Millisecond
	// destination full: the request can never be served
	m := f.manager(t, cfg, f.station(t, "S1", 10, 5), f.station(t, "S2", 5, 5))

	ctx := start(t, m)

	r, err := request.NewTransport("U1", "S1", "S2", signal.New(0))
	require.NoError(t, err)
	m.SubmitTransport(r)

	wctx, wcancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer wcancel()
	assert.ErrorIs(t, r.Wait(wctx), context.DeadlineExceeded)

	assert.Greater(t, testutil.ToFloat64(requestsRequeued), float64(0))
	assert.Equal(t, float64(0), testutil.ToFloat64(requestsResolved))
}

func TestRun_DropsUnknownStation(t *testing.T) {
	f := newFixture()
	m := f.manager(t, fastConfig(), f.station(t, "S1", 10, 5), f.station(t, "S2", 10, 5))

	ctx := start(t, m)

	bad, err := request.NewTransport("U1", "S1", "S9", signal.New(0))
	require.NoError(t, err)
	good, err := request.NewTransport("U2", "S1", "S2", signal.New(0))
	require.NoError(t, err)
	m.SubmitTransport(bad)
	m.SubmitTransport(good)

	wctx, wcancel := context.WithTimeout(ctx, time.Second)
	defer wcancel()
	require.NoError(t, good.Wait(wctx))
	assert.Equal(t, float64(1), testutil.ToFloat64(requestsDropped))
	assert.Equal(t, 1, f.recorder.count(events.SystemError))
}

func TestCheckMaintenance(t *testing.T) {
	// every roll breaks the delivered bicycle down
	f := newFixture(0)
	s := f.station(t, "S1", 10, 0)
	m := f.manager(t, fastConfig(), s)

	s.Lock()
	for i, b := range f.bikes(t, "X", 3) {
		require.True(t, s.ReserveTransit(b))
		require.True(t, s.DeliverTransit(b))
		if i == 1 {
			// two out-of-service bicycles do not exceed the threshold
			assert.False(t, s.NeedsMaintenanceAttention())
		}
	}
	s.Unlock()

	m.checkMaintenance(s)
	assert.Equal(t, 1, s.MaintenanceSignal().Count())
	assert.Equal(t, float64(1), testutil.ToFloat64(maintenanceAlerts))
	assert.Equal(t, 1, f.recorder.count(events.StationMaintenanceRequired))
}

func TestPlanRedistribution(t *testing.T) {
	t.Run("station source", func(t *testing.T) {
		f := newFixture()
		m := f.manager(t, fastConfig(),
			f.station(t, "S1", 10, 5), f.station(t, "S2", 10, 7), f.station(t, "S3", 10, 2), f.station(t, "S4", 10, 1))
		p, ok := m.planRedistribution()
		require.True(t, ok)
		assert.Equal(t, plan{source: "S2", destination: "S3", count: 7}, p)
	})

	t.Run("yard source", func(t *testing.T) {
		f := newFixture()
		m := f.manager(t, fastConfig(), f.station(t, "S1", 10, 8), f.station(t, "S2", 10, 0))
		list := f.bikes(t, "Y", 3)
		f.yard.Deposit(&list)
		p, ok := m.planRedistribution()
		require.True(t, ok)
		assert.Equal(t, plan{source: f.yard.ID(), destination: "S2", count: 3, fromYard: true}, p)
	})

	t.Run("yard at threshold is ignored", func(t *testing.T) {
		f := newFixture()
		m := f.manager(t, fastConfig(), f.station(t, "S1", 10, 8), f.station(t, "S2", 10, 0))
		list := f.bikes(t, "Y", 2)
		f.yard.Deposit(&list)
		p, ok := m.planRedistribution()
		require.True(t, ok)
		assert.Equal(t, "S1", p.source)
		assert.False(t, p.fromYard)
	})

	t.Run("no destination", func(t *testing.T) {
		f := newFixture()
		m := f.manager(t, fastConfig(), f.station(t, "S1", 10, 8), f.station(t, "S2", 10, 5))
		_, ok := m.planRedistribution()
		assert.False(t, ok)
	})

	t.Run("no source", func(t *testing.T) {
		f := newFixture()
		m := f.manager(t, fastConfig(), f.station(t, "S1", 10, 5), f.station(t, "S2", 10, 1))
		_, ok := m.planRedistribution()
		assert.False(t, ok)
	})
}

func TestRun_RedistributionWaitsForTruck(t *testing.T) {
	f := newFixture()
	m := f.manager(t, fastConfig(), f.station(t, "S1", 10, 8), f.station(t, "S2", 10, 0))

	ctx := start(t, m)

	pctx, pcancel := context.WithTimeout(ctx, time.Second)
	defer pcancel()
	r, err := m.Redistribution().Pop(pctx)
	require.NoError(t, err)
	assert.Equal(t, "S1", r.Origin())
	assert.Equal(t, "S2", r.Destination())
	assert.Equal(t, 8, r.Count())
	assert.Equal(t, m.ID(), r.Requester())

	// the sweep blocks until the request is resolved
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, m.Redistribution().Len())
	assert.Equal(t, float64(0), testutil.ToFloat64(redistributions.WithLabelValues("station")))

	r.Resolve()
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(redistributions.WithLabelValues("station")) >= 1
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(bicyclesMoved), float64(8))
}
