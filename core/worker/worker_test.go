package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/model"
	"github.com/kilianp07/bikesim/core/random"
	"github.com/kilianp07/bikesim/core/request"
	"github.com/kilianp07/bikesim/core/station"
)

var epoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

// fakeNetwork resolves transport requests immediately. With reserve set it
// books the trip the way the manager does; otherwise it only confirms.
type fakeNetwork struct {
	stations []*station.Station
	yard     *station.MaintenanceYard
	recharge *station.RechargePoint
	queue    *request.Queue
	reserve  bool
}

func (n *fakeNetwork) Stations() []*station.Station     { return n.stations }
func (n *fakeNetwork) Yard() *station.MaintenanceYard   { return n.yard }
func (n *fakeNetwork) Recharge() *station.RechargePoint { return n.recharge }
func (n *fakeNetwork) Redistribution() *request.Queue   { return n.queue }

func (n *fakeNetwork) Station(id string) (*station.Station, bool) {
	for _, s := range n.stations {
		if s.ID() == id {
			return s, true
		}
	}
	return nil, false
}

func (n *fakeNetwork) SubmitTransport(r *request.Request) {
	if n.reserve {
		o, _ := n.Station(r.Origin())
		d, _ := n.Station(r.Destination())
		route, err := station.NewRoute(o, d)
		if err == nil {
			route.Lock()
			if b, ok := o.RequestRental(r.Requester()); ok {
				d.ReserveTransit(b)
			}
			route.Unlock()
		}
	}
	r.Resolve()
}

type fixture struct {
	gen  *ident.Fixed
	opts station.Options
	net  *fakeNetwork
}

func newFixture(t *testing.T, rolls ...int) *fixture {
	t.Helper()
	if len(rolls) == 0 {
		rolls = []int{99}
	}
	ResetMetrics(prometheus.NewRegistry())
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
		net: &fakeNetwork{
			yard:  station.NewMaintenanceYard(gen),
			queue: request.NewQueue(),
		},
	}
}

func (f *fixture) bikes(t *testing.T, prefix string, n int, typ model.BikeType) []*model.Bicycle {
	t.Helper()
	out := make([]*model.Bicycle, 0, n)
	for i := 0; i < n; i++ {
		b, err := model.NewBicycle(f.gen, fmt.Sprintf("%s%d", prefix, i), typ, 12*time.Second)
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}

// addStation builds a station with n bicycles of typ and adds it to the
// network.
func (f *fixture) addStation(t *testing.T, id string, capacity, n int, typ model.BikeType) *station.Station {
	t.Helper()
	s, err := station.NewStation(id, capacity, f.opts, f.bikes(t, id+"-B", n, typ)...)
	require.NoError(t, err)
	f.net.stations = append(f.net.stations, s)
	return s
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// runWorker starts run and waits for it to return when the test ends.
func runWorker(t *testing.T, run func(context.Context) error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Error("worker did not stop")
		}
	})
}
