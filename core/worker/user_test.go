package worker

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bikesim/core/ident"
	"github.com/kilianp07/bikesim/core/model"
	"github.com/kilianp07/bikesim/core/random"
	"github.com/kilianp07/bikesim/core/request"
	"github.com/kilianp07/bikesim/core/station"
)

func userOptions(gen ident.Generator, rolls ...int) UserOptions {
	return UserOptions{
		Gen:       gen,
		Rand:      &random.Fixed{Rolls: rolls},
		ChargePct: 40,
	}
}

func TestNewUser_NeedsTwoStations(t *testing.T) {
	f := newFixture(t)
	f.addStation(t, "S1", 10, 5, model.Normal)
	_, err := NewUser(f.net, userOptions(f.gen, 0), nil, nil)
	assert.ErrorIs(t, err, station.ErrInvalidArgument)
}

func TestNewUser_DistinctEndpoints(t *testing.T) {
	f := newFixture(t)
	f.addStation(t, "S1", 10, 5, model.Normal)
	f.addStation(t, "S2", 10, 5, model.Normal)
	f.addStation(t, "S3", 10, 5, model.Normal)
	for o := 0; o < 3; o++ {
		for d := 0; d < 2; d++ {
			u, err := NewUser(f.net, userOptions(f.gen, o, d), nil, nil)
			require.NoError(t, err)
			assert.NotEqual(t, u.Origin().ID(), u.Destination().ID())
			assert.Equal(t, f.net.stations[o].ID(), u.Origin().ID())
		}
	}
}

func TestUser_Trip(t *testing.T) {
	f := newFixture(t)
	f.net.reserve = true
	origin := f.addStation(t, "S1", 10, 5, model.Normal)
	dest := f.addStation(t, "S2", 10, 0, model.Normal)

	u, err := NewUser(f.net, userOptions(f.gen, 0), nil, nil)
	require.NoError(t, err)
	require.Same(t, origin, u.Origin())
	require.Same(t, dest, u.Destination())

	require.NoError(t, u.Run(waitCtx(t)))
	assert.Equal(t, OutcomeDelivered, u.Outcome())
	assert.Equal(t, 4, available(origin))
	assert.Equal(t, 0, origin.Snapshot().Count(model.Rented))
	snap := dest.Snapshot()
	assert.Equal(t, 1, snap.Count(model.Available))
	assert.Equal(t, 0, snap.Count(model.InTransit))
	assert.Equal(t, float64(1), testutil.ToFloat64(deliveries.WithLabelValues(string(OutcomeDelivered))))
}

func TestUser_NoBicycles(t *testing.T) {
	f := newFixture(t)
	f.addStation(t, "S1", 10, 0, model.Normal)
	f.addStation(t, "S2", 10, 0, model.Normal)

	u, err := NewUser(f.net, userOptions(f.gen, 0), nil, nil)
	require.NoError(t, err)
	require.NoError(t, u.Run(waitCtx(t)))
	assert.Equal(t, OutcomeNoBicycles, u.Outcome())
}

func TestUser_DirectRentalIsRejectedAtDestination(t *testing.T) {
	// the network confirms without booking a dock
	f := newFixture(t)
	origin := f.addStation(t, "S1", 10, 1, model.Normal)
	dest := f.addStation(t, "S2", 10, 0, model.Normal)

	u, err := NewUser(f.net, userOptions(f.gen, 0), nil, nil)
	require.NoError(t, err)
	require.NoError(t, u.Run(waitCtx(t)))
	assert.Equal(t, OutcomeRejected, u.Outcome())
	assert.Equal(t, 0, available(origin))
	assert.Equal(t, 0, dest.Snapshot().Occupancy)
}

func TestUser_RechargesElectric(t *testing.T) {
	f := newFixture(t)
	f.net.reserve = true
	f.net.recharge = station.NewRechargePoint(1, f.opts)
	f.addStation(t, "S1", 10, 5, model.Electric)
	dest := f.addStation(t, "S2", 10, 0, model.Electric)

	// roll 0 picks S1 -> S2 and always needs a charge
	u, err := NewUser(f.net, userOptions(f.gen, 0), nil, nil)
	require.NoError(t, err)
	require.NoError(t, u.Run(waitCtx(t)))
	assert.Equal(t, OutcomeDelivered, u.Outcome())
	assert.Equal(t, 1, available(dest))
	assert.Equal(t, 0, f.net.recharge.Charging())
	assert.Equal(t, float64(1), testutil.ToFloat64(recharges))
}

func TestUser_CancelledWhileWaiting(t *testing.T) {
	f := newFixture(t)
	s1 := f.addStation(t, "S1", 10, 5, model.Normal)
	s2 := f.addStation(t, "S2", 10, 5, model.Normal)
	net := &blockingNetwork{fakeNetwork: f.net}

	u, err := NewUser(net, userOptions(f.gen, 0), nil, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, u.Run(ctx))
	assert.Equal(t, OutcomeInterrupted, u.Outcome())
	assert.Equal(t, 5, available(s1))
	assert.Equal(t, 5, available(s2))
}

// blockingNetwork never confirms a request.
type blockingNetwork struct {
	*fakeNetwork
}

func (blockingNetwork) SubmitTransport(*request.Request) {}
