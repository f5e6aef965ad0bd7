package worker

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bikesim/core/model"
	"github.com/kilianp07/bikesim/core/request"
	"github.com/kilianp07/bikesim/core/signal"
	"github.com/kilianp07/bikesim/core/station"
)

func available(s *station.Station) int { return s.Snapshot().Count(model.Available) }

func TestTruck_StationSource(t *testing.T) {
	f := newFixture(t)
	src := f.addStation(t, "S1", 10, 8, model.Normal)
	dst := f.addStation(t, "S2", 10, 0, model.Normal)
	truck := NewTruck(f.gen, f.net, 0, nil, nil)
	runWorker(t, truck.Run)

	r, err := request.New("Manager-1", "S1", "S2", 3, signal.New(0))
	require.NoError(t, err)
	f.net.queue.Push(r)
	require.NoError(t, r.Wait(waitCtx(t)))

	assert.Eventually(t, func() bool { return available(dst) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 5, available(src))
	assert.Equal(t, 0, dst.Snapshot().Count(model.Relocating))
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(truckTrips.WithLabelValues("delivered")) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTruck_YardSource(t *testing.T) {
	f := newFixture(t)
	dst := f.addStation(t, "S2", 10, 0, model.Normal)
	list := f.bikes(t, "Y", 4, model.Normal)
	f.net.yard.Deposit(&list)
	truck := NewTruck(f.gen, f.net, time.Millisecond, nil, nil)
	runWorker(t, truck.Run)

	r, err := request.New("Manager-1", f.net.yard.ID(), "S2", 3, signal.New(0))
	require.NoError(t, err)
	f.net.queue.Push(r)
	require.NoError(t, r.Wait(waitCtx(t)))

	assert.Eventually(t, func() bool { return available(dst) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.net.yard.Count())
}

func TestTruck_NoSpaceReturnsLoad(t *testing.T) {
	f := newFixture(t)
	src := f.addStation(t, "S1", 10, 8, model.Normal)
	dst := f.addStation(t, "S2", 5, 4, model.Normal)
	truck := NewTruck(f.gen, f.net, 0, nil, nil)
	runWorker(t, truck.Run)

	r, err := request.New("Manager-1", "S1", "S2", 3, signal.New(0))
	require.NoError(t, err)
	f.net.queue.Push(r)
	require.NoError(t, r.Wait(waitCtx(t)))

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(truckTrips.WithLabelValues("returned")) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 8, available(src))
	assert.Equal(t, 4, available(dst))
	assert.Equal(t, 0, dst.Snapshot().Count(model.Relocating))
}

func TestTruck_EmptySource(t *testing.T) {
	f := newFixture(t)
	f.addStation(t, "S1", 10, 0, model.Normal)
	f.addStation(t, "S2", 10, 0, model.Normal)
	truck := NewTruck(f.gen, f.net, 0, nil, nil)
	runWorker(t, truck.Run)

	r, err := request.New("Manager-1", "S1", "S2", 3, signal.New(0))
	require.NoError(t, err)
	f.net.queue.Push(r)
	require.NoError(t, r.Wait(waitCtx(t)))
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(truckTrips.WithLabelValues("empty")) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTruck_UnknownDestinationStillResolves(t *testing.T) {
	f := newFixture(t)
	f.addStation(t, "S1", 10, 8, model.Normal)
	truck := NewTruck(f.gen, f.net, 0, nil, nil)
	runWorker(t, truck.Run)

	r, err := request.New("Manager-1", "S1", "S9", 3, signal.New(0))
	require.NoError(t, err)
	f.net.queue.Push(r)
	require.NoError(t, r.Wait(waitCtx(t)))
}
