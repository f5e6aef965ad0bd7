package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bikesim/core/ident"
)

var epoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func TestKindCatalogue(t *testing.T) {
	kinds := Kinds()
	require.Len(t, kinds, 39)
	assert.Equal(t, UserTransportRequested, kinds[0])
	assert.Equal(t, SystemError, kinds[len(kinds)-1])
	for _, k := range kinds {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
		assert.NotEqual(t, "Unknown event", k.Description())
	}
	assert.False(t, Kind(19).Valid())
	assert.Equal(t, "kind_19", Kind(19).String())
	_, err := ParseKind("nope")
	assert.Error(t, err)
}

func TestEventJSON(t *testing.T) {
	ev := New(UserBicyclePickup, "U1", "").To("S2").About("B7")
	ev.ID = "e1"
	ev.Timestamp = epoch
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"user_bicycle_pickup"`)

	var back Event
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ev, back)

	_, err = json.Marshal(Event{Kind: Kind(5)})
	assert.Error(t, err)
}

func TestEventFormat(t *testing.T) {
	ev := Event{Kind: StationNoBicycles, Timestamp: epoch, Origin: "U1", Destination: "S1", BicycleID: "B1", Detail: "gave up"}
	assert.Equal(t,
		"[2025-03-01T08:00:00Z] [20] Station has no available bicycles - origin: U1, destination: S1, bicycle: B1 - gave up",
		ev.Format())

	bare := Event{Kind: SystemStarted, Timestamp: epoch, Origin: "system"}
	assert.Equal(t, "[2025-03-01T08:00:00Z] [90] System started - origin: system", bare.String())
}

func TestEmitter_StampsAndFansOut(t *testing.T) {
	gen := ident.NewFixed("ev-", epoch)
	var mu sync.Mutex
	var a, b []Event
	em := NewEmitter(gen,
		RecorderFunc(func(e Event) { mu.Lock(); a = append(a, e); mu.Unlock() }),
		nil,
	)
	em.Add(RecorderFunc(func(e Event) { mu.Lock(); b = append(b, e); mu.Unlock() }))

	got := em.Emit(New(TruckInTransit, "truck-1", "3 bicycles"))
	assert.Equal(t, "ev-1", got.ID)
	assert.Equal(t, epoch, got.Timestamp)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, got, a[0])

	kept := em.Emit(Event{ID: "fixed", Kind: SystemError, Timestamp: epoch.Add(time.Hour)})
	assert.Equal(t, "fixed", kept.ID)
	assert.Equal(t, epoch.Add(time.Hour), kept.Timestamp)
}

func TestEmitter_Nil(t *testing.T) {
	var em *Emitter
	ev := em.Emit(New(SystemStarted, "system", ""))
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())
	NopRecorder{}.Record(ev)
}
