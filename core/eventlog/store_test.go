package eventlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bikesim/core/events"
)

var epoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func sampleEvents() []events.Event {
	return []events.Event{
		{ID: "e1", Kind: events.UserTransportRequested, Timestamp: epoch, Origin: "U1", Destination: "S2"},
		{ID: "e2", Kind: events.UserBicyclePickup, Timestamp: epoch.Add(time.Second), Origin: "U1", BicycleID: "U1"},
		{ID: "e3", Kind: events.TruckInTransit, Timestamp: epoch.Add(2 * time.Second), Origin: "M - 1234", Detail: "2 bicycles"},
		{ID: "e4", Kind: events.UserBicyclePickup, Timestamp: epoch.Add(3 * time.Second), Origin: "U2", BicycleID: "U2"},
	}
}

func ids(evs []events.Event) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.ID
	}
	return out
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	for _, e := range sampleEvents() {
		require.NoError(t, store.Append(ctx, e))
	}

	all, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e2", "e3", "e4"}, ids(all))
	assert.True(t, all[0].Timestamp.Equal(epoch))
	assert.Equal(t, "S2", all[0].Destination)

	cases := []struct {
		name string
		q    Query
		want []string
	}{
		{"kind", Query{Kind: events.UserBicyclePickup}, []string{"e2", "e4"}},
		{"origin", Query{Origin: "U1"}, []string{"e1", "e2"}},
		{"bicycle", Query{BicycleID: "U2"}, []string{"e4"}},
		{"range", Query{Start: epoch.Add(time.Second), End: epoch.Add(2 * time.Second)}, []string{"e2", "e3"}},
		{"limit", Query{Limit: 3}, []string{"e1", "e2", "e3"}},
		{"none", Query{Origin: "nobody"}, nil},
	}
	for _, tc := range cases {
		got, err := store.Query(ctx, tc.q)
		require.NoError(t, err, tc.name)
		if tc.want == nil {
			assert.Empty(t, got, tc.name)
			continue
		}
		assert.Equal(t, tc.want, ids(got), tc.name)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
	assert.Equal(t, 4, s.Len())
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "events.jsonl"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestRotatingJSONLStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")
	s, err := NewRotatingJSONLStore(path, 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)

	files, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*"))
	assert.NotEmpty(t, files)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestQueryCancelled(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Append(context.Background(), sampleEvents()[0]))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Query(ctx, Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		cfg  Config
		want any
	}{
		{Config{}, &MemoryStore{}},
		{Config{Backend: BackendJSONL, Path: filepath.Join(dir, "a.jsonl")}, &JSONLStore{}},
		{Config{Backend: BackendRotating, Path: filepath.Join(dir, "b.jsonl")}, &RotatingJSONLStore{}},
		{Config{Backend: BackendSQLite, Path: filepath.Join(dir, "c.db")}, &SQLiteStore{}},
	}
	for _, tc := range cases {
		s, err := Open(tc.cfg)
		require.NoError(t, err, tc.cfg.Backend)
		assert.IsType(t, tc.want, s)
		assert.NoError(t, s.Close())
	}

	_, err := Open(Config{Backend: BackendSQLite})
	assert.Error(t, err)
	_, err = Open(Config{Backend: "kafka", Path: "x"})
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	s := NewMemoryStore()
	r := NewRecorder(s, nil)
	em := events.NewEmitter(nil, r)
	em.Emit(events.New(events.SystemStarted, "system", ""))
	assert.Equal(t, 1, s.Len())
}
