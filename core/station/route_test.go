package station

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoute_Validation(t *testing.T) {
	opts, _ := testOptions()
	a, err := NewStation("A", 5, opts)
	require.NoError(t, err)

	_, err = NewRoute(nil, a)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewRoute(a, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewRoute(a, a)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRoute_LockUnlock(t *testing.T) {
	opts, _ := testOptions()
	a, _ := NewStation("A", 5, opts)
	b, _ := NewStation("B", 5, opts)
	r, err := NewRoute(a, b)
	require.NoError(t, err)
	assert.Same(t, a, r.Origin())
	assert.Same(t, b, r.Destination())

	r.Lock()
	assert.False(t, a.mu.TryLock())
	assert.False(t, b.mu.TryLock())
	r.Unlock()

	require.True(t, a.mu.TryLock())
	require.True(t, b.mu.TryLock())
	a.Unlock()
	b.Unlock()
}

func TestRoute_OppositeDirectionsFromOneGoroutine(t *testing.T) {
	opts, _ := testOptions()
	a, _ := NewStation("A", 5, opts)
	b, _ := NewStation("B", 5, opts)
	ab, _ := NewRoute(a, b)
	ba, _ := NewRoute(b, a)

	for i := 0; i < 100; i++ {
		ab.Lock()
		ab.Unlock()
		ba.Lock()
		ba.Unlock()
	}
}
