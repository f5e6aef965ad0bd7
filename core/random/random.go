package random

import (
	"math/rand"
	"sync"
	"time"
)

// D100 is the number of faces of the percentage die.
const D100 = 100

// Source is the random generator consumed by the simulation core.
type Source interface {
	// Intn returns a value in [0,n).
	Intn(n int) int
	// Float64 returns a value in [0,1).
	Float64() float64
	// Bool returns a fair coin flip.
	Bool() bool
}

// Locked is a Source safe for concurrent use.
type Locked struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a Locked source seeded with seed. A zero seed uses the
// current time.
func NewSeeded(seed int64) *Locked {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Locked{rng: rand.New(rand.NewSource(seed))}
}

func (l *Locked) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Intn(n)
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

func (l *Locked) Bool() bool {
	return l.Intn(2) == 1
}

// Percent rolls the D100 die.
func Percent(s Source) int { return s.Intn(D100) }

// Between returns a value in [lo,hi). When hi <= lo it returns lo.
func Between(s Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Intn(hi-lo)
}

// Fixed is a deterministic Source replaying Rolls in order, wrapping around.
// Rolls are used for Intn (modulo n) and Float64 (divided by D100).
type Fixed struct {
	mu    sync.Mutex
	Rolls []int
	next  int
}

func (f *Fixed) roll() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Rolls) == 0 {
		return 0
	}
	v := f.Rolls[f.next%len(f.Rolls)]
	f.next++
	return v
}

func (f *Fixed) Intn(n int) int { return f.roll() % n }

func (f *Fixed) Float64() float64 { return float64(f.roll()%D100) / D100 }

func (f *Fixed) Bool() bool { return f.roll()%2 == 1 }
