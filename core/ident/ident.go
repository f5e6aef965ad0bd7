// Package ident generates identifiers and timestamps. The core treats both as
// opaque, always-succeeding calls.
package ident

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator produces unique identifiers and the current time.
type Generator interface {
	NewID() string
	Now() time.Time
}

// UUID is the default Generator backed by google/uuid and the wall clock.
type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }

func (UUID) Now() time.Time { return time.Now() }

// Default is the process-wide generator.
var Default Generator = UUID{}

// OrNew returns id when it is not blank, otherwise a freshly generated one.
func OrNew(gen Generator, id string) string {
	if strings.TrimSpace(id) == "" {
		return gen.NewID()
	}
	return id
}

// Prefixed returns "<prefix>-<id>".
func Prefixed(gen Generator, prefix string) string {
	return prefix + "-" + gen.NewID()
}

// Short returns the first n characters of a generated id, used for truck plates.
func Short(gen Generator, n int) string {
	id := gen.NewID()
	if len(id) > n {
		return id[:n]
	}
	return id
}

// Fixed is a deterministic Generator for tests. Ids are "<Prefix><n>" and the
// clock only moves when Advance is called.
type Fixed struct {
	Prefix string

	mu  sync.Mutex
	seq int
	now time.Time
}

// NewFixed returns a Fixed generator starting at t.
func NewFixed(prefix string, t time.Time) *Fixed {
	return &Fixed{Prefix: prefix, now: t}
}

func (f *Fixed) NewID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s%d", f.Prefix, f.seq)
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
