// Package signal implements the counting signal used for cross-goroutine
// wake-ups: manager dispatch signals, truck and technician dispatch signals and
// per-request completion signals.
//
// A Signal holds an unbounded permit count. Release adds one permit or hands it
// directly to the oldest waiter; Acquire takes one permit or blocks until one is
// released or the context is done.
package signal

import (
	"context"
	"sync"
	"time"
)

// Signal is a counting signal. The zero value has no permits and is ready to use.
type Signal struct {
	mu      sync.Mutex
	count   int
	waiters []chan struct{}
}

// New returns a Signal holding initial permits.
func New(initial int) *Signal {
	if initial < 0 {
		initial = 0
	}
	return &Signal{count: initial}
}

// Release adds one permit, waking at most one waiter.
func (s *Signal) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.waiters) > 0 {
		w := s.waiters[0]
		s.waiters = s.waiters[1:]
		close(w)
		return
	}
	s.count++
}

// Acquire takes one permit, blocking until one is available. It returns
// ctx.Err() if the context is done first; no permit is consumed in that case.
func (s *Signal) Acquire(ctx context.Context) error {
	s.mu.Lock()
	if s.count > 0 {
		s.count--
		s.mu.Unlock()
		return nil
	}
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return err
	}
	w := make(chan struct{})
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()

	select {
	case <-w:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		for i, x := range s.waiters {
			if x == w {
				s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
				s.mu.Unlock()
				return ctx.Err()
			}
		}
		s.mu.Unlock()
		// The permit was handed over while we were being cancelled; pass it on.
		s.Release()
		return ctx.Err()
	}
}

// TryAcquire takes a permit without blocking.
func (s *Signal) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// Count returns the number of unclaimed permits.
func (s *Signal) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Waiting returns the number of blocked acquirers.
func (s *Signal) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}

// Sleep pauses for d or until ctx is done, whichever comes first. It returns
// ctx.Err() when interrupted. A non-positive d only checks ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
