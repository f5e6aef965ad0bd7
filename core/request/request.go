// Package request implements the requester/resolver handshake: an immutable
// Request carrying its own completion signal and a FIFO Queue paired with a
// dispatch signal that wakes one consumer per enqueued request.
package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kilianp07/bikesim/core/signal"
)

// ErrInvalidRequest is returned when a request is built from bad input.
var ErrInvalidRequest = errors.New("invalid request")

// Request asks for count bicycles to move from origin to destination.
type Request struct {
	requester   string
	origin      string
	destination string
	count       int

	done *signal.Signal
	once sync.Once
}

// New validates and builds a request. done is released exactly once when the
// request is resolved.
func New(requester, origin, destination string, count int, done *signal.Signal) (*Request, error) {
	switch {
	case strings.TrimSpace(requester) == "":
		return nil, fmt.Errorf("%w: requester id is blank", ErrInvalidRequest)
	case strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "":
		return nil, fmt.Errorf("%w: origin and destination are required", ErrInvalidRequest)
	case done == nil:
		return nil, fmt.Errorf("%w: completion signal is required", ErrInvalidRequest)
	case count < 1:
		return nil, fmt.Errorf("%w: bicycle count must be positive, got %d", ErrInvalidRequest, count)
	}
	return &Request{
		requester:   requester,
		origin:      origin,
		destination: destination,
		count:       count,
		done:        done,
	}, nil
}

// NewTransport builds a single-bicycle trip request.
func NewTransport(requester, origin, destination string, done *signal.Signal) (*Request, error) {
	return New(requester, origin, destination, 1, done)
}

func (r *Request) Requester() string   { return r.requester }
func (r *Request) Origin() string      { return r.origin }
func (r *Request) Destination() string { return r.destination }
func (r *Request) Count() int          { return r.count }

// Resolve releases the completion signal. Only the first call has an effect;
// it reports whether this call was that one.
func (r *Request) Resolve() bool {
	resolved := false
	r.once.Do(func() {
		r.done.Release()
		resolved = true
	})
	return resolved
}

// Wait blocks until the request is resolved or ctx is done.
func (r *Request) Wait(ctx context.Context) error {
	return r.done.Acquire(ctx)
}

func (r *Request) String() string {
	return fmt.Sprintf("Request{requester=%s origin=%s destination=%s count=%d}", r.requester, r.origin, r.destination, r.count)
}
