package request

import (
	"context"
	"sync"

	"github.com/kilianp07/bikesim/core/signal"
)

// Queue is a FIFO of requests. Every Push releases the paired signal once so
// that exactly one Pop wakes per request.
type Queue struct {
	mu    sync.Mutex
	items []*Request
	ready *signal.Signal
}

func NewQueue() *Queue {
	return &Queue{ready: signal.New(0)}
}

// Push appends r and wakes one consumer.
func (q *Queue) Push(r *Request) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
	q.ready.Release()
}

// Pop blocks until a request is available or ctx is done.
func (q *Queue) Pop(ctx context.Context) (*Request, error) {
	if err := q.ready.Acquire(ctx); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	r := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return r, nil
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
