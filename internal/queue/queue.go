// Package queue is the bounded FIFO between batch submitters and the
// worker pool.
//
// The queue never blocks a producer on its own: TryPush fails fast when
// the queue is full, and Push retries with exponential back-off until the
// item fits, the context ends, or the queue closes.
package queue

import (
	"context"
	"sync"
	"time"

	"mappy/internal/errs"
)

// DefaultCapacity is the capacity used when none is configured.
const DefaultCapacity = 50_000

// Backoff is the retry schedule for Push.
type Backoff struct {
	Initial time.Duration `yaml:"initial"`
	Max     time.Duration `yaml:"max"`
}

// DefaultBackoff waits 50ms, doubling up to 1.6s between attempts.
var DefaultBackoff = Backoff{Initial: 50 * time.Millisecond, Max: 1600 * time.Millisecond}

func (b Backoff) withDefaults() Backoff {
	if b.Initial <= 0 {
		b.Initial = DefaultBackoff.Initial
	}
	if b.Max < b.Initial {
		b.Max = max(DefaultBackoff.Max, b.Initial)
	}
	return b
}

// Queue is a fixed-capacity FIFO safe for any number of producers and
// consumers.
type Queue[T any] struct {
	items  chan T
	mu     sync.RWMutex // guards closed against concurrent sends
	closed bool
	done   chan struct{}
}

// New returns an empty queue. capacity <= 0 selects DefaultCapacity.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue[T]{items: make(chan T, capacity), done: make(chan struct{})}
}

// TryPush enqueues v if there is room. It reports false when the queue is
// full or closed.
func (q *Queue[T]) TryPush(v T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.items <- v:
		return true
	default:
		return false
	}
}

// Push enqueues v, waiting between attempts according to b while the
// queue is full. It returns ctx.Err() if ctx ends first and an
// errs.KindClosed error once the queue is closed.
func (q *Queue[T]) Push(ctx context.Context, v T, b Backoff) error {
	b = b.withDefaults()
	wait := b.Initial
	var timer *time.Timer
	for {
		if q.TryPush(v) {
			return nil
		}
		if q.Closed() {
			return errs.New(errs.KindClosed, "queue closed")
		}
		if timer == nil {
			timer = time.NewTimer(wait)
			defer timer.Stop()
		} else {
			timer.Reset(wait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return errs.New(errs.KindClosed, "queue closed")
		case <-timer.C:
		}
		wait = min(wait*2, b.Max)
	}
}

// Pop blocks until an item is available. It reports false once the queue
// is closed and empty.
func (q *Queue[T]) Pop() (T, bool) {
	v, ok := <-q.items
	return v, ok
}

// PopOrStop is Pop that also gives up when stop is closed. An item that is
// already available may still be returned after stop closes.
func (q *Queue[T]) PopOrStop(stop <-chan struct{}) (T, bool) {
	select {
	case v, ok := <-q.items:
		return v, ok
	case <-stop:
		var zero T
		return zero, false
	}
}

// Close stops further pushes. Items already queued stay poppable. Safe to
// call more than once.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.items)
	close(q.done)
}

// Closed reports whether Close was called.
func (q *Queue[T]) Closed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Drain removes and returns everything still queued. Call it only after
// Close, once no consumer is running.
func (q *Queue[T]) Drain() []T {
	var out []T
	for {
		select {
		case v, ok := <-q.items:
			if !ok {
				return out
			}
			out = append(out, v)
		default:
			return out
		}
	}
}

func (q *Queue[T]) Len() int { return len(q.items) }
func (q *Queue[T]) Cap() int { return cap(q.items) }
