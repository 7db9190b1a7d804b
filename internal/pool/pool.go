// Package pool runs a fixed number of workers over a queue. Each worker
// holds its own clone of the shared index handle for as long as it runs.
//
// Lifecycle: Uninitialized -> Running -> Draining -> Stopped. Start and
// Resize move the pool to Running; Stop drains it. Workers finish the
// item they hold before exiting and never pop another once told to stop.
package pool

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"mappy/internal/errs"
	"mappy/internal/index"
	"mappy/internal/queue"
)

type State int32

const (
	Uninitialized State = iota
	Running
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// RunFunc processes one item against the worker's view of the index.
type RunFunc[T any] func(ix *index.Index, item T)

type Pool[T any] struct {
	q      *queue.Queue[T]
	handle *index.Handle
	run    RunFunc[T]
	logger *zap.Logger

	mu    sync.Mutex // serializes lifecycle transitions
	state atomic.Int32
	size  atomic.Int32
	stop  chan struct{}
	wg    sync.WaitGroup
}

// New returns an Uninitialized pool. handle is only cloned, never released.
func New[T any](q *queue.Queue[T], handle *index.Handle, run RunFunc[T], logger *zap.Logger) *Pool[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool[T]{q: q, handle: handle, run: run, logger: logger}
}

func (p *Pool[T]) State() State { return State(p.state.Load()) }

// Size is the number of workers while Running, else 0.
func (p *Pool[T]) Size() int { return int(p.size.Load()) }

// Start launches n workers. The pool must not be Running.
func (p *Pool[T]) Start(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.State() == Running {
		return errs.New(errs.KindConfig, "pool already running with %d workers", p.Size())
	}
	return p.startLocked(n)
}

// Resize stops the current workers, waits for them, then starts n new
// ones. On a pool that is not Running it behaves like Start.
func (p *Pool[T]) Resize(n int) error {
	if n <= 0 {
		return errs.New(errs.KindConfig, "worker count must be positive, got %d", n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.State() == Running {
		old := p.Size()
		p.stopLocked()
		p.logger.Debug("pool resized", zap.Int("from", old), zap.Int("to", n))
	}
	return p.startLocked(n)
}

// Stop signals every worker and waits for them to exit. Safe to call more
// than once.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.State() {
	case Running:
		p.stopLocked()
	case Uninitialized:
		p.state.Store(int32(Stopped))
	}
}

func (p *Pool[T]) startLocked(n int) error {
	if n <= 0 {
		return errs.New(errs.KindConfig, "worker count must be positive, got %d", n)
	}
	handles := make([]*index.Handle, n)
	for i := range handles {
		h := p.handle.Clone()
		if h == nil {
			for _, c := range handles[:i] {
				c.Release()
			}
			return errs.New(errs.KindClosed, "index handle released")
		}
		handles[i] = h
	}

	stop := make(chan struct{})
	p.stop = stop
	p.wg.Add(n)
	for i, h := range handles {
		go p.worker(i, h, stop)
	}
	p.size.Store(int32(n))
	p.state.Store(int32(Running))
	p.logger.Debug("pool started", zap.Int("workers", n))
	return nil
}

func (p *Pool[T]) stopLocked() {
	p.state.Store(int32(Draining))
	close(p.stop)
	p.wg.Wait()
	p.size.Store(0)
	p.state.Store(int32(Stopped))
	p.logger.Debug("pool stopped")
}

func (p *Pool[T]) worker(id int, h *index.Handle, stop <-chan struct{}) {
	defer p.wg.Done()
	defer h.Release()
	ix := h.Index()
	for {
		select {
		case <-stop:
			return
		default:
		}
		item, ok := p.q.PopOrStop(stop)
		if !ok {
			if p.q.Closed() {
				p.logger.Debug("worker exiting, queue closed", zap.Int("worker", id))
			}
			return
		}
		p.run(ix, item)
	}
}
