// Package mappy maps batches of query sequences against a shared,
// read-only reference index using a pool of workers.
//
// An Aligner loads the index once. Map aligns a single query on the
// calling goroutine. MapBatch validates and queues every element of a
// batch for the worker pool and returns a Stream of results in completion
// order. Threading must be enabled before MapBatch is used:
//
//	a, err := mappy.New("ref.fa", mappy.Config{})
//	if err != nil { ... }
//	defer a.Close()
//	if err := a.EnableThreading(4); err != nil { ... }
//	s, err := a.MapBatch(records)
//	for r := range s.All() { ... }
//
// Close tears everything down deterministically. A finalizer-style
// cleanup runs only for Aligners that were never closed.
package mappy

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"mappy/internal/align"
	"mappy/internal/batch"
	"mappy/internal/errs"
	"mappy/internal/index"
	"mappy/internal/pool"
	"mappy/internal/queue"
)

type (
	Hit          = align.Hit
	Strand       = align.Strand
	CigarOp      = align.CigarOp
	Mapper       = align.Mapper
	MapperFunc   = align.MapperFunc
	MapOptions   = align.Options
	IndexOptions = index.Options
	Index        = index.Index
	Backoff      = queue.Backoff
	Record       = batch.Record
	Source       = batch.Source
	State        = pool.State
)

const (
	Forward = align.Forward
	Reverse = align.Reverse

	Uninitialized = pool.Uninitialized
	Running       = pool.Running
	Draining      = pool.Draining
	Stopped       = pool.Stopped

	DefaultQueueCapacity = queue.DefaultCapacity
)

// Config configures an Aligner. The zero value is usable.
type Config struct {
	Index         IndexOptions
	Map           MapOptions // defaults for Map and MapBatch
	QueueCapacity int        // 0 selects DefaultQueueCapacity
	Backoff       Backoff    // retry schedule for back-off submission
	Mapper        Mapper     // nil selects the built-in chaining mapper
	Logger        *zap.Logger
}

// Stats is a point-in-time snapshot of the engine.
type Stats struct {
	QueueLen        int
	QueueCap        int
	Workers         int
	State           State
	InFlightBatches int
}

// Aligner is safe for concurrent use.
type Aligner struct {
	c       *core
	cleanup runtime.Cleanup
}

// core owns every resource. It never points back at its Aligner so that an
// unreachable Aligner can still be cleaned up while workers hold the core.
type core struct {
	cfg    Config
	logger *zap.Logger
	mapper Mapper
	handle *index.Handle
	queue  *queue.Queue[batch.Item]
	pool   *pool.Pool[batch.Item]

	mu       sync.Mutex // serializes EnableThreading and Close
	closed   atomic.Bool
	shutdown chan struct{}
	inflight atomic.Int64
}

// New loads the index at indexPath. It returns an error wrapping
// ErrIndexLoad if the file is missing, unreadable or not a reference, and
// ErrConfig for invalid options; no Aligner is returned in either case.
func New(indexPath string, cfg Config) (*Aligner, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := cfg.Map.Validate(); err != nil {
		return nil, err
	}
	if cfg.QueueCapacity < 0 {
		return nil, errs.New(errs.KindConfig, "queue capacity must be >= 0, got %d", cfg.QueueCapacity)
	}
	if cfg.Mapper == nil {
		cfg.Mapper = align.NewChainMapper()
	}

	h, err := index.Load(context.Background(), indexPath, cfg.Index, cfg.Logger)
	if err != nil {
		return nil, err
	}

	c := &core{
		cfg:      cfg,
		logger:   cfg.Logger,
		mapper:   cfg.Mapper,
		handle:   h,
		queue:    queue.New[batch.Item](cfg.QueueCapacity),
		shutdown: make(chan struct{}),
	}
	c.pool = pool.New(c.queue, h, c.runItem, c.logger)

	a := &Aligner{c: c}
	a.cleanup = runtime.AddCleanup(a, func(c *core) {
		if !c.closed.Load() {
			c.logger.Warn("aligner was garbage collected without Close")
			c.close()
		}
	}, c)
	return a, nil
}

// EnableThreading starts the worker pool with n workers, or resizes it.
// Resizing waits for the current workers to finish their items first.
func (a *Aligner) EnableThreading(n int) error {
	if n <= 0 {
		return errs.New(errs.KindConfig, "thread count must be positive, got %d", n)
	}
	c := a.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return errs.New(errs.KindClosed, "aligner closed")
	}
	if err := c.pool.Resize(n); err != nil {
		return err
	}
	c.logger.Info("threading enabled", zap.Int("threads", n), zap.Int("queue_capacity", c.queue.Cap()))
	return nil
}

// Threads is the current worker count, 0 when threading is off.
func (a *Aligner) Threads() int { return a.c.pool.Size() }

func (a *Aligner) State() State { return a.c.pool.State() }

func (a *Aligner) Stats() Stats {
	c := a.c
	return Stats{
		QueueLen:        c.queue.Len(),
		QueueCap:        c.queue.Cap(),
		Workers:         c.pool.Size(),
		State:           c.pool.State(),
		InFlightBatches: int(c.inflight.Load()),
	}
}

// withIndex runs fn with a handle that stays valid for fn's duration.
func (c *core) withIndex(fn func(ix *index.Index) error) error {
	if c.closed.Load() {
		return errs.New(errs.KindClosed, "aligner closed")
	}
	h := c.handle.Clone()
	if h == nil {
		return errs.New(errs.KindClosed, "aligner closed")
	}
	defer h.Release()
	return fn(h.Index())
}

// Closed reports whether Close was called. After Close, K, W, NSeq and
// SeqNames return zero values.
func (a *Aligner) Closed() bool { return a.c.closed.Load() }

// K is the index k-mer length, 0 after Close.
func (a *Aligner) K() (k int) {
	_ = a.c.withIndex(func(ix *index.Index) error { k = ix.K(); return nil })
	return k
}

// W is the index minimizer window, 0 after Close.
func (a *Aligner) W() (w int) {
	_ = a.c.withIndex(func(ix *index.Index) error { w = ix.W(); return nil })
	return w
}

// NSeq is the number of reference sequences, 0 after Close.
func (a *Aligner) NSeq() (n int) {
	_ = a.c.withIndex(func(ix *index.Index) error { n = ix.NSeq(); return nil })
	return n
}

// SeqNames lists the reference names in load order, nil after Close.
func (a *Aligner) SeqNames() (names []string) {
	_ = a.c.withIndex(func(ix *index.Index) error { names = ix.SeqNames(); return nil })
	return names
}

// Seq returns the reference sequence called name, or ErrNotFound.
func (a *Aligner) Seq(name string) (seq string, err error) {
	err = a.c.withIndex(func(ix *index.Index) error {
		seq, err = ix.Seq(name)
		return err
	})
	return seq, err
}

// SubSeq returns name[start:end]. A negative end, or one past the
// sequence, means the end of the sequence. ErrInvalidRange reports a start
// outside the sequence or not before end.
func (a *Aligner) SubSeq(name string, start, end int) (seq string, err error) {
	err = a.c.withIndex(func(ix *index.Index) error {
		seq, err = ix.SubSeq(name, start, end)
		return err
	})
	return seq, err
}

// Map aligns seq on the calling goroutine. It does not use the work queue
// and works whether or not threading is enabled.
func (a *Aligner) Map(seq string, opts ...MapOption) (hits []Hit, err error) {
	var mo mapOptions
	for _, o := range opts {
		o(&mo)
	}
	mopts := a.c.cfg.Map
	mopts.CS = mopts.CS || mo.cs
	mopts.MD = mopts.MD || mo.md

	err = a.c.withIndex(func(ix *index.Index) error {
		hits, err = a.c.mapper.Map(ix, []byte(seq), mopts)
		return err
	})
	return hits, err
}

// MapBatch queues every element of b for the worker pool and returns a
// Stream of their results.
//
// b may be a slice or array, a channel, an iter.Seq, or a Source; each
// element must be a Record with a string "seq". An unsupported b fails
// here, before anything is queued. Element-level failures, queue overflow
// and teardown end submission early and are reported by Stream.Err after
// the results of the elements already queued.
func (a *Aligner) MapBatch(b any, opts ...BatchOption) (*Stream, error) {
	bo := defaultBatchOptions()
	for _, o := range opts {
		o(&bo)
	}
	c := a.c
	if c.closed.Load() {
		return nil, errs.New(errs.KindClosed, "aligner closed")
	}
	src, err := batch.NewSource(b)
	if err != nil {
		return nil, err
	}
	if c.pool.State() != pool.Running {
		return nil, errs.New(errs.KindConfig, "threading is not enabled; call EnableThreading first")
	}

	tr := batch.NewTracker(bo.ctx, batch.TrackerConfig{
		NoOp:     bo.noOp,
		Map:      c.cfg.Map,
		Logger:   c.logger,
		Shutdown: c.shutdown,
	})
	policy := batch.Policy{BackOff: bo.backOff, Backoff: c.cfg.Backoff}
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Add(-1)
		batch.Submit(src, c.queue, tr, policy)
	}()
	return newStream(tr), nil
}

// Close stops the engine: no more submissions are accepted, workers finish
// the items they hold and exit, items still queued are discarded (their
// streams end with ErrClosed) and the index is released. Safe to call
// more than once.
func (a *Aligner) Close() error {
	a.cleanup.Stop()
	a.c.close()
	return nil
}

func (c *core) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	close(c.shutdown)
	c.queue.Close()
	c.pool.Stop()
	dropped := c.queue.Drain()
	for _, it := range dropped {
		it.Batch.Discard(errs.New(errs.KindClosed, "aligner closed before element %d was mapped", it.Pos))
	}
	c.handle.Release()
	c.logger.Info("aligner closed", zap.Int("discarded", len(dropped)))
}

// runItem is the worker body: align one item and publish its result.
func (c *core) runItem(ix *index.Index, it batch.Item) {
	tr := it.Batch
	if tr.Done() {
		tr.Discard(nil)
		return
	}
	r := batch.Result{Pos: it.Pos, Payload: it.Payload}
	if !tr.NoOp() {
		hits, err := c.mapper.Map(ix, []byte(it.Seq), tr.MapOptions())
		if err != nil {
			c.logger.Warn("map failed, publishing empty result",
				zap.String("batch", tr.ID()), zap.Int("pos", it.Pos), zap.Error(err))
		} else {
			r.Hits = hits
		}
	}
	tr.Deliver(r)
}
