package batch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mappy/internal/align"
	"mappy/internal/errs"
)

// resultBuffer is how many finished results a batch holds before workers
// block waiting for the reader.
const resultBuffer = 256

// TrackerConfig holds the per-batch settings the workers read.
type TrackerConfig struct {
	NoOp   bool          // publish empty results without aligning
	Map    align.Options // options for every query in the batch
	Logger *zap.Logger

	// Shutdown, when closed, makes pending deliveries give up instead of
	// waiting for the reader. The batch then ends with a closed error.
	Shutdown <-chan struct{}
}

// Tracker accounts for one batch: how many items are still outstanding,
// where their results go, whether the reader walked away, and the first
// error that ended submission.
//
// The result channel closes exactly once, after submission has ended and
// every enqueued item was delivered or discarded.
type Tracker struct {
	id     string
	cfg    TrackerConfig
	logger *zap.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	abandoned atomic.Bool

	results   chan Result
	pending   sync.WaitGroup
	enqueued  atomic.Int64
	delivered atomic.Int64

	mu  sync.Mutex
	err error
}

// NewTracker starts tracking a batch. The batch is abandoned when ctx ends
// or Abandon is called.
func NewTracker(ctx context.Context, cfg TrackerConfig) *Tracker {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	id := uuid.NewString()
	t := &Tracker{
		id:      id,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("batch", id)),
		results: make(chan Result, resultBuffer),
	}
	t.ctx, t.cancel = context.WithCancel(ctx)
	return t
}

func (t *Tracker) ID() string { return t.id }
func (t *Tracker) NoOp() bool { return t.cfg.NoOp }
func (t *Tracker) MapOptions() align.Options { return t.cfg.Map }

// Context ends when the batch is abandoned.
func (t *Tracker) Context() context.Context { return t.ctx }

// Results is closed once every enqueued item is accounted for.
func (t *Tracker) Results() <-chan Result { return t.results }

// Abandon tells the submitter to stop and the workers to drop this
// batch's results. Safe to call more than once.
func (t *Tracker) Abandon() {
	if t.abandoned.CompareAndSwap(false, true) {
		t.logger.Debug("batch abandoned",
			zap.Int64("enqueued", t.enqueued.Load()),
			zap.Int64("delivered", t.delivered.Load()))
	}
	t.cancel()
}

// Done reports whether the batch was abandoned or its context ended.
func (t *Tracker) Done() bool { return t.ctx.Err() != nil }

// Err returns the error that ended submission early, or nil.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Fail records err unless an earlier error is already recorded or the
// reader abandoned the batch.
func (t *Tracker) Fail(err error) {
	if err == nil || t.abandoned.Load() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
}

// Counts returns how many items were enqueued and how many results were
// handed to the reader so far.
func (t *Tracker) Counts() (enqueued, delivered int64) {
	return t.enqueued.Load(), t.delivered.Load()
}

// Deliver publishes r to the reader, or drops it if the batch is
// abandoned. Each enqueued item must end in exactly one Deliver or Discard.
func (t *Tracker) Deliver(r Result) {
	defer t.pending.Done()
	select {
	case t.results <- r:
		t.delivered.Add(1)
	case <-t.ctx.Done():
	case <-t.cfg.Shutdown:
		t.Fail(errs.New(errs.KindClosed, "shut down before the result for element %d was read", r.Pos))
	}
}

// Discard accounts for an item that will never produce a result. A
// non-nil cause is recorded as the batch error.
func (t *Tracker) Discard(cause error) {
	t.Fail(cause)
	t.pending.Done()
}

func (t *Tracker) add() {
	t.pending.Add(1)
	t.enqueued.Add(1)
}

func (t *Tracker) unadd() {
	t.enqueued.Add(-1)
	t.pending.Done()
}

// finish waits for every outstanding item and closes the result channel.
func (t *Tracker) finish() {
	t.pending.Wait()
	close(t.results)
	t.cancel()
}
