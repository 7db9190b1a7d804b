package batch

import (
	"errors"

	"go.uber.org/zap"

	"mappy/internal/errs"
	"mappy/internal/queue"
)

// Policy is the back-pressure policy for one submission.
type Policy struct {
	BackOff bool          // wait for room instead of failing on a full queue
	Backoff queue.Backoff // wait schedule when BackOff is set
}

// Submit validates the elements of src in order and enqueues them onto q
// for t. It stops at the first invalid element, at a full queue when
// p.BackOff is false, when the queue closes, or when t is abandoned; the
// reason is recorded on t. Items enqueued before the stop still complete.
//
// Submit returns once every enqueued item has been delivered or
// discarded, after closing t's result channel. Callers run it on its own
// goroutine.
func Submit(src Source, q *queue.Queue[Item], t *Tracker, p Policy) {
	if s, ok := src.(stopper); ok {
		defer s.Stop()
	}
	defer t.finish()

	ctx := t.Context()
	pos := 0
	for ; ; pos++ {
		if ctx.Err() != nil {
			t.Fail(ctx.Err())
			break
		}
		elem, ok := src.Next()
		if !ok {
			break
		}
		it, err := Validate(elem, pos)
		if err != nil {
			t.Fail(err)
			break
		}
		it.Batch = t

		t.add()
		if p.BackOff {
			err = q.Push(ctx, it, p.Backoff)
		} else if !q.TryPush(it) {
			err = overflow(q, pos)
		}
		if err != nil {
			t.unadd()
			t.Fail(err)
			break
		}
	}

	enq, _ := t.Counts()
	if err := t.Err(); err != nil {
		lvl := zap.WarnLevel
		if errors.Is(err, errs.ErrClosed) {
			lvl = zap.DebugLevel
		}
		t.logger.Log(lvl, "batch submission stopped", zap.Int64("enqueued", enq), zap.Error(err))
		return
	}
	t.logger.Debug("batch submitted", zap.Int64("enqueued", enq))
}

func overflow(q *queue.Queue[Item], pos int) error {
	if q.Closed() {
		return errs.New(errs.KindClosed, "queue closed")
	}
	return errs.AtElement(errs.KindQueueOverflow, pos,
		"work queue is full (capacity %d); enable back-off or submit batches smaller than the queue capacity",
		q.Cap())
}
