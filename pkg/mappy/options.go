package mappy

import "context"

// MapOption adjusts a single Map call.
type MapOption func(*mapOptions)

type mapOptions struct {
	cs, md bool
}

// WithCS requests the cs difference string on each hit.
func WithCS() MapOption { return func(o *mapOptions) { o.cs = true } }

// WithMD requests the MD string on each hit.
func WithMD() MapOption { return func(o *mapOptions) { o.md = true } }

// BatchOption adjusts a MapBatch call.
type BatchOption func(*batchOptions)

type batchOptions struct {
	backOff bool
	noOp    bool
	ctx     context.Context
}

func defaultBatchOptions() batchOptions {
	return batchOptions{backOff: true, ctx: context.Background()}
}

// WithBackOff selects the policy for a full work queue. With back-off
// (the default) submission waits for room; without it the batch stops
// with ErrQueueOverflow at the first element that does not fit.
func WithBackOff(on bool) BatchOption { return func(o *batchOptions) { o.backOff = on } }

// WithNoOp skips alignment: every element yields a result with no hits.
// Useful for measuring the engine's own overhead.
func WithNoOp(on bool) BatchOption { return func(o *batchOptions) { o.noOp = on } }

// WithContext ties the batch to ctx. When ctx ends, submission stops and
// undelivered results are dropped; Stream.Err reports ctx.Err().
func WithContext(ctx context.Context) BatchOption {
	return func(o *batchOptions) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}
