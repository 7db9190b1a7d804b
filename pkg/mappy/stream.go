package mappy

import (
	"iter"
	"runtime"

	"mappy/internal/batch"
)

// Result is the outcome for one batch element: its position in the batch,
// the caller's record exactly as submitted, and its hits (possibly none).
type Result = batch.Result

// Stream yields the results of one MapBatch call in completion order. It is
// single-pass and not safe for concurrent use.
//
// Workers are shared by every batch on the Aligner, so a stream that is no
// longer read must be released: drain it, call Close, or break out of All.
// A stream dropped without that is abandoned once it is garbage collected.
//
//	for s.Next() {
//		r := s.Result()
//		...
//	}
//	if err := s.Err(); err != nil { ... }
type Stream struct {
	tr      *batch.Tracker
	cur     Result
	done    bool
	cleanup runtime.Cleanup
}

// newStream ties tr to the returned Stream. The tracker never points back
// at the Stream, so an unreachable Stream can still abandon it.
func newStream(tr *batch.Tracker) *Stream {
	s := &Stream{tr: tr}
	s.cleanup = runtime.AddCleanup(s, func(tr *batch.Tracker) { tr.Abandon() }, tr)
	return s
}

// ID identifies the batch in log output.
func (s *Stream) ID() string { return s.tr.ID() }

// Next blocks until the next result is ready. It returns false once every
// enqueued element has produced a result, or after Close.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	r, ok := <-s.tr.Results()
	if !ok {
		s.cleanup.Stop()
		s.done = true
		s.cur = Result{}
		return false
	}
	s.cur = r
	return true
}

// Result returns the result Next just advanced to.
func (s *Stream) Result() Result { return s.cur }

// Err returns the error that ended submission early, if any. It is final
// once Next has returned false. Results for the elements enqueued before
// the failure are still delivered.
func (s *Stream) Err() error { return s.tr.Err() }

// Close abandons the stream. Pending results are dropped and the batch's
// remaining elements are not submitted. Safe to call more than once.
func (s *Stream) Close() error {
	s.cleanup.Stop()
	s.tr.Abandon()
	s.done = true
	return nil
}

// All ranges over the remaining results. Breaking out of the loop closes
// the stream.
func (s *Stream) All() iter.Seq[Result] {
	return func(yield func(Result) bool) {
		for s.Next() {
			if !yield(s.cur) {
				_ = s.Close()
				return
			}
		}
	}
}
