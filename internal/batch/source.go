// Package batch turns caller-supplied batches into queue items: it adapts
// the batch to a Source, validates each element, applies the back-pressure
// policy and tracks delivery of the batch's results.
package batch

import (
	"iter"
	"reflect"

	"mappy/internal/errs"
)

// Record is one batch element. It must carry a string under "seq"; every
// other key is payload and is handed back untouched with the result.
type Record = map[string]any

// SeqKey is the record key holding the query sequence.
const SeqKey = "seq"

// Source yields batch elements one at a time. ok is false once the source
// is exhausted.
type Source interface {
	Next() (elem any, ok bool)
}

// stopper is implemented by sources holding resources that must be
// released when submission ends early.
type stopper interface {
	Stop()
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (any, bool)

func (f SourceFunc) Next() (any, bool) { return f() }

// NewSource adapts v to a Source. Slices, arrays, receive-capable
// channels, iter.Seq values and Sources are accepted; maps (including a
// single Record), strings, scalars and nil are not.
func NewSource(v any) (Source, error) {
	switch s := v.(type) {
	case nil:
		return nil, unsupported(v)
	case Source:
		return s, nil
	case Record, string, []byte:
		return nil, unsupported(v)
	case []Record:
		return sliceOf(s), nil
	case []any:
		return sliceOf(s), nil
	case iter.Seq[Record]:
		return pullOf(s), nil
	case iter.Seq[any]:
		return pullOf(s), nil
	case func(func(Record) bool):
		return pullOf(iter.Seq[Record](s)), nil
	case func(func(any) bool):
		return pullOf(iter.Seq[any](s)), nil
	case chan Record:
		return chanOf((<-chan Record)(s)), nil
	case <-chan Record:
		return chanOf(s), nil
	case chan any:
		return chanOf((<-chan any)(s)), nil
	case <-chan any:
		return chanOf(s), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		i := 0
		return SourceFunc(func() (any, bool) {
			if i >= rv.Len() {
				return nil, false
			}
			e := rv.Index(i).Interface()
			i++
			return e, true
		}), nil
	case reflect.Chan:
		if rv.Type().ChanDir()&reflect.RecvDir == 0 {
			return nil, unsupported(v)
		}
		return SourceFunc(func() (any, bool) {
			e, ok := rv.Recv()
			if !ok {
				return nil, false
			}
			return e.Interface(), true
		}), nil
	}
	return nil, unsupported(v)
}

func unsupported(v any) error {
	return errs.New(errs.KindUnsupportedBatchType,
		"unsupported batch type %T, pass a slice, array, channel, iterator or batch.Source", v)
}

func sliceOf[E any](s []E) Source {
	i := 0
	return SourceFunc(func() (any, bool) {
		if i >= len(s) {
			return nil, false
		}
		e := s[i]
		i++
		return e, true
	})
}

func chanOf[E any](ch <-chan E) Source {
	return SourceFunc(func() (any, bool) {
		e, ok := <-ch
		return e, ok
	})
}

type pullSource[E any] struct {
	next func() (E, bool)
	stop func()
}

func pullOf[E any](seq iter.Seq[E]) Source {
	next, stop := iter.Pull(seq)
	return &pullSource[E]{next: next, stop: stop}
}

func (p *pullSource[E]) Next() (any, bool) {
	e, ok := p.next()
	if !ok {
		return nil, false
	}
	return e, true
}

func (p *pullSource[E]) Stop() { p.stop() }
