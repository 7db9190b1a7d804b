package index

import (
	"sync"
	"sync/atomic"
)

// Handle is a counted reference to a shared Index. Clone is cheap (the
// Index is not copied); Release drops this handle's reference and runs the
// release hook once the last handle is gone.
type Handle struct {
	ix       *Index
	shared   *refCount
	released atomic.Bool
}

type refCount struct {
	n      atomic.Int64
	once   sync.Once
	onFree func()
}

// NewHandle returns the first handle to ix. onFree may be nil.
func NewHandle(ix *Index, onFree func()) *Handle {
	rc := &refCount{onFree: onFree}
	rc.n.Store(1)
	return &Handle{ix: ix, shared: rc}
}

// Clone returns a new handle to the same Index, or nil if h was released.
func (h *Handle) Clone() *Handle {
	if h == nil || h.released.Load() {
		return nil
	}
	h.shared.n.Add(1)
	return &Handle{ix: h.ix, shared: h.shared}
}

// Release drops this handle's reference. Safe to call more than once.
func (h *Handle) Release() {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return
	}
	if h.shared.n.Add(-1) == 0 {
		h.shared.once.Do(func() {
			if h.shared.onFree != nil {
				h.shared.onFree()
			}
		})
	}
}

// Index returns the shared Index, or nil once this handle was released.
func (h *Handle) Index() *Index {
	if h == nil || h.released.Load() {
		return nil
	}
	return h.ix
}

// Refs reports the number of live handles sharing the Index.
func (h *Handle) Refs() int64 { return h.shared.n.Load() }

// Released reports whether this handle was released.
func (h *Handle) Released() bool { return h.released.Load() }
