package mappy_test

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mappy/internal/testutil"
	"mappy/pkg/mappy"
)

var fastBackoff = mappy.Backoff{Initial: time.Millisecond, Max: 5 * time.Millisecond}

// gatedMapper blocks every Map call until open is closed.
type gatedMapper struct {
	open  chan struct{}
	calls atomic.Int64
}

func newGatedMapper() *gatedMapper { return &gatedMapper{open: make(chan struct{})} }

func (g *gatedMapper) Map(*mappy.Index, []byte, mappy.MapOptions) ([]mappy.Hit, error) {
	g.calls.Add(1)
	<-g.open
	return []mappy.Hit{{TargetName: "gated"}}, nil
}

func smallReference(t *testing.T) string {
	t.Helper()
	return testutil.WriteFASTA(t, "ref.fa", testutil.Genome(3, []string{"r"}, 500))
}

func seqRecords(n int) []mappy.Record {
	out := make([]mappy.Record, n)
	for i := range out {
		out[i] = mappy.Record{"seq": "ACGTACGTACGTACGTACGT"}
	}
	return out
}

func TestBackPressure_OverflowWithoutBackOff(t *testing.T) {
	const capacity = 4
	g := newGatedMapper()
	a := newAligner(t, smallReference(t), mappy.Config{QueueCapacity: capacity, Mapper: g})
	require.NoError(t, a.EnableThreading(1))

	s, err := a.MapBatch(seqRecords(capacity+2), mappy.WithBackOff(false))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return s.Err() != nil }, 2*time.Second, time.Millisecond)
	assert.ErrorIs(t, s.Err(), mappy.ErrQueueOverflow)
	assert.Contains(t, s.Err().Error(), "back-off")

	close(g.open)
	results := drain(t, s)
	// the worker may or may not have taken one item before the queue filled
	assert.GreaterOrEqual(t, len(results), capacity)
	assert.LessOrEqual(t, len(results), capacity+1)
	assert.ErrorIs(t, s.Err(), mappy.ErrQueueOverflow)
}

func TestBackPressure_BackOffCompletes(t *testing.T) {
	const capacity = 4
	g := newGatedMapper()
	a := newAligner(t, smallReference(t), mappy.Config{QueueCapacity: capacity, Mapper: g, Backoff: fastBackoff})
	require.NoError(t, a.EnableThreading(1))

	s, err := a.MapBatch(seqRecords(capacity + 6))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return a.Stats().QueueLen == capacity }, 2*time.Second, time.Millisecond)
	assert.NoError(t, s.Err(), "a full queue is not an error with back-off")
	assert.Equal(t, 1, a.Stats().InFlightBatches)

	close(g.open)
	results := drain(t, s)
	assert.Len(t, results, capacity+6)
	assert.NoError(t, s.Err())
	for _, r := range results {
		assert.Equal(t, "gated", r.Hits[0].TargetName)
	}
	require.Eventually(t, func() bool { return a.Stats().InFlightBatches == 0 }, time.Second, time.Millisecond)
}

func TestStream_CloseDoesNotDeadlock(t *testing.T) {
	path, reads := writeReference(t)
	a := newAligner(t, path, mappy.Config{QueueCapacity: 64, Backoff: fastBackoff})
	require.NoError(t, a.EnableThreading(4))

	big := make([]mappy.Record, 0, 3000)
	for len(big) < cap(big) {
		big = append(big, asRecords(reads)...)
	}
	s, err := a.MapBatch(big[:3000], mappy.WithNoOp(true))
	require.NoError(t, err)
	require.True(t, s.Next())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.False(t, s.Next())

	// the pool must still serve other batches
	s2, err := a.MapBatch(asRecords(reads[:50]))
	require.NoError(t, err)
	assert.Len(t, drain(t, s2), 50)

	done := make(chan struct{})
	go func() {
		_ = a.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close hung after an abandoned stream")
	}
}

func TestStream_DroppedWithoutCloseReleasesWorkers(t *testing.T) {
	path, reads := writeReference(t)
	a := newAligner(t, path, mappy.Config{QueueCapacity: 64, Backoff: fastBackoff})
	require.NoError(t, a.EnableThreading(2))

	func() {
		s, err := a.MapBatch(asRecords(reads), mappy.WithNoOp(true))
		require.NoError(t, err)
		require.True(t, s.Next())
	}()

	done := make(chan int, 1)
	go func() {
		s, err := a.MapBatch(asRecords(reads[:1]))
		if err != nil {
			done <- -1
			return
		}
		n := 0
		for s.Next() {
			n++
		}
		done <- n
	}()

	var got int
	require.Eventually(t, func() bool {
		runtime.GC()
		select {
		case got = <-done:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond, "second batch stalled: %+v", a.Stats())
	assert.Equal(t, 1, got)
}

func TestStream_AllBreakCloses(t *testing.T) {
	path, reads := writeReference(t)
	a := newAligner(t, path, mappy.Config{})
	require.NoError(t, a.EnableThreading(2))

	s, err := a.MapBatch(asRecords(reads[:500]), mappy.WithNoOp(true))
	require.NoError(t, err)
	n := 0
	for range s.All() {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
}

func TestNoOp_SkipsMapper(t *testing.T) {
	g := newGatedMapper()
	a := newAligner(t, smallReference(t), mappy.Config{Mapper: g})
	require.NoError(t, a.EnableThreading(2))

	s, err := a.MapBatch(seqRecords(25), mappy.WithNoOp(true))
	require.NoError(t, err)
	results := drain(t, s)
	assert.Len(t, results, 25)
	for _, r := range results {
		assert.Empty(t, r.Hits)
	}
	assert.Zero(t, g.calls.Load())
}

func TestMapperFailure_YieldsEmptyResult(t *testing.T) {
	boom := errors.New("boom")
	m := mappy.MapperFunc(func(*mappy.Index, []byte, mappy.MapOptions) ([]mappy.Hit, error) {
		return nil, boom
	})
	a := newAligner(t, smallReference(t), mappy.Config{Mapper: m})

	_, err := a.Map("ACGT")
	assert.ErrorIs(t, err, boom)

	require.NoError(t, a.EnableThreading(2))
	s, err := a.MapBatch(seqRecords(10))
	require.NoError(t, err)
	results := drain(t, s)
	assert.Len(t, results, 10)
	assert.NoError(t, s.Err())
}

func TestClose_Idempotent(t *testing.T) {
	path, _ := writeReference(t)
	a, err := mappy.New(path, mappy.Config{})
	require.NoError(t, err)
	require.NoError(t, a.EnableThreading(2))
	assert.False(t, a.Closed())

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.True(t, a.Closed())
	assert.Equal(t, mappy.Stopped, a.State())
	assert.Equal(t, 0, a.Threads())

	_, err = a.Map("ACGT")
	assert.ErrorIs(t, err, mappy.ErrClosed)
	_, err = a.MapBatch(seqRecords(1))
	assert.ErrorIs(t, err, mappy.ErrClosed)
	assert.ErrorIs(t, a.EnableThreading(1), mappy.ErrClosed)
	_, err = a.Seq(testutil.ContigNames[0])
	assert.ErrorIs(t, err, mappy.ErrClosed)
	assert.Zero(t, a.NSeq())
	assert.Zero(t, a.K())
	assert.Zero(t, a.W())
	assert.Nil(t, a.SeqNames())
}

func TestClose_DiscardsQueuedItems(t *testing.T) {
	g := newGatedMapper()
	a, err := mappy.New(smallReference(t), mappy.Config{QueueCapacity: 16, Mapper: g, Backoff: fastBackoff})
	require.NoError(t, err)
	require.NoError(t, a.EnableThreading(1))

	s, err := a.MapBatch(seqRecords(6))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return g.calls.Load() == 1 && a.Stats().QueueLen == 5 },
		2*time.Second, time.Millisecond)

	closed := make(chan struct{})
	go func() {
		_ = a.Close()
		close(closed)
	}()
	require.Eventually(t, func() bool { return a.State() == mappy.Draining }, 2*time.Second, time.Millisecond)
	close(g.open)
	<-closed

	results := drain(t, s)
	assert.LessOrEqual(t, len(results), 1, "only the in-flight item can still produce a result")
	assert.ErrorIs(t, s.Err(), mappy.ErrClosed)
	assert.EqualValues(t, 1, g.calls.Load(), "queued items are never mapped after Close")
}

func TestWithContext_Cancel(t *testing.T) {
	g := newGatedMapper()
	a := newAligner(t, smallReference(t), mappy.Config{QueueCapacity: 2, Mapper: g, Backoff: fastBackoff})
	require.NoError(t, a.EnableThreading(1))

	ctx, cancel := context.WithCancel(context.Background())
	s, err := a.MapBatch(seqRecords(10), mappy.WithContext(ctx))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return a.Stats().QueueLen == 2 }, 2*time.Second, time.Millisecond)

	cancel()
	close(g.open)
	drain(t, s)
	assert.ErrorIs(t, s.Err(), context.Canceled)
}

func TestResizeDuringBatch(t *testing.T) {
	path, reads := writeReference(t)
	a := newAligner(t, path, mappy.Config{QueueCapacity: 32, Backoff: fastBackoff})
	require.NoError(t, a.EnableThreading(1))

	s, err := a.MapBatch(asRecords(reads[:300]))
	require.NoError(t, err)

	resized := make(chan error, 1)
	go func() { resized <- a.EnableThreading(6) }()

	results := drain(t, s)
	require.NoError(t, <-resized)
	assert.Len(t, results, 300)
	assert.NoError(t, s.Err())
	assert.Equal(t, 6, a.Threads())
}
