package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mappy/internal/errs"
)

var fast = Backoff{Initial: time.Millisecond, Max: 4 * time.Millisecond}

func TestNew_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New[int](0).Cap())
	assert.Equal(t, 50_000, New[int](-3).Cap())
	assert.Equal(t, 7, New[int](7).Cap())
}

func TestTryPush_FullAndFIFO(t *testing.T) {
	q := New[int](3)
	for i := range 3 {
		require.True(t, q.TryPush(i))
	}
	assert.False(t, q.TryPush(99), "full queue rejects")
	assert.Equal(t, 3, q.Len())

	for want := range 3 {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	assert.Equal(t, 0, q.Len())
}

func TestClose_KeepsItemsPoppable(t *testing.T) {
	q := New[string](4)
	require.True(t, q.TryPush("a"))
	require.True(t, q.TryPush("b"))
	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.TryPush("c"))
	assert.ErrorIs(t, q.Push(context.Background(), "c", fast), errs.ErrClosed)

	v, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, []string{"b"}, q.Drain())
	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestPush_WaitsForRoom(t *testing.T) {
	q := New[int](1)
	require.True(t, q.TryPush(1))

	done := make(chan error, 1)
	go func() { done <- q.Push(context.Background(), 2, fast) }()

	select {
	case err := <-done:
		t.Fatalf("push returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	v, _ := q.Pop()
	assert.Equal(t, 1, v)
	require.NoError(t, <-done)
	v, _ = q.Pop()
	assert.Equal(t, 2, v)
}

func TestPush_ContextAndClose(t *testing.T) {
	q := New[int](1)
	require.True(t, q.TryPush(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Push(ctx, 2, fast), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() { done <- q.Push(context.Background(), 3, Backoff{Initial: time.Hour}) }()
	time.Sleep(5 * time.Millisecond)
	q.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, errs.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Push did not notice Close")
	}
}

func TestPopOrStop(t *testing.T) {
	q := New[int](1)
	stop := make(chan struct{})
	close(stop)
	_, ok := q.PopOrStop(stop)
	assert.False(t, ok)

	require.True(t, q.TryPush(5))
	v, ok := q.PopOrStop(make(chan struct{}))
	assert.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestConcurrent_NoLossNoDuplicates(t *testing.T) {
	const producers, perProducer = 8, 500
	q := New[int](16)

	var (
		mu   sync.Mutex
		seen = make(map[int]int)
		cwg  sync.WaitGroup
	)
	for range 4 {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				v, ok := q.Pop()
				if !ok {
					return
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}

	var pwg sync.WaitGroup
	for p := range producers {
		pwg.Add(1)
		go func() {
			defer pwg.Done()
			for i := range perProducer {
				assert.NoError(t, q.Push(context.Background(), p*perProducer+i, fast))
			}
		}()
	}
	pwg.Wait()
	q.Close()
	cwg.Wait()

	assert.Len(t, seen, producers*perProducer)
	for v, n := range seen {
		if n != 1 {
			t.Fatalf("value %d delivered %d times", v, n)
		}
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := Backoff{}.withDefaults()
	assert.Equal(t, 50*time.Millisecond, b.Initial)
	assert.Equal(t, 1600*time.Millisecond, b.Max)

	b = Backoff{Initial: 2 * time.Second}.withDefaults()
	assert.Equal(t, 2*time.Second, b.Max)
}
