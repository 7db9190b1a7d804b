package mappy_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"slices"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mappy/internal/testutil"
	"mappy/pkg/mappy"
)

func writeReference(t *testing.T) (string, []testutil.Read) {
	t.Helper()
	genome := testutil.Genome(2024, testutil.ContigNames, 6000)
	path := testutil.WriteFASTA(t, "ref.fa", genome)
	return path, testutil.Reads(genome, 7, 1000, 150)
}

func newAligner(t *testing.T, path string, cfg mappy.Config) *mappy.Aligner {
	t.Helper()
	a, err := mappy.New(path, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func asRecords(reads []testutil.Read) []mappy.Record {
	out := make([]mappy.Record, len(reads))
	for i, r := range reads {
		out[i] = mappy.Record{"seq": r.Seq, "id": r.ID, "ref": r.Ref}
	}
	return out
}

func drain(t *testing.T, s *mappy.Stream) []mappy.Result {
	t.Helper()
	var out []mappy.Result
	for s.Next() {
		out = append(out, s.Result())
	}
	return out
}

func hitKey(hs []mappy.Hit) string {
	lines := make([]string, len(hs))
	for i, h := range hs {
		lines[i] = h.String()
	}
	sort.Strings(lines)
	return strings.Join(lines, "|")
}

func TestNew_IndexLoadError(t *testing.T) {
	a, err := mappy.New(filepath.Join(t.TempDir(), "missing.fa"), mappy.Config{})
	assert.Nil(t, a)
	assert.ErrorIs(t, err, mappy.ErrIndexLoad)

	_, err = mappy.New("unused.fa", mappy.Config{Index: mappy.IndexOptions{K: 99}})
	assert.ErrorIs(t, err, mappy.ErrConfig)
	_, err = mappy.New("unused.fa", mappy.Config{QueueCapacity: -1})
	assert.ErrorIs(t, err, mappy.ErrConfig)
}

func TestFourContigReference(t *testing.T) {
	path, reads := writeReference(t)
	a := newAligner(t, path, mappy.Config{Index: mappy.IndexOptions{K: 15, W: 10}})

	assert.Equal(t, 15, a.K())
	assert.Equal(t, 10, a.W())
	assert.Equal(t, 4, a.NSeq())
	assert.Equal(t, testutil.ContigNames, a.SeqNames())
	assert.Equal(t, mappy.Uninitialized, a.State())

	require.NoError(t, a.EnableThreading(2))
	assert.Equal(t, mappy.Running, a.State())
	assert.Equal(t, 2, a.Threads())

	recs := asRecords(reads[:200])
	s, err := a.MapBatch(recs)
	require.NoError(t, err)
	results := drain(t, s)
	require.NoError(t, s.Err())
	require.Len(t, results, len(recs))

	for _, r := range results {
		want := reads[r.Pos]
		require.NotEmpty(t, r.Hits, "read %s", want.ID)
		var primary mappy.Hit
		for _, h := range r.Hits {
			if h.IsPrimary {
				primary = h
			}
		}
		assert.Equal(t, want.Ref, primary.TargetName)
		assert.Equal(t, want.Start, primary.TargetStart)
		assert.Equal(t, want.End, primary.TargetEnd)
	}
}

func TestMapBatch_PayloadIdentity(t *testing.T) {
	path, reads := writeReference(t)
	a := newAligner(t, path, mappy.Config{})
	require.NoError(t, a.EnableThreading(3))

	recs := asRecords(reads[:100])
	for i, r := range recs {
		r["tags"] = []string{fmt.Sprint(i)}
	}
	s, err := a.MapBatch(recs)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for r := range s.All() {
		orig := recs[r.Pos]
		assert.Equal(t, reflect.ValueOf(orig).UnsafePointer(), reflect.ValueOf(r.Payload).UnsafePointer(),
			"payload is the caller's own record")
		assert.Equal(t, orig, r.Payload)
		assert.Len(t, r.Payload, 4, "no keys added or removed")
		seen[r.Pos] = true
	}
	require.NoError(t, s.Err())
	assert.Len(t, seen, 100)
}

func TestMapBatch_SameResultsAcrossPoolSizes(t *testing.T) {
	path, reads := writeReference(t)
	a := newAligner(t, path, mappy.Config{})
	recs := asRecords(reads)

	var baseline map[string]string
	for _, n := range []int{1, 2, 8} {
		require.NoError(t, a.EnableThreading(n))
		require.Equal(t, n, a.Threads())

		s, err := a.MapBatch(recs)
		require.NoError(t, err)
		got := make(map[string]string, len(recs))
		for _, r := range drain(t, s) {
			got[r.Payload["id"].(string)] = hitKey(r.Hits)
		}
		require.NoError(t, s.Err())
		require.Len(t, got, 1000, "pool size %d", n)

		if baseline == nil {
			baseline = got
			continue
		}
		assert.Equal(t, baseline, got, "pool size %d", n)
	}
}

func TestMap_MatchesSingleItemBatch(t *testing.T) {
	path, reads := writeReference(t)
	a := newAligner(t, path, mappy.Config{})
	require.NoError(t, a.EnableThreading(2))

	byTarget := func(hs []mappy.Hit) []mappy.Hit {
		out := slices.Clone(hs)
		sort.Slice(out, func(i, j int) bool {
			if out[i].TargetStart != out[j].TargetStart {
				return out[i].TargetStart < out[j].TargetStart
			}
			return out[i].TargetEnd < out[j].TargetEnd
		})
		return out
	}

	for _, rd := range reads[:20] {
		direct, err := a.Map(rd.Seq)
		require.NoError(t, err)

		s, err := a.MapBatch([]mappy.Record{{"seq": rd.Seq}})
		require.NoError(t, err)
		results := drain(t, s)
		require.NoError(t, s.Err())
		require.Len(t, results, 1)

		assert.Equal(t, byTarget(direct), byTarget(results[0].Hits), rd.ID)
	}
}

func TestMap_WithoutThreadingAndTags(t *testing.T) {
	path, reads := writeReference(t)
	a := newAligner(t, path, mappy.Config{})

	hits, err := a.Map(reads[0].Seq, mappy.WithCS(), mappy.WithMD())
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, ":150", hits[0].CS)
	assert.Equal(t, "150", hits[0].MD)

	hits, err = a.Map(reads[0].Seq)
	require.NoError(t, err)
	assert.Empty(t, hits[0].CS)
	assert.Equal(t, 0, a.Stats().QueueLen)
}

func TestMapBatch_ExhaustedSource(t *testing.T) {
	path, _ := writeReference(t)
	a := newAligner(t, path, mappy.Config{})
	require.NoError(t, a.EnableThreading(1))

	ch := make(chan mappy.Record)
	close(ch)
	it := slices.Values(asRecords(nil))

	for name, b := range map[string]any{"closed channel": ch, "empty iterator": it, "empty slice": []mappy.Record{}} {
		s, err := a.MapBatch(b)
		require.NoError(t, err, name)
		assert.Empty(t, drain(t, s), name)
		assert.NoError(t, s.Err(), name)
	}
}

func TestMapBatch_ValidationOrdering(t *testing.T) {
	path, reads := writeReference(t)
	a := newAligner(t, path, mappy.Config{})
	require.NoError(t, a.EnableThreading(2))

	good := func(i int) any { return mappy.Record{"seq": reads[i].Seq} }
	tests := []struct {
		name string
		bad  any
		want error
	}{
		{"element not a record", "ACGT", mappy.ErrElementNotARecord},
		{"missing seq", mappy.Record{"name": "x"}, mappy.ErrMissingSeqKey},
		{"seq not string", mappy.Record{"seq": []byte("ACGT")}, mappy.ErrSeqNotString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := []any{good(0), good(1), good(2), good(3), tt.bad, good(5)}
			s, err := a.MapBatch(b)
			require.NoError(t, err)
			results := drain(t, s)
			assert.Len(t, results, 4)

			err = s.Err()
			require.ErrorIs(t, err, tt.want)
			var me *mappy.Error
			require.True(t, errors.As(err, &me))
			assert.Equal(t, 4, me.Pos)
		})
	}
}

func TestMapBatch_SynchronousErrors(t *testing.T) {
	path, _ := writeReference(t)
	a := newAligner(t, path, mappy.Config{})

	_, err := a.MapBatch([]mappy.Record{{"seq": "ACGT"}})
	assert.ErrorIs(t, err, mappy.ErrConfig, "threading not enabled")

	require.NoError(t, a.EnableThreading(1))
	for name, b := range map[string]any{
		"single record": mappy.Record{"seq": "ACGT"},
		"string":        "ACGT",
		"nil":           nil,
		"number":        3,
	} {
		s, err := a.MapBatch(b)
		assert.Nil(t, s, name)
		assert.ErrorIs(t, err, mappy.ErrUnsupportedBatchType, name)
	}
	assert.Equal(t, 0, a.Stats().QueueLen)
	assert.Equal(t, 0, a.Stats().InFlightBatches)
}

func TestEnableThreading_Invalid(t *testing.T) {
	path, _ := writeReference(t)
	a := newAligner(t, path, mappy.Config{})

	assert.ErrorIs(t, a.EnableThreading(0), mappy.ErrConfig)
	assert.ErrorIs(t, a.EnableThreading(-2), mappy.ErrConfig)
	assert.Equal(t, mappy.Uninitialized, a.State())

	require.NoError(t, a.EnableThreading(3))
	assert.ErrorIs(t, a.EnableThreading(0), mappy.ErrConfig)
	assert.Equal(t, 3, a.Threads())
}

func TestSeqAccessors(t *testing.T) {
	genome := testutil.Genome(11, []string{"chr1", "chr2"}, 400)
	path := testutil.WriteFASTA(t, "small.fa", genome)
	a := newAligner(t, path, mappy.Config{})

	s, err := a.Seq("chr2")
	require.NoError(t, err)
	assert.Equal(t, string(genome[1].Seq), s)

	sub, err := a.SubSeq("chr1", 5, 25)
	require.NoError(t, err)
	assert.Equal(t, string(genome[0].Seq[5:25]), sub)

	_, err = a.Seq("nope")
	assert.ErrorIs(t, err, mappy.ErrNotFound)
	_, err = a.SubSeq("chr1", 30, 10)
	assert.ErrorIs(t, err, mappy.ErrInvalidRange)
}

func TestStream_IDs(t *testing.T) {
	path, _ := writeReference(t)
	a := newAligner(t, path, mappy.Config{})
	require.NoError(t, a.EnableThreading(1))

	s1, err := a.MapBatch([]mappy.Record{})
	require.NoError(t, err)
	s2, err := a.MapBatch([]mappy.Record{})
	require.NoError(t, err)
	assert.NotEmpty(t, s1.ID())
	assert.NotEqual(t, s1.ID(), s2.ID())
	drain(t, s1)
	drain(t, s2)
}
