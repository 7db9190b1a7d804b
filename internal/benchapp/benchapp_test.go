package benchapp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mappy/internal/appcore"
	"mappy/internal/config"
	"mappy/internal/testutil"
)

func fixture(t *testing.T, n int) (ref, reads string) {
	t.Helper()
	genome := testutil.Genome(31, testutil.ContigNames, 4000)
	return testutil.WriteFASTA(t, "ref.fa", genome),
		testutil.WriteReadsFASTQ(t, "reads.fq", testutil.Reads(genome, 2, n, 150))
}

func TestSweep(t *testing.T) {
	ref, readsPath := fixture(t, 60)
	cfg := config.DefaultConfig()
	cfg.Engine.Threads = 1
	a, err := appcore.NewAligner(ref, cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	recs, err := appcore.ReadRecords(context.Background(), []string{readsPath}, 0)
	require.NoError(t, err)

	rows, err := Sweep(context.Background(), a, recs, SweepOptions{Threads: []int{1, 3}, Rounds: 2, NoOp: true})
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, ModeSingle, rows[0].Mode)
	assert.InDelta(t, 1.0, rows[0].Speedup, 1e-9)
	want := [][2]any{{ModeBatch, 1}, {ModeBatchNoOp, 1}, {ModeBatch, 3}, {ModeBatchNoOp, 3}}
	for i, w := range want {
		r := rows[i+1]
		assert.Equal(t, w[0], r.Mode)
		assert.Equal(t, w[1], r.Threads)
		assert.Equal(t, 60, r.Reads)
		assert.Positive(t, r.Best)
		assert.GreaterOrEqual(t, r.Mean, r.Best)
	}
	assert.Equal(t, rows[0].Hits, rows[1].Hits, "batch and single find the same hits")
	assert.Zero(t, rows[2].Hits, "no-op skips alignment")
	assert.Equal(t, 3, a.Threads())
}

func TestSweep_Canceled(t *testing.T) {
	ref, readsPath := fixture(t, 10)
	a, err := appcore.NewAligner(ref, config.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	recs, err := appcore.ReadRecords(context.Background(), []string{readsPath}, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Sweep(ctx, a, recs, SweepOptions{Threads: []int{1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRender(t *testing.T) {
	rows := []Row{
		{Mode: ModeSingle, Threads: 1, Reads: 100, Hits: 100, Best: time.Second, Mean: time.Second, Speedup: 1},
		{Mode: ModeBatch, Threads: 4, Reads: 100, Hits: 100, Best: 250 * time.Millisecond, Mean: 300 * time.Millisecond, Speedup: 4},
	}
	assert.InDelta(t, 400.0, rows[1].ReadsPerSec(), 1e-9)

	var tsv bytes.Buffer
	require.NoError(t, RenderTSV(&tsv, rows))
	lines := strings.Split(strings.TrimSpace(tsv.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "mode\tthreads\treads\thits\tbest\tmean\treads/s\tspeedup", lines[0])
	assert.Equal(t, "batch\t4\t100\t100\t250ms\t300ms\t400\t4.00x", lines[2])

	var table bytes.Buffer
	require.NoError(t, RenderTable(&table, rows))
	assert.Contains(t, table.String(), "reads/s")
	assert.Contains(t, table.String(), "4.00x")
	assert.NotContains(t, table.String(), "\x1b[", "no colors when not writing to a terminal")

	var js bytes.Buffer
	require.NoError(t, RenderJSON(&js, rows))
	var r Row
	require.NoError(t, json.Unmarshal([]byte(strings.Split(js.String(), "\n")[1]), &r))
	assert.Equal(t, rows[1], r)
}

func TestRunContext(t *testing.T) {
	ref, readsPath := fixture(t, 20)
	var out, errBuf bytes.Buffer
	code := RunContext(context.Background(), []string{"--threads", "1,2", "--rounds", "1", "--limit", "15", ref, readsPath}, &out, &errBuf)
	require.Equal(t, 0, code, errBuf.String())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4, "header, single and two pool sizes")
	assert.True(t, strings.HasPrefix(lines[1], "single\t1\t15\t"))

	out.Reset()
	code = RunContext(context.Background(), []string{"--json", "--threads", "2", "--no-op", "--rounds", "1", ref, readsPath}, &out, &errBuf)
	require.Equal(t, 0, code, errBuf.String())
	assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), 3)

	code = RunContext(context.Background(), []string{ref}, &out, &errBuf)
	assert.Equal(t, 2, code)
}
