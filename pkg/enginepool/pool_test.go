package enginepool

import (
	"bufio"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/chessgpt/analysiscore/pkg/board/fen"
)

// TestHelperProcess is not a real test: it is re-executed as the fake engine subprocess, per the
// standard library's os/exec test pattern (see exec_test.go's helperCommand). It speaks just
// enough UCI to exercise the pool: handshake, one depth-1 analysis, and a static eval dump.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("ENGINEPOOL_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	out := bufio.NewWriter(os.Stdout)
	emit := func(s string) {
		out.WriteString(s + "\n")
		out.Flush()
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "uci":
			emit("id name fakeengine")
			emit("uciok")
		case line == "isready":
			emit("readyok")
		case line == "quit":
			return
		case strings.HasPrefix(line, "go "):
			emit("info depth 1 multipv 1 score cp 25 pv e2e4 e7e5")
			emit("bestmove e2e4")
		case line == "eval":
			emit("NNUE white_knight_b1 15")
			emit("TERM MOBILITY 20")
			emit("evalend")
		}
	}
}

func newFakeEnginePool(t *testing.T, poolSize int) *Pool {
	t.Helper()

	cfg := DefaultPoolConfig(os.Args[0])
	cfg.PoolSize = poolSize
	cfg.Engine.Args = []string{"-test.run=TestHelperProcess"}
	cfg.Engine.Env = []string{"ENGINEPOOL_WANT_HELPER_PROCESS=1"}

	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestRunCPURecoversPanicOnBothAttempts(t *testing.T) {
	p := &Pool{
		cfg:     PoolConfig{PoolSize: 1},
		workers: semaphore.NewWeighted(1),
	}

	calls := 0
	err := p.runCPU(context.Background(), func() error {
		calls++
		panic("tag detector blew up")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "cpu worker panic")

	// The semaphore must still be usable after two recovered panics.
	require.NoError(t, p.runCPU(context.Background(), func() error { return nil }))
}

func TestPoolAnalyzePosition(t *testing.T) {
	p := newFakeEnginePool(t, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, p.Initialize(ctx))
	defer p.Shutdown(ctx)

	result, err := p.AnalyzePosition(ctx, fen.Initial, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 25, result.Best.EvalCP)
	assert.Equal(t, []string{"e2e4", "e7e5"}, result.Best.PVSan)

	// Second call should hit the analysis cache without needing the engine again.
	cached, err := p.AnalyzePosition(ctx, fen.Initial, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, result, cached)
}

func TestPoolStaticEval(t *testing.T) {
	p := newFakeEnginePool(t, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, p.Initialize(ctx))
	defer p.Shutdown(ctx)

	dump, err := p.StaticEval(ctx, fen.Initial)
	require.NoError(t, err)
	assert.True(t, dump.Available)
	assert.Equal(t, 15, dump.PerPiece["white_knight_b1"])
	assert.Equal(t, 20, dump.PerTerm["MOBILITY"])
}

func TestAnalyzePositionBatchDeduplicatesAndPreservesOrder(t *testing.T) {
	p := newFakeEnginePool(t, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, p.Initialize(ctx))
	defer p.Shutdown(ctx)

	positions := []string{fen.Initial, fen.Initial, fen.Initial}
	var cpuCalls int
	records, err := p.AnalyzePositionBatch(ctx, positions, 1, 1, func(ctx context.Context, f string) (any, error) {
		cpuCalls++
		return "analyzed:" + f, nil
	}, nil)
	require.NoError(t, err)

	require.Len(t, records, 3)
	for _, r := range records {
		assert.NoError(t, r.Err)
		assert.Equal(t, 25, r.Eval.Best.EvalCP)
	}
	assert.Equal(t, 1, cpuCalls) // de-duplicated: one unique FEN, one CPU task
}
