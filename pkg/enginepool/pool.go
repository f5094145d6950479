// Package enginepool multiplexes a fixed set of UCI-speaking search engines and a fixed pool of
// CPU workers, with crash recovery, FEN de-duplication, and bounded acquisition/analysis
// latency. It is the sole owner of engine subprocess lifecycle within the analysis core.
package enginepool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/iox"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/board/fen"
	"github.com/chessgpt/analysiscore/pkg/coreerr"
)

const maxEngineRetries = 2

// Status is the pool's health/bookkeeping snapshot, returned by Health.
type Status struct {
	PoolSize          int
	IdleEngines       int
	AnalysesCompleted uint64
	LastUsed          time.Time
	LastLatency       time.Duration
}

// Pool owns a fixed number of search engines and an equal-sized CPU worker budget. Acquire and
// release of engines is a bounded channel (acquire = receive, release = send), per the teacher's
// searchctl convention of modeling suspension points as channel operations.
type Pool struct {
	cfg PoolConfig

	idle chan *engine
	next atomic.Int32 // engine id counter, for logging across recreations

	workers *semaphore.Weighted

	recreateMu sync.Mutex

	analysisCache *ristretto.Cache[uint64, analysis.EvaluationPair]
	nnueCache     *ristretto.Cache[uint64, analysis.NNUEDump]

	analysesCompleted atomic.Uint64
	lastUsed          atomic.Int64 // unix nanos
	lastLatency       atomic.Int64 // nanos

	closer iox.AsyncCloser
}

// New constructs a pool. Call Initialize before use.
func New(cfg PoolConfig) (*Pool, error) {
	analysisSize := int64(4096)
	if v, ok := cfg.EngineAnalysisCacheSize.V(); ok {
		analysisSize = int64(v)
	}
	nnueSize := int64(128)
	if v, ok := cfg.NNUEDumpCacheSize.V(); ok {
		nnueSize = int64(v)
	}

	analysisCache, err := ristretto.NewCache(&ristretto.Config[uint64, analysis.EvaluationPair]{
		NumCounters: analysisSize * 10,
		MaxCost:     analysisSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("engine analysis cache: %w", err)
	}
	nnueCache, err := ristretto.NewCache(&ristretto.Config[uint64, analysis.NNUEDump]{
		NumCounters: nnueSize * 10,
		MaxCost:     nnueSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("nnue dump cache: %w", err)
	}

	return &Pool{
		cfg:           cfg,
		workers:       semaphore.NewWeighted(int64(cfg.PoolSize)),
		analysisCache: analysisCache,
		nnueCache:     nnueCache,
		closer:        iox.NewAsyncCloser(),
	}, nil
}

// Initialize spawns the configured number of engines. Idempotent: calling it twice without a
// Shutdown in between is a no-op on the second call.
func (p *Pool) Initialize(ctx context.Context) error {
	p.recreateMu.Lock()
	defer p.recreateMu.Unlock()

	if p.idle != nil {
		return nil // already initialized
	}

	idle := make(chan *engine, p.cfg.PoolSize)
	for i := 0; i < p.cfg.PoolSize; i++ {
		e, err := spawnEngine(ctx, int(p.next.Add(1)), p.cfg.Engine)
		if err != nil {
			close(idle)
			for e := range idle {
				_ = e.close(ctx)
			}
			return coreerr.Wrapf(coreerr.EngineFailed, err, "spawning engine %d/%d", i+1, p.cfg.PoolSize)
		}
		idle <- e
	}
	p.idle = idle
	return nil
}

// Shutdown quits every engine in the idle queue and closes the pool. It does not wait for CPU
// worker tasks or for engines checked out by calls still in flight.
func (p *Pool) Shutdown(ctx context.Context) {
	p.recreateMu.Lock()
	defer p.recreateMu.Unlock()

	if p.idle == nil {
		return
	}
	close(p.idle)
	for e := range p.idle {
		if err := e.close(ctx); err != nil {
			logw.Warningf(ctx, "engine %d: close: %v", e.id, err)
		}
	}
	p.idle = nil
	p.closer.Close()
	p.analysisCache.Close()
	p.nnueCache.Close()
}

// Closed reports when the pool has been shut down.
func (p *Pool) Closed() <-chan struct{} {
	return p.closer.Closed()
}

// acquire waits for an idle engine, up to the configured acquisition timeout.
func (p *Pool) acquire(ctx context.Context) (*engine, error) {
	wctx, cancel := context.WithTimeout(ctx, p.cfg.EngineAcquireTimeout)
	defer cancel()

	select {
	case e, ok := <-p.idle:
		if !ok {
			return nil, coreerr.Wrap(coreerr.InternalError, "pool is shut down", nil)
		}
		return e, nil
	case <-wctx.Done():
		if ctx.Err() != nil {
			return nil, coreerr.Wrap(coreerr.Cancelled, "acquire cancelled", ctx.Err())
		}
		return nil, coreerr.Wrap(coreerr.EngineTimeout, "no idle engine within acquisition timeout", wctx.Err())
	}
}

func (p *Pool) release(e *engine) {
	e.busy.Store(false)
	p.idle <- e
}

// recover replaces a crashed engine with a freshly spawned one, serialized under recreateMu so
// only one recovery runs at a time.
func (p *Pool) recover(ctx context.Context, dead *engine) (*engine, error) {
	p.recreateMu.Lock()
	defer p.recreateMu.Unlock()

	logw.Warningf(ctx, "recovering crashed engine %d", dead.id)
	_ = dead.kill()

	fresh, err := spawnEngine(ctx, int(p.next.Add(1)), p.cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("respawn after crash: %w", err)
	}
	return fresh, nil
}

// withEngine acquires an engine, runs fn, and releases or recovers it. Transparently retries on
// crash up to maxEngineRetries times.
func (p *Pool) withEngine(ctx context.Context, fn func(context.Context, *engine) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxEngineRetries; attempt++ {
		e, err := p.acquire(ctx)
		if err != nil {
			return err
		}
		e.busy.Store(true)

		actx, cancel := context.WithTimeout(ctx, p.cfg.EngineAnalysisTimeout)
		err = fn(actx, e)
		cancel()

		if err == nil {
			p.release(e)
			return nil
		}
		lastErr = err

		if !e.isCrashed() {
			p.release(e)
			if actx.Err() != nil {
				return coreerr.Wrap(coreerr.EngineTimeout, "analysis exceeded timeout", err)
			}
			return coreerr.Wrap(coreerr.EngineFailed, "analysis failed", err)
		}

		fresh, rerr := p.recover(ctx, e)
		if rerr != nil {
			return coreerr.Wrap(coreerr.EngineFailed, "recovery failed", rerr)
		}
		p.idle <- fresh
	}
	return coreerr.Wrapf(coreerr.EngineFailed, lastErr, "exhausted %d retries", maxEngineRetries)
}

// runCPU executes fn bounded by the CPU worker semaphore, rebuilding the semaphore and retrying
// once if fn fails; a panic in fn is recovered into such a failure (modeling a worker dying
// mid-task, since Go workers are goroutines rather than OS processes).
func (p *Pool) runCPU(ctx context.Context, fn func() error) (err error) {
	if err := p.workers.Acquire(ctx, 1); err != nil {
		return coreerr.Wrap(coreerr.Cancelled, "cpu worker acquisition", err)
	}
	release := true
	defer func() {
		if release {
			p.workers.Release(1)
		}
	}()

	err = runRecovered(ctx, fn)
	if err != nil {
		logw.Warningf(ctx, "cpu worker task failed, rebuilding pool and retrying once: %v", err)
		p.recreateMu.Lock()
		p.workers.Release(1)
		release = false
		p.workers = semaphore.NewWeighted(int64(p.cfg.PoolSize))
		p.recreateMu.Unlock()

		if err2 := p.workers.Acquire(ctx, 1); err2 != nil {
			return err2
		}
		defer p.workers.Release(1)
		return runRecovered(ctx, fn)
	}
	return nil
}

// runRecovered runs fn on its own goroutine so a panic is recovered into an error instead of
// crashing the caller's stack, and honors ctx cancellation while waiting for it to finish.
func runRecovered(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("cpu worker panic: %v", r)
			}
		}()
		result <- fn()
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) recordCompletion(start time.Time) {
	p.analysesCompleted.Add(1)
	p.lastUsed.Store(time.Now().UnixNano())
	p.lastLatency.Store(int64(time.Since(start)))
}

// AnalyzePosition returns the top-k variations at depth for fen, using the engine-analysis cache
// keyed on the normalized FEN, depth, and k.
func (p *Pool) AnalyzePosition(ctx context.Context, fenStr string, depth, k int) (analysis.EvaluationPair, error) {
	start := time.Now()
	key := cacheKey(fenStr, depth, k)
	if v, ok := p.analysisCache.Get(key); ok {
		return v, nil
	}

	var result analysis.EvaluationPair
	err := p.withEngine(ctx, func(ctx context.Context, e *engine) error {
		r, err := e.analyze(ctx, fenStr, depth, k)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return analysis.EvaluationPair{}, err
	}

	p.analysisCache.Set(key, result, 1)
	p.recordCompletion(start)
	return result, nil
}

// AnalyzeLinePair analyzes fenBefore and the position after move, using a single engine for both
// halves so engine state (hash table, thread) is consistent across the pair.
func (p *Pool) AnalyzeLinePair(ctx context.Context, fenBefore, fenAfter string, depth int) (before, after analysis.EvaluationPair, err error) {
	start := time.Now()
	err = p.withEngine(ctx, func(ctx context.Context, e *engine) error {
		b, err := e.analyze(ctx, fenBefore, depth, 1)
		if err != nil {
			return err
		}
		a, err := e.analyze(ctx, fenAfter, depth, 1)
		if err != nil {
			return err
		}
		before, after = b, a
		return nil
	})
	if err != nil {
		return analysis.EvaluationPair{}, analysis.EvaluationPair{}, err
	}
	p.recordCompletion(start)
	return before, after, nil
}

// PositionRecord is one per-FEN joined result from AnalyzePositionBatch: the engine evaluation
// and the CPU-worker (Position Analyzer) result for the same position.
type PositionRecord struct {
	FEN   string
	Eval  analysis.EvaluationPair
	CPU   any // opaque: the caller's cpuWork result for this FEN, e.g. *analysis.TaggedPosition
	Err   error
}

// AnalyzePositionBatch de-duplicates positions, runs engine analysis and cpuWork concurrently
// for each unique FEN, and returns one PositionRecord per input in input order. progress, if
// non-nil, is called once per unique FEN completed (not once per input).
func (p *Pool) AnalyzePositionBatch(ctx context.Context, positions []string, depth, k int, cpuWork func(ctx context.Context, fenStr string) (any, error), progress func(done, total int)) ([]PositionRecord, error) {
	unique := make([]string, 0, len(positions))
	seen := map[string]bool{}
	for _, f := range positions {
		if !seen[f] {
			seen[f] = true
			unique = append(unique, f)
		}
	}

	type joined struct {
		eval analysis.EvaluationPair
		cpu  any
		err  error
	}
	results := make(map[string]joined, len(unique))
	var mu sync.Mutex
	var doneCount int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.PoolSize)
	for _, f := range unique {
		f := f
		g.Go(func() error {
			var eval analysis.EvaluationPair
			var cpuResult any
			var firstErr error

			sub, sgctx := errgroup.WithContext(gctx)
			sub.Go(func() error {
				r, err := p.AnalyzePosition(sgctx, f, depth, k)
				if err != nil {
					firstErr = err
					return nil // joined below; don't cancel the CPU half
				}
				eval = r
				return nil
			})
			sub.Go(func() error {
				if cpuWork == nil {
					return nil
				}
				err := p.runCPU(sgctx, func() error {
					r, err := cpuWork(sgctx, f)
					if err != nil {
						return err
					}
					cpuResult = r
					return nil
				})
				if err != nil && firstErr == nil {
					firstErr = err
				}
				return nil
			})
			_ = sub.Wait()

			mu.Lock()
			results[f] = joined{eval: eval, cpu: cpuResult, err: firstErr}
			doneCount++
			if progress != nil {
				progress(doneCount, len(unique))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]PositionRecord, len(positions))
	for i, f := range positions {
		j := results[f]
		out[i] = PositionRecord{FEN: f, Eval: j.eval, CPU: j.cpu, Err: j.err}
	}
	return out, nil
}

// Health issues a trivial analysis on the starting position and reports latency plus pool
// bookkeeping (analyses_completed, last_used, per §9 supplemented bookkeeping).
func (p *Pool) Health(ctx context.Context) Status {
	start := time.Now()
	_, err := p.AnalyzePosition(ctx, fen.Initial, 1, 1)
	latency := time.Since(start)
	if err != nil {
		logw.Warningf(ctx, "health check analysis failed: %v", err)
	}

	var lastUsed time.Time
	if ns := p.lastUsed.Load(); ns != 0 {
		lastUsed = time.Unix(0, ns)
	}

	return Status{
		PoolSize:          p.cfg.PoolSize,
		IdleEngines:       len(p.idle),
		AnalysesCompleted: p.analysesCompleted.Load(),
		LastUsed:          lastUsed,
		LastLatency:       latency,
	}
}

// StaticEval runs a static-evaluator dump for fen, cached by normalized FEN.
func (p *Pool) StaticEval(ctx context.Context, fenStr string) (analysis.NNUEDump, error) {
	key := cacheKey(fenStr, -1, -1)
	if v, ok := p.nnueCache.Get(key); ok {
		return v, nil
	}

	dctx, cancel := context.WithTimeout(ctx, p.cfg.NNUEDumpTimeout)
	defer cancel()

	var dump analysis.NNUEDump
	err := p.withEngine(dctx, func(ctx context.Context, e *engine) error {
		d, err := e.staticEval(ctx, fenStr)
		if err != nil {
			return err
		}
		dump = d
		return nil
	})
	if err != nil {
		return analysis.NNUEDump{FEN: fenStr, Available: false}, coreerr.Wrap(coreerr.NNUEUnavailable, "static eval dump", err)
	}

	p.nnueCache.Set(key, dump, 1)
	return dump, nil
}

func cacheKey(fenStr string, depth, k int) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(fen.Normalize(fenStr))
	_, _ = fmt.Fprintf(h, "|%d|%d", depth, k)
	return h.Sum64()
}
