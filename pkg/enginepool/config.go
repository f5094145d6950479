package enginepool

import (
	"time"

	"github.com/seekerror/stdlib/pkg/lang"
)

// EngineConfig describes how to spawn one UCI search engine process.
type EngineConfig struct {
	// Path is the engine binary path, e.g. "/usr/local/bin/stockfish".
	Path string
	// Args are extra arguments passed to the binary.
	Args []string
	// Env holds extra "KEY=VALUE" environment variables appended to the spawned process's
	// environment, on top of the parent process's own environment.
	Env []string
	// HashMB is the transposition table size in MiB. Small by design: one search thread per
	// engine, reused across requests.
	HashMB int
	// MultiPV is the default number of variations the engine is configured to report. Individual
	// calls may request fewer (AnalyzePosition's k), never more.
	MultiPV int
}

// PoolConfig carries the engine pool's process-wide settings (spec §6).
type PoolConfig struct {
	Engine EngineConfig

	// PoolSize is the number of engines and the number of CPU workers (kept equal).
	PoolSize int

	// EngineAcquireTimeout bounds how long a caller waits for an idle engine.
	EngineAcquireTimeout time.Duration
	// EngineAnalysisTimeout bounds a single analysis call once an engine is acquired.
	EngineAnalysisTimeout time.Duration
	// NNUEDumpTimeout bounds a static-evaluator dump call.
	NNUEDumpTimeout time.Duration

	// EngineAnalysisCacheSize is the max number of engine-analysis entries held per process.
	EngineAnalysisCacheSize lang.Optional[int64]
	// NNUEDumpCacheSize is the max number of NNUE dump entries held per process (default ~128).
	NNUEDumpCacheSize lang.Optional[int64]
}

// DefaultPoolConfig returns the spec's documented defaults.
func DefaultPoolConfig(enginePath string) PoolConfig {
	return PoolConfig{
		Engine: EngineConfig{
			Path:    enginePath,
			HashMB:  32,
			MultiPV: 4,
		},
		PoolSize:              4,
		EngineAcquireTimeout:  60 * time.Second,
		EngineAnalysisTimeout: 120 * time.Second,
		NNUEDumpTimeout:       8 * time.Second,
	}
}
