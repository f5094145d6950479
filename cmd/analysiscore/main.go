// analysiscore runs one Dual-Depth Investigation against a position and prints the resulting
// InvestigationResult as JSON. It is a thin CLI shell around the Engine Pool, Investigator and
// Motif & Claim Builder packages; the core itself has no process-level state of its own.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/seekerror/logw"

	"github.com/chessgpt/analysiscore/pkg/board/fen"
	"github.com/chessgpt/analysiscore/pkg/enginepool"
	"github.com/chessgpt/analysiscore/pkg/investigator"
)

var (
	enginePath = flag.String("engine", "", "Path to the UCI search engine binary (required)")
	poolSize   = flag.Int("pool_size", 4, "Number of engines and CPU workers")
	multiPV    = flag.Int("multi_pv", 4, "Engine MultiPV setting")
	hashMB     = flag.Int("hash_mb", 32, "Per-engine transposition table size in MiB")

	fenStr = flag.String("fen", fen.Initial, "Root position to investigate, in FEN")

	d2Depth        = flag.Int("d2_depth", 2, "Shallow search depth")
	d16Depth       = flag.Int("d16_depth", 16, "Deep search depth")
	branchingLimit = flag.Int("branching_limit", 3, "Max overrated moves expanded per node")
	maxPVPlies     = flag.Int("max_pv_plies", 10, "PV length cap for evidence and branch lines")
	maxTreeDepth   = flag.Int("max_tree_depth", 7, "Max exploration tree recursion depth")
	maxTreeNodes   = flag.Int("max_tree_nodes", 260, "Max total exploration tree nodes")

	acquireTimeout = flag.Duration("engine_acquire_timeout", 60*time.Second, "Engine acquisition timeout")
	analysisTimeout = flag.Duration("engine_analysis_timeout", 120*time.Second, "Engine analysis timeout")
	nnueTimeout    = flag.Duration("nnue_dump_timeout", 8*time.Second, "Static evaluator dump timeout")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: analysiscore -engine <path> [options]

analysiscore runs one Dual-Depth Investigation and prints the result as JSON.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	if *enginePath == "" {
		flag.Usage()
		logw.Exitf(ctx, "analysiscore: -engine is required")
	}

	cfg := enginepool.DefaultPoolConfig(*enginePath)
	cfg.PoolSize = *poolSize
	cfg.Engine.MultiPV = *multiPV
	cfg.Engine.HashMB = *hashMB
	cfg.EngineAcquireTimeout = *acquireTimeout
	cfg.EngineAnalysisTimeout = *analysisTimeout
	cfg.NNUEDumpTimeout = *nnueTimeout

	pool, err := enginepool.New(cfg)
	if err != nil {
		logw.Exitf(ctx, "analysiscore: new pool: %v", err)
	}
	if err := pool.Initialize(ctx); err != nil {
		logw.Exitf(ctx, "analysiscore: initialize pool: %v", err)
	}
	defer pool.Shutdown(ctx)

	policy := investigator.DefaultPolicy()
	policy.ShallowDepth = *d2Depth
	policy.DeepDepth = *d16Depth
	policy.BranchingLimit = *branchingLimit
	policy.MaxPVPlies = *maxPVPlies
	policy.MaxTreeDepth = *maxTreeDepth
	policy.MaxTreeNodes = *maxTreeNodes
	policy.MaxBranchLines = cfg.Engine.MultiPV

	inv := investigator.New(pool)

	logw.Infof(ctx, "analysiscore: investigating %s at d%d/d%d", *fenStr, policy.ShallowDepth, policy.DeepDepth)
	result, err := inv.Investigate(ctx, *fenStr, policy)
	if err != nil {
		logw.Exitf(ctx, "analysiscore: investigate: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logw.Exitf(ctx, "analysiscore: encode result: %v", err)
	}
}
