package investigator

import (
	"context"
	"errors"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/contextx"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/attribution"
	"github.com/chessgpt/analysiscore/pkg/coreerr"
	"github.com/chessgpt/analysiscore/pkg/motif"
)

// EnginePool is the slice of *enginepool.Pool the investigator depends on. Accepting the
// interface rather than the concrete pool keeps this package testable without spawning real UCI
// engines.
type EnginePool interface {
	AnalyzePosition(ctx context.Context, fenStr string, depth, k int) (analysis.EvaluationPair, error)
	StaticEval(ctx context.Context, fenStr string) (analysis.NNUEDump, error)
}

// Investigator runs Dual-Depth investigations against a shared engine pool.
type Investigator struct {
	Pool              EnginePool
	AttributionConfig attribution.Config
}

func New(pool EnginePool) *Investigator {
	return &Investigator{Pool: pool, AttributionConfig: attribution.DefaultConfig()}
}

// Investigate runs the full pipeline against rootFEN: root scan, overrated-move selection,
// bounded tree expansion, evidence-line construction, and claim emission. The returned error is
// non-nil only for root-level engine failures; everything downstream of a successful root scan
// degrades gracefully (branch errors are recorded on their node, evidence failures leave the
// evidence line empty) rather than failing the whole request.
func (inv *Investigator) Investigate(ctx context.Context, rootFEN string, policy Policy) (analysis.InvestigationResult, error) {
	result := analysis.InvestigationResult{RootFEN: rootFEN}
	state := Unstarted

	if contextx.IsCancelled(ctx) {
		result.Cancelled = true
		logw.Warningf(ctx, "investigate %s: %s: cancelled before root scan", rootFEN, Failed)
		return result, coreerr.Wrap(coreerr.EngineFailed, "root deep scan", ctx.Err())
	}

	deep, err := inv.Pool.AnalyzePosition(ctx, rootFEN, policy.DeepDepth, policy.MaxBranchLines)
	if err != nil {
		if errors.Is(err, coreerr.ErrCancelled) {
			result.Cancelled = true
		}
		logw.Warningf(ctx, "investigate %s: %s: root deep scan: %v", rootFEN, Failed, err)
		return result, coreerr.Wrap(coreerr.EngineFailed, "root deep scan", err)
	}
	shallow, err := inv.Pool.AnalyzePosition(ctx, rootFEN, policy.ShallowDepth, policy.MaxBranchLines)
	if err != nil {
		if errors.Is(err, coreerr.ErrCancelled) {
			result.Cancelled = true
		}
		logw.Warningf(ctx, "investigate %s: %s: root shallow scan: %v", rootFEN, Failed, err)
		return result, coreerr.Wrap(coreerr.EngineFailed, "root shallow scan", err)
	}
	result.EvalD2 = shallow
	result.EvalD16 = deep
	state = RootScanned

	if len(deep.Variations) == 0 {
		// Stalemate or checkmate at the root: no legal moves, so there is nothing to explore.
		result.Claims = []analysis.Claim{baselineClaim(rootFEN, deep)}
		logw.Debugf(ctx, "investigate %s: %s (no legal moves)", rootFEN, Done)
		return result, nil
	}

	result.BestMoveD16 = firstMove(deep.Best)
	result.BestMoveD16EvalCP = deep.Best.EvalCP
	if len(deep.Variations) >= 2 {
		result.SecondBestMoveD16 = firstMove(deep.Variations[1])
		result.SecondBestMoveD16EvalCP = deep.Variations[1].EvalCP
		gap := deep.Variations[0].EvalCP - deep.Variations[1].EvalCP
		result.IsCritical = gap >= policy.CriticalGapCP
	}
	result.IsWinning = deep.Best.EvalCP >= policy.WinningCP
	result.OverestimatedMoves = overestimatedMoves(deep, shallow, policy.BranchingLimit)

	b := &builder{ctx: ctx, pool: inv.Pool, policy: policy}
	result.ExplorationTree = b.expand(rootFEN, "", 0)
	state = TreeBuilt

	if contextx.IsCancelled(ctx) {
		result.Cancelled = true
		logw.Warningf(ctx, "investigate %s: %s: cancelled before evidence assembly", rootFEN, Failed)
		return result, nil
	}

	if evidence, err := inv.buildEvidence(ctx, rootFEN, deep, policy); err == nil {
		result.Evidence = evidence
	} else {
		logw.Warningf(ctx, "investigate %s: evidence line: %v", rootFEN, err)
	}
	state = EvidenceComputed

	motifPolicy := motif.Policy{
		MaxTreeDepth:    policy.MaxTreeDepth,
		MaxTreeNodes:    policy.MaxTreeNodes,
		MaxTotalLines:   policy.MaxTotalLines,
		MaxLinePlies:    policy.MaxLinePlies,
		MaxPatternPlies: policy.MaxPatternPlies,
		MotifsTop:       policy.MotifsTop,
	}
	result.Motifs = motif.Mine(result.ExplorationTree, motifPolicy)

	var claims []analysis.Claim
	claims = append(claims, baselineClaim(rootFEN, deep))
	claims = append(claims, evidenceLineClaim(result.Evidence))
	claims = append(claims, overestimatedMoveClaims(result.OverestimatedMoves, result.BestMoveD16, 8)...)
	if result.IsCritical {
		claims = append(claims, criticalPositionClaim(result))
	}
	claims = append(claims, treeThreatClaims(result.ExplorationTree)...)
	claims = append(claims, inv.pvThreatClaims(ctx, rootFEN, deep.Best.PVSan, policy)...)
	result.Claims = claims
	state = Done
	logw.Debugf(ctx, "investigate %s: %s, %d nodes, %d claims", rootFEN, state, result.ExplorationTree.NodeCount(), len(claims))

	return result, nil
}
