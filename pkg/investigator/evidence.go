package investigator

import (
	"context"
	"fmt"
	"strings"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/analyzer"
	"github.com/chessgpt/analysiscore/pkg/attribution"
	"github.com/chessgpt/analysiscore/pkg/motif"
)

func (inv *Investigator) buildEvidence(ctx context.Context, rootFEN string, deep analysis.EvaluationPair, policy Policy) (analysis.EvidenceLine, error) {
	pv := truncatePV(deep.Best.PVSan, policy.MaxPVPlies)

	fetch := func(f string) (analysis.NNUEDump, error) { return inv.Pool.StaticEval(ctx, f) }
	attr, err := attribution.TrackLine(rootFEN, pv, fetch, inv.AttributionConfig)
	if err != nil {
		return analysis.EvidenceLine{}, err
	}

	startTP, err := analyzer.AnalyseFEN(rootFEN)
	if err != nil {
		return analysis.EvidenceLine{}, err
	}
	endTP, err := analyzer.AnalyseFEN(attr.EndFEN)
	if err != nil {
		return analysis.EvidenceLine{}, err
	}

	endEval, err := inv.Pool.AnalyzePosition(ctx, attr.EndFEN, policy.DeepDepth, 1)
	if err != nil {
		return analysis.EvidenceLine{}, err
	}

	return analysis.EvidenceLine{
		PGN:             formatPGN(pv),
		Moves:           pv,
		StartingFEN:     rootFEN,
		EndFEN:          attr.EndFEN,
		EvalStartCP:     deep.Best.EvalCP,
		EvalEndCP:       endEval.Best.EvalCP,
		EvalDeltaCP:     endEval.Best.EvalCP - deep.Best.EvalCP,
		MaterialStartCP: startTP.MaterialBalanceCP,
		MaterialEndCP:   endTP.MaterialBalanceCP,
		PositionalStart: netThemeScore(startTP.Themes),
		PositionalEnd:   netThemeScore(endTP.Themes),
		Attribution:     attr,
	}, nil
}

// netThemeScore collapses the Position Analyzer's per-side theme map into a single white-minus-
// black figure, a coarse positional-evaluation proxy for the evidence line summary.
func netThemeScore(t analysis.ThemeScores) float64 {
	var sum float64
	for _, v := range t.White {
		sum += v
	}
	for _, v := range t.Black {
		sum -= v
	}
	return sum
}

func formatPGN(moves []string) string {
	var sb strings.Builder
	for i, m := range moves {
		if i%2 == 0 {
			fmt.Fprintf(&sb, "%d. ", i/2+1)
		}
		sb.WriteString(m)
		sb.WriteString(" ")
	}
	return strings.TrimSpace(sb.String())
}

func baselineClaim(fenStr string, eval analysis.EvaluationPair) analysis.Claim {
	return analysis.Claim{
		Kind:    analysis.ClaimBaseline,
		Summary: fmt.Sprintf("baseline position %s, eval %+dcp", fenStr, eval.Best.EvalCP),
		Details: map[string]any{"fen": fenStr, "eval_cp": eval.Best.EvalCP},
	}
}

func evidenceLineClaim(e analysis.EvidenceLine) analysis.Claim {
	details := map[string]any{
		"pgn":           e.PGN,
		"eval_delta_cp": e.EvalDeltaCP,
		"tags_gained":   e.Attribution.TagsGainedNet,
		"tags_lost":     e.Attribution.TagsLostNet,
	}
	if relevance := motif.EnrichEvidenceTagRelevance(e); len(relevance) > 0 {
		details["tag_relevance"] = relevance
	}
	return analysis.Claim{
		Kind:    analysis.ClaimEvidenceLine,
		Summary: fmt.Sprintf("evidence line %s shifts eval by %+dcp", e.PGN, e.EvalDeltaCP),
		Details: details,
	}
}

func overestimatedMoveClaims(moves []string, bestMove string, max int) []analysis.Claim {
	var claims []analysis.Claim
	for i, m := range moves {
		if i >= max {
			break
		}
		claims = append(claims, analysis.Claim{
			Kind:    analysis.ClaimOverestimatedMove,
			Summary: fmt.Sprintf("%s looks better at shallow depth than the engine's real best move %s", m, bestMove),
			Details: map[string]any{"move": m, "best_move": bestMove},
		})
	}
	return claims
}

func criticalPositionClaim(result analysis.InvestigationResult) analysis.Claim {
	gap := result.BestMoveD16EvalCP - result.SecondBestMoveD16EvalCP
	return analysis.Claim{
		Kind:    analysis.ClaimCriticalPosition,
		Summary: fmt.Sprintf("position is critical: %s leads by %dcp", result.BestMoveD16, gap),
		Details: map[string]any{"best_move": result.BestMoveD16, "gap_cp": gap},
	}
}

func treeThreatClaims(n *analysis.ExplorationNode) []analysis.Claim {
	if n == nil {
		return nil
	}
	var claims []analysis.Claim
	if n.ThreatClaim != nil {
		claims = append(claims, threatClaim(n.FEN, *n.ThreatClaim))
	}
	for _, b := range n.Branches {
		claims = append(claims, treeThreatClaims(b)...)
	}
	return claims
}

func threatClaim(fenStr string, t analysis.ThreatClaim) analysis.Claim {
	return analysis.Claim{
		Kind:    analysis.ClaimThreat,
		Summary: fmt.Sprintf("%s threatens a %dcp swing at %s", t.BestMoveSAN, t.GapCP, fenStr),
		Details: map[string]any{"fen": fenStr, "move": t.BestMoveSAN, "gap_cp": t.GapCP},
	}
}

// pvThreatClaims walks up to 5 plies of the root's deep PV, recording a threat claim at any ply
// where the best-vs-second-best gap clears the policy threshold.
func (inv *Investigator) pvThreatClaims(ctx context.Context, rootFEN string, pv []string, policy Policy) []analysis.Claim {
	var claims []analysis.Claim
	limit := 5
	if len(pv) < limit {
		limit = len(pv)
	}

	cur := rootFEN
	for i := 0; i < limit; i++ {
		evalPair, err := inv.Pool.AnalyzePosition(ctx, cur, policy.DeepDepth, 2)
		if err != nil {
			break
		}
		if t := threatAt(evalPair, policy.ThreatGapCP); t != nil {
			claims = append(claims, threatClaim(cur, *t))
		}
		next, err := pushSAN(cur, pv[i])
		if err != nil {
			break
		}
		cur = next
	}
	return claims
}
