package investigator

import (
	"context"
	"sort"

	"github.com/seekerror/stdlib/pkg/util/contextx"

	"github.com/chessgpt/analysiscore/pkg/analysis"
)

// builder grows a bounded exploration tree rooted at one position, tracking the total node
// count across the whole tree so MaxTreeNodes is enforced globally, not per-branch.
type builder struct {
	ctx       context.Context
	pool      EnginePool
	policy    Policy
	nodeCount int
}

func (b *builder) expand(fenStr, movePlayed string, depth int) *analysis.ExplorationNode {
	node := &analysis.ExplorationNode{FEN: fenStr, MovePlayed: movePlayed}
	b.nodeCount++

	deep, err := b.pool.AnalyzePosition(b.ctx, fenStr, b.policy.DeepDepth, b.policy.MaxBranchLines)
	if err != nil {
		node.Error = err.Error()
		return node
	}
	shallow, err := b.pool.AnalyzePosition(b.ctx, fenStr, b.policy.ShallowDepth, b.policy.MaxBranchLines)
	if err != nil {
		node.Error = err.Error()
		return node
	}
	node.EvalD2 = shallow
	node.EvalD16 = deep
	node.ThreatClaim = threatAt(deep, b.policy.ThreatGapCP)

	if depth >= b.policy.MaxTreeDepth || b.nodeCount >= b.policy.MaxTreeNodes || len(deep.Variations) == 0 {
		return node
	}

	for _, c := range rankedChildren(deep, shallow, b.policy.BranchingLimit) {
		if b.nodeCount >= b.policy.MaxTreeNodes || contextx.IsCancelled(b.ctx) {
			break
		}
		nextFEN, err := pushSAN(fenStr, c)
		if err != nil {
			node.Branches = append(node.Branches, &analysis.ExplorationNode{MovePlayed: c, Error: err.Error()})
			continue
		}
		node.Branches = append(node.Branches, b.expand(nextFEN, c, depth+1))
	}
	return node
}

func threatAt(deep analysis.EvaluationPair, threshold int) *analysis.ThreatClaim {
	if len(deep.Variations) < 2 {
		return nil
	}
	gap := deep.Variations[0].EvalCP - deep.Variations[1].EvalCP
	if gap < threshold {
		return nil
	}
	return &analysis.ThreatClaim{BestMoveSAN: firstMove(deep.Best), GapCP: gap, EvalCP: deep.Best.EvalCP}
}

// rankedChildren selects the overestimated moves at this node plus the deep-best move -- so the
// main line gets its own recursively-expanded child alongside every overrated branch -- and orders
// them stably by (SAN, deep eval, shallow eval) for deterministic tree construction.
func rankedChildren(deep, shallow analysis.EvaluationPair, limit int) []string {
	candidates := overestimatedMoves(deep, shallow, limit)

	bestSAN := firstMove(deep.Best)
	hasBest := false
	for _, c := range candidates {
		if c == bestSAN {
			hasBest = true
			break
		}
	}
	if bestSAN != "" && !hasBest {
		candidates = append(candidates, bestSAN)
	}

	deepEval := map[string]int{}
	for _, v := range deep.Variations {
		deepEval[firstMove(v)] = v.EvalCP
	}
	shallowEval := map[string]int{}
	for _, v := range shallow.Variations {
		shallowEval[firstMove(v)] = v.EvalCP
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, c := candidates[i], candidates[j]
		if a != c {
			return a < c
		}
		if deepEval[a] != deepEval[c] {
			return deepEval[a] < deepEval[c]
		}
		return shallowEval[a] < shallowEval[c]
	})
	return candidates
}
