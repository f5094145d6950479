package motif

import (
	"sort"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/analyzer"
	"github.com/chessgpt/analysiscore/pkg/attribution"
	"github.com/chessgpt/analysiscore/pkg/board/fen"
)

// Mine extracts lines from an investigation's exploration tree, enumerates token patterns across
// the three granularities, scores and classifies the resulting motifs, and returns the top-ranked
// ones in the spec's (-significance, -length, signature) total order.
func Mine(tree *analysis.ExplorationNode, policy Policy) []analysis.Motif {
	if tree == nil {
		return nil
	}
	lines := extractLines(tree, policy)
	if len(lines) == 0 {
		return nil
	}

	cfg := attribution.DefaultConfig()
	plyTokensByLine := make([][]plyTokens, len(lines))
	for i, l := range lines {
		plyTokensByLine[i] = buildPlyTokens(l, cfg)
	}

	aggs := mineAggregates(lines, plyTokensByLine, policy)
	totalRoots := distinctRootMoves(lines)

	phase := analyzer.Middlegame
	if pos, _, _, _, err := fen.Decode(tree.FEN); err == nil {
		phase = analyzer.Phase(pos)
	}

	motifs := make([]analysis.Motif, 0, len(aggs))
	for sig, agg := range aggs {
		motifs = append(motifs, analysis.Motif{
			Signature:            sig,
			Granularity:          agg.granularity,
			Length:               agg.length,
			CountTotal:           agg.countTotal,
			DistinctRootBranches: len(agg.rootBranches),
			DistinctLines:        len(agg.lineIDs),
			CountByRootKind:      agg.countByRootKind,
			Examples:             agg.examples,
			Significance:         significanceOf(agg, totalRoots, phase),
			Class:                classify(agg, totalRoots),
		})
	}

	sort.Slice(motifs, func(i, j int) bool {
		a, b := motifs[i], motifs[j]
		if a.Significance != b.Significance {
			return a.Significance > b.Significance
		}
		if a.Length != b.Length {
			return a.Length > b.Length
		}
		return a.Signature < b.Signature
	})

	if len(motifs) > policy.MotifsTop {
		motifs = motifs[:policy.MotifsTop]
	}
	return motifs
}

func distinctRootMoves(lines []line) int {
	set := map[string]bool{}
	for _, l := range lines {
		set[l.rootMove] = true
	}
	return len(set)
}
