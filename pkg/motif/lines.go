package motif

import "github.com/chessgpt/analysiscore/pkg/analysis"

// line is one extracted path through the exploration tree: the moves actually played from the
// root to reach a node, extended by that node's own deep PV, truncated to MaxLinePlies.
type line struct {
	id       string // SAN sequence joined by spaces
	rootKind string
	rootMove string // first root-level move of this line
	san      []string
	rootFEN  string // position the line's SAN sequence replays from
}

// extractLines walks the tree depth-first in its existing stable child order, emitting one line
// per node whose own PV is non-empty, bounded by maxTreeDepth, maxTreeNodes and maxTotalLines.
func extractLines(root *analysis.ExplorationNode, policy Policy) []line {
	if root == nil {
		return nil
	}
	var lines []line
	nodesSeen := 0
	var walk func(n *analysis.ExplorationNode, path []string, depth int)
	walk = func(n *analysis.ExplorationNode, path []string, depth int) {
		if n == nil || len(lines) >= policy.MaxTotalLines || nodesSeen >= policy.MaxTreeNodes {
			return
		}
		nodesSeen++

		if len(n.EvalD16.Best.PVSan) > 0 {
			san := make([]string, 0, len(path)+len(n.EvalD16.Best.PVSan))
			san = append(san, path...)
			san = append(san, n.EvalD16.Best.PVSan...)
			if len(san) > policy.MaxLinePlies {
				san = san[:policy.MaxLinePlies]
			}
			kind := rootKindOverestimated
			if depth == 0 {
				kind = rootKindPV
			}
			rootMove := ""
			if len(san) > 0 {
				rootMove = san[0]
			}
			lines = append(lines, line{
				id:       joinSAN(san),
				rootKind: kind,
				rootMove: rootMove,
				san:      san,
				rootFEN:  root.FEN,
			})
		}

		if depth >= policy.MaxTreeDepth {
			return
		}
		for _, b := range n.Branches {
			if len(lines) >= policy.MaxTotalLines {
				return
			}
			childPath := append(append([]string{}, path...), b.MovePlayed)
			walk(b, childPath, depth+1)
		}
	}
	walk(root, nil, 0)
	return lines
}

func joinSAN(san []string) string {
	s := ""
	for i, m := range san {
		if i > 0 {
			s += " "
		}
		s += m
	}
	return s
}
