// Package investigator implements the Dual-Depth Investigator: a shallow-vs-deep engine scan
// that surfaces moves the shallow search overrates, expands them into a bounded exploration
// tree, and builds the canonical evidence line via Piece Attribution.
package investigator

// Policy carries the investigation's depth pair and exploration bounds. All fields have
// spec-mandated defaults.
type Policy struct {
	ShallowDepth int // d2: the "naive" search depth.
	DeepDepth    int // d16: the "ground truth" search depth.

	CriticalGapCP int // root best-vs-second-best gap (cp) at DeepDepth to flag is_critical.
	WinningCP     int // root best eval (cp) at DeepDepth to flag is_winning.
	ThreatGapCP   int // best-vs-second-best gap (cp) at any node to record a threat claim.

	BranchingLimit int // max overrated moves expanded per node.
	MaxPVPlies     int // PV length cap for evidence line and per-node lines.

	MaxTreeDepth   int // max recursion depth of the exploration tree.
	MaxTreeNodes   int // max total nodes across the exploration tree.
	MaxBranchLines int // max MultiPV lines requested per engine call.

	// Motif & Claim Builder bounds, passed through to pkg/motif unchanged.
	MaxTotalLines   int // max lines extracted from the exploration tree.
	MaxLinePlies    int // truncation length per extracted line.
	MaxPatternPlies int // max sliding-window pattern length.
	MotifsTop       int // number of ranked motifs returned.
}

func DefaultPolicy() Policy {
	return Policy{
		ShallowDepth:    2,
		DeepDepth:       16,
		CriticalGapCP:   100,
		WinningCP:       300,
		ThreatGapCP:     60,
		BranchingLimit:  3,
		MaxPVPlies:      10,
		MaxTreeDepth:    7,
		MaxTreeNodes:    260,
		MaxBranchLines:  18,
		MaxTotalLines:   140,
		MaxLinePlies:    10,
		MaxPatternPlies: 4,
		MotifsTop:       25,
	}
}
