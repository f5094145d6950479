// Package motif implements the Motif & Claim Builder: it mines recurring move/tag patterns from
// an investigation's exploration tree and ranks them, and enriches the evidence-line claim with
// NNUE-driven per-tag relevance. Purely deterministic; it performs no engine or file I/O.
package motif

// Policy bounds line extraction and pattern enumeration.
type Policy struct {
	MaxTreeDepth    int
	MaxTreeNodes    int
	MaxTotalLines   int
	MaxLinePlies    int
	MaxPatternPlies int
	MotifsTop       int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxTreeDepth:    7,
		MaxTreeNodes:    260,
		MaxTotalLines:   140,
		MaxLinePlies:    10,
		MaxPatternPlies: 4,
		MotifsTop:       25,
	}
}

const (
	rootKindPV          = "pv_root"
	rootKindOverestimated = "overestimated_root"
)
