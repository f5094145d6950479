package motif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/attribution"
	"github.com/chessgpt/analysiscore/pkg/board/fen"
)

const afterNf3FEN = "rnbqkbnr/pppppppp/8/8/8/5N2/PPPPPPPP/RNBQKB1R b KQkq - 1 1"

func sampleTree() *analysis.ExplorationNode {
	return &analysis.ExplorationNode{
		FEN: fen.Initial,
		EvalD16: analysis.EvaluationPair{
			Best: analysis.Variation{PVSan: []string{"e4", "e5", "Nf3", "Nc6"}},
		},
		Branches: []*analysis.ExplorationNode{
			{
				FEN:        afterNf3FEN,
				MovePlayed: "Nf3",
				EvalD16: analysis.EvaluationPair{
					Best: analysis.Variation{PVSan: []string{"Nc6", "Bb5"}},
				},
			},
		},
	}
}

func TestExtractLinesAssignsRootKindByDepth(t *testing.T) {
	lines := extractLines(sampleTree(), DefaultPolicy())
	require.Len(t, lines, 2)

	var gotPV, gotOverestimated bool
	for _, l := range lines {
		switch l.rootKind {
		case rootKindPV:
			gotPV = true
			assert.Equal(t, "e4", l.rootMove)
		case rootKindOverestimated:
			gotOverestimated = true
			assert.Equal(t, "Nf3", l.rootMove)
		}
	}
	assert.True(t, gotPV)
	assert.True(t, gotOverestimated)
}

func TestExtractLinesTruncatesToMaxLinePlies(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxLinePlies = 2
	lines := extractLines(sampleTree(), policy)
	for _, l := range lines {
		assert.LessOrEqual(t, len(l.san), 2)
	}
}

func TestBuildPlyTokensGranularityIsLiteralSubset(t *testing.T) {
	lines := extractLines(sampleTree(), DefaultPolicy())
	cfg := attribution.DefaultConfig()

	for _, l := range lines {
		plies := buildPlyTokens(l, cfg)
		require.NotEmpty(t, plies)
		for _, p := range plies {
			assertSubset(t, p.coarse, p.mid)
			assertSubset(t, p.mid, p.fine)
		}
	}
}

func assertSubset(t *testing.T, small, big []string) {
	t.Helper()
	bigSet := map[string]bool{}
	for _, s := range big {
		bigSet[s] = true
	}
	for _, s := range small {
		assert.True(t, bigSet[s], "%q missing from superset %v", s, big)
	}
}

func TestBuildPlyTokensStopsOnUnparseableSAN(t *testing.T) {
	l := line{
		rootFEN: fen.Initial,
		san:     []string{"e4", "not-a-move", "e5"},
	}
	plies := buildPlyTokens(l, attribution.DefaultConfig())
	assert.Len(t, plies, 1)
}

func TestMineRanksWithoutTies(t *testing.T) {
	motifs := Mine(sampleTree(), DefaultPolicy())
	require.NotEmpty(t, motifs)

	seen := map[string]bool{}
	for i, m := range motifs {
		key := m.Signature
		assert.False(t, seen[key], "duplicate signature %q", key)
		seen[key] = true
		if i > 0 {
			prev := motifs[i-1]
			less := prev.Significance > m.Significance ||
				(prev.Significance == m.Significance && prev.Length > m.Length) ||
				(prev.Significance == m.Significance && prev.Length == m.Length && prev.Signature < m.Signature)
			assert.True(t, less, "ranking order violated at index %d", i)
		}
		assert.GreaterOrEqual(t, m.Significance, 0.0)
	}
}

func TestMineNilTreeReturnsNoMotifs(t *testing.T) {
	assert.Nil(t, Mine(nil, DefaultPolicy()))
}

func TestSignificanceOfIsNonNegative(t *testing.T) {
	agg := &aggregate{
		granularity:     "fine",
		length:          3,
		countTotal:      12,
		rootBranches:    map[string]bool{"e4": true},
		lineIDs:         map[string]bool{"a": true, "b": true},
		countByRootKind: map[string]int{rootKindOverestimated: 10, rootKindPV: 2},
	}
	score := significanceOf(agg, 4, 0)
	assert.GreaterOrEqual(t, score, 0.0)
}

func TestClassifyHiddenTacticCandidateRequiresOverratedMajorityAndLowConcentration(t *testing.T) {
	narrow := &aggregate{
		countTotal:      10,
		rootBranches:    map[string]bool{"e4": true},
		countByRootKind: map[string]int{rootKindOverestimated: 9, rootKindPV: 1},
	}
	assert.Equal(t, analysis.MotifHiddenTacticCandidate, classify(narrow, 6))

	wide := &aggregate{
		countTotal:      10,
		rootBranches:    map[string]bool{"e4": true, "d4": true, "Nf3": true, "c4": true, "e3": true},
		countByRootKind: map[string]int{rootKindOverestimated: 9, rootKindPV: 1},
	}
	assert.Equal(t, analysis.MotifStrategic, classify(wide, 6))
}

func TestEnrichEvidenceTagRelevanceSkipsWhenNNUEUnavailable(t *testing.T) {
	evidence := analysis.EvidenceLine{
		Attribution: analysis.LineAttribution{NNUEAvailable: false},
	}
	assert.Nil(t, EnrichEvidenceTagRelevance(evidence))
}
