package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chessgpt/analysiscore/pkg/analyzer"
	"github.com/chessgpt/analysiscore/pkg/board/fen"
)

func TestAnalyseFENInitialPosition(t *testing.T) {
	tp, err := analyzer.AnalyseFEN(fen.Initial)
	require.NoError(t, err)

	assert.Equal(t, fen.Initial, tp.FEN)
	assert.Equal(t, 0, tp.MaterialBalanceCP)
	assert.NotEmpty(t, tp.Themes.White)
	assert.NotEmpty(t, tp.Themes.Black)
}

func TestAnalyseFENIsDeterministic(t *testing.T) {
	a, err := analyzer.AnalyseFEN(fen.Initial)
	require.NoError(t, err)
	b, err := analyzer.AnalyseFEN(fen.Initial)
	require.NoError(t, err)

	assert.Equal(t, a.Tags, b.Tags)
	assert.Equal(t, a.Themes, b.Themes)
}

func TestMaterialBalanceCPFavorsExtraQueen(t *testing.T) {
	withoutQueen := "rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	tp, err := analyzer.AnalyseFEN(withoutQueen)
	require.NoError(t, err)

	assert.Equal(t, 900, tp.MaterialBalanceCP)
}

func TestPhaseClassification(t *testing.T) {
	pos, _, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	assert.Equal(t, analyzer.Opening, analyzer.Phase(pos))

	endgame, _, _, _, err := fen.Decode("8/8/8/3k4/8/3K4/8/4R3 w - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, analyzer.Endgame, analyzer.Phase(endgame))
}

func TestIsBookishRequiresEarlyPlyAndFullMaterial(t *testing.T) {
	pos, _, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	assert.True(t, analyzer.IsBookish(pos, 10))
	assert.False(t, analyzer.IsBookish(pos, 30))
}

func TestAnalyseRejectsNilPosition(t *testing.T) {
	_, err := analyzer.Analyse("irrelevant", nil, 0)
	assert.Error(t, err)
}

func TestDiagonalTagsDetectOpenLongDiagonal(t *testing.T) {
	// Both long diagonals are pawnless here.
	tp, err := analyzer.AnalyseFEN("4k3/8/8/8/4B3/8/8/4K3 w - - 0 1")
	require.NoError(t, err)

	var names []string
	for _, tag := range tp.Tags {
		names = append(names, tag.Name)
	}
	assert.Contains(t, names, "diagonal.open.long.a1h8")
	assert.Contains(t, names, "diagonal.open.long.h1a8")
}

func TestTacticalThreatTagsFlagHangingPiece(t *testing.T) {
	// Black knight on d5 is attacked by the white rook and defended by nothing. The tag's side is
	// the attacking side.
	tp, err := analyzer.AnalyseFEN("4k3/8/8/3n4/8/8/3R4/4K3 w - - 0 1")
	require.NoError(t, err)

	var found bool
	for _, tag := range tp.Tags {
		if tag.Name == "threat.capture.undefended" && tag.Side == "white" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTagsAreOrderedByCategoryThenSideThenSquare(t *testing.T) {
	tp, err := analyzer.AnalyseFEN("r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R w KQkq - 4 4")
	require.NoError(t, err)

	for i := 1; i < len(tp.Tags); i++ {
		prev, cur := tp.Tags[i-1], tp.Tags[i]
		prevCategory := category(prev.Name)
		curCategory := category(cur.Name)
		assert.LessOrEqual(t, prevCategory, curCategory, "tags out of category order: %v before %v", prev, cur)
		if prevCategory != curCategory {
			continue
		}
		assert.LessOrEqual(t, prev.Side, cur.Side, "tags out of side order: %v before %v", prev, cur)
		if prev.Side == cur.Side {
			assert.LessOrEqual(t, firstSquare(prev.Squares), firstSquare(cur.Squares), "tags out of square order: %v before %v", prev, cur)
		}
	}
}

func firstSquare(squares []string) string {
	if len(squares) == 0 {
		return ""
	}
	return squares[0]
}

func category(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
