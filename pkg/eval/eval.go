// Package eval contains the threat-detection primitives (capture and pin finding) the Position
// Analyzer's tactical tags are built on.
package eval

import (
	"github.com/chessgpt/analysiscore/pkg/board"
)

// NominalValue is the compact move-ordering value in pawns of a piece, used only to rank attacker
// and defender lists by "which piece would actually recapture" -- distinct from the centipawn
// table analyzer.Analyse uses for material_balance_cp, which is a user-facing figure.
func NominalValue(p board.Piece) int {
	switch p {
	case board.Pawn:
		return 1
	case board.Bishop, board.Knight:
		return 3
	case board.Rook:
		return 5
	case board.Queen:
		return 9
	case board.King:
		return 100
	default:
		return 0
	}
}
