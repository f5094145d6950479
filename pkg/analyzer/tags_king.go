package analyzer

import (
	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/board"
)

// kingShieldTags reports gaps in the pawn shield on the rank immediately in front of each king.
func kingShieldTags(pos *board.Position) []analysis.Tag {
	var tags []analysis.Tag

	for _, c := range colors {
		kingSq := pos.Piece(c, board.King).LastPopSquare()
		ahead := ranksAhead(c, kingSq.Rank())
		if len(ahead) == 0 {
			continue // king on the opponent's back rank has no shield rank in front of it
		}
		shieldRank := ahead[0]

		var missingSquares []string
		for _, f := range adjacentFiles(kingSq.File()) {
			if !pos.Piece(c, board.Pawn).IsSet(board.NewSquare(f, shieldRank)) {
				missingSquares = append(missingSquares, squareName(board.NewSquare(f, shieldRank)))
			}
		}
		if len(missingSquares) == 0 {
			continue
		}

		tags = append(tags, analysis.Tag{
			Name:    "king.shield.gap",
			Side:    c.Name(),
			Squares: missingSquares,
			Pieces:  []string{pieceSymbolAt(pos, kingSq)},
			Details: map[string]any{"missing_count": len(missingSquares)},
		})
	}

	return tags
}
