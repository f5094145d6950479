package analyzer

import (
	"strings"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/board"
)

// fileTags reports open/half-open files and the rooks/queens that occupy them.
func fileTags(pos *board.Position) []analysis.Tag {
	var tags []analysis.Tag

	for f := board.ZeroFile; f < board.NumFiles; f++ {
		mask := board.BitFile(f)

		whitePawns := (pos.Piece(board.White, board.Pawn) & mask).PopCount()
		blackPawns := (pos.Piece(board.Black, board.Pawn) & mask).PopCount()

		switch {
		case whitePawns == 0 && blackPawns == 0:
			tags = append(tags, fileTag(f, "open", "both"))
		case whitePawns == 0:
			tags = append(tags, fileTag(f, "half_open", "white"))
		case blackPawns == 0:
			tags = append(tags, fileTag(f, "half_open", "black"))
		}

		for _, c := range colors {
			occupants := (pos.Piece(c, board.Rook) | pos.Piece(c, board.Queen)) & mask
			for _, sq := range occupants.ToSquares() {
				if whitePawns == 0 || blackPawns == 0 {
					tags = append(tags, analysis.Tag{
						Name:    "rook.open_file",
						Side:    c.Name(),
						Squares: []string{squareName(sq)},
						Pieces:  []string{pieceSymbolAt(pos, sq)},
					})
				}
			}
		}
	}

	return tags
}

func fileTag(f board.File, state, side string) analysis.Tag {
	var squares []string
	for r := board.ZeroRank; r < board.NumRanks; r++ {
		squares = append(squares, squareName(board.NewSquare(f, r)))
	}
	return analysis.Tag{
		Name:    "file." + state + "." + strings.ToLower(f.String()),
		Side:    side,
		Squares: squares,
	}
}
