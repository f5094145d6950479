package analyzer

import (
	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/board"
)

type longDiagonal struct {
	name    string
	squares []board.Square
}

var longDiagonals = []longDiagonal{
	{"a1h8", diagonalSquares(func(f, r int) bool { return f+r == 7 })},
	{"h1a8", diagonalSquares(func(f, r int) bool { return f == r })},
}

func diagonalSquares(on func(f, r int) bool) []board.Square {
	var sqs []board.Square
	for f := 0; f < 8; f++ {
		for r := 0; r < 8; r++ {
			if on(f, r) {
				sqs = append(sqs, board.NewSquare(board.File(f), board.Rank(r)))
			}
		}
	}
	return sqs
}

// diagonalTags reports openness of the two long diagonals and which bishops/queens sit on them.
func diagonalTags(pos *board.Position) []analysis.Tag {
	var tags []analysis.Tag

	for _, d := range longDiagonals {
		var mask board.Bitboard
		for _, sq := range d.squares {
			mask |= board.BitMask(sq)
		}

		whitePawns := (pos.Piece(board.White, board.Pawn) & mask).PopCount()
		blackPawns := (pos.Piece(board.Black, board.Pawn) & mask).PopCount()

		switch {
		case whitePawns == 0 && blackPawns == 0:
			tags = append(tags, longDiagonalTag(d, "open", "both"))
		case whitePawns == 0:
			tags = append(tags, longDiagonalTag(d, "half_open", "white"))
		case blackPawns == 0:
			tags = append(tags, longDiagonalTag(d, "half_open", "black"))
		}

		for _, c := range colors {
			occupants := (pos.Piece(c, board.Bishop) | pos.Piece(c, board.Queen)) & mask
			for _, sq := range occupants.ToSquares() {
				tags = append(tags, analysis.Tag{
					Name:    "diagonal.occupied.long." + d.name,
					Side:    c.Name(),
					Squares: []string{squareName(sq)},
					Pieces:  []string{pieceSymbolAt(pos, sq)},
				})
			}
		}
	}

	return tags
}

func longDiagonalTag(d longDiagonal, state, side string) analysis.Tag {
	var squares []string
	for _, sq := range d.squares {
		squares = append(squares, squareName(sq))
	}
	return analysis.Tag{
		Name:    "diagonal." + state + ".long." + d.name,
		Side:    side,
		Squares: squares,
	}
}
