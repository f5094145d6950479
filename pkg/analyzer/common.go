package analyzer

import (
	"strings"

	"github.com/chessgpt/analysiscore/pkg/board"
)

var colors = []board.Color{board.White, board.Black}

// squareName renders sq in the lower-case form used throughout tags and piece ids ("e4", not "E4").
func squareName(sq board.Square) string {
	return strings.ToLower(sq.String())
}

// pieceSymbol renders the SAN letter for piece, case-folded by colour ("N" for white, "n" for black,
// "P"/"p" for pawns, which carry no SAN letter of their own).
func pieceSymbol(c board.Color, p board.Piece) string {
	letter := p.SANLetter()
	if letter == "" {
		letter = "P"
	}
	if c == board.Black {
		return strings.ToLower(letter)
	}
	return letter
}

// pieceSymbolAt renders "<symbol><square>" for whatever sits on sq, or "" if sq is empty.
func pieceSymbolAt(pos *board.Position, sq board.Square) string {
	c, p, ok := pos.Square(sq)
	if !ok {
		return ""
	}
	return pieceSymbol(c, p) + squareName(sq)
}

// adjacentFiles returns f itself plus the files immediately to either side, clipped at the edge.
func adjacentFiles(f board.File) []board.File {
	out := []board.File{f}
	if int(f)-1 >= int(board.FileH) {
		out = append(out, board.File(int(f)-1))
	}
	if int(f)+1 <= int(board.FileA) {
		out = append(out, board.File(int(f)+1))
	}
	return out
}

// ranksAhead lists the ranks strictly in front of r, in the direction of travel of color c's pawns.
func ranksAhead(c board.Color, r board.Rank) []board.Rank {
	var out []board.Rank
	if c == board.White {
		for rr := int(r) + 1; rr <= int(board.Rank8); rr++ {
			out = append(out, board.Rank(rr))
		}
	} else {
		for rr := int(r) - 1; rr >= int(board.Rank1); rr-- {
			out = append(out, board.Rank(rr))
		}
	}
	return out
}

// attacks reports whether any of color c's pieces attack sq, via the opponent's IsAttacked check.
func attacks(pos *board.Position, c board.Color, sq board.Square) bool {
	return pos.IsAttacked(c.Opponent(), sq)
}

func countPieces(pos *board.Position) int {
	total := 0
	for _, c := range colors {
		for piece := board.ZeroPiece; piece < board.NumPieces; piece++ {
			total += pos.Piece(c, piece).PopCount()
		}
	}
	return total
}
