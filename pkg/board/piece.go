package board

// Piece represents a chess piece (King, Pawn, etc) with no color. 3 bits.
type Piece uint8

const (
	NoPiece Piece = iota
	Pawn
	Bishop
	Knight
	Rook
	Queen
	King
)

func ParsePiece(r rune) (Piece, bool) {
	switch r {
	case 'p', 'P':
		return Pawn, true
	case 'b', 'B':
		return Bishop, true
	case 'n', 'N':
		return Knight, true
	case 'r', 'R':
		return Rook, true
	case 'q', 'Q':
		return Queen, true
	case 'k', 'K':
		return King, true
	default:
		return NoPiece, false
	}
}

func (p Piece) IsValid() bool {
	return Pawn <= p && p <= King
}

func (p Piece) String() string {
	switch p {
	case NoPiece:
		return " "
	case Pawn:
		return "p"
	case Bishop:
		return "b"
	case Knight:
		return "n"
	case Rook:
		return "r"
	case Queen:
		return "q"
	case King:
		return "k"
	default:
		return "?"
	}
}

// Name returns the full lower-case English piece name, as used in piece identifiers
// such as "white_knight_g1".
func (p Piece) Name() string {
	switch p {
	case Pawn:
		return "pawn"
	case Bishop:
		return "bishop"
	case Knight:
		return "knight"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return "none"
	}
}

// ParsePieceName parses a full lower-case piece name back into a Piece.
func ParsePieceName(name string) (Piece, bool) {
	switch name {
	case "pawn":
		return Pawn, true
	case "bishop":
		return Bishop, true
	case "knight":
		return Knight, true
	case "rook":
		return Rook, true
	case "queen":
		return Queen, true
	case "king":
		return King, true
	default:
		return NoPiece, false
	}
}

// SANLetter returns the upper-case piece letter used in SAN move text. Pawns have no letter.
func (p Piece) SANLetter() string {
	switch p {
	case Knight:
		return "N"
	case Bishop:
		return "B"
	case Rook:
		return "R"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return ""
	}
}

// NumPieces and ZeroPiece are iteration bounds, matching the Pawn..King range (NoPiece excluded).
const (
	ZeroPiece Piece = Pawn
	NumPieces Piece = King + 1
)

// KingQueenRookKnightBishop lists the non-pawn officer pieces, king first -- the
// order eval.FindCapture walks when looking for attackers of a square.
var KingQueenRookKnightBishop = []Piece{King, Queen, Rook, Knight, Bishop}

// PieceID returns the piece identifier format used for NNUE dumps and piece attribution,
// "<colour>_<type>_<square>", e.g. "white_knight_b1".
func PieceID(c Color, p Piece, sq Square) string {
	return c.Name() + "_" + p.Name() + "_" + lowerSquare(sq)
}

func lowerSquare(sq Square) string {
	s := sq.String()
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
