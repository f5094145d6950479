package board

import (
	"fmt"
	"strings"
)

// FormatSAN formats a legal move as Standard Algebraic Notation, given the position it is
// played from and the full list of the mover's legal moves (used for disambiguation). The
// check/mate suffix reflects the resulting position.
func FormatSAN(pos *Position, turn Color, m Move, legal []Move) string {
	var sb strings.Builder

	switch m.Type {
	case KingSideCastle:
		sb.WriteString("O-O")
	case QueenSideCastle:
		sb.WriteString("O-O-O")
	default:
		if m.Piece == Pawn {
			if m.IsCapture() {
				sb.WriteString(strings.ToLower(m.From.File().String()))
				sb.WriteString("x")
			}
			sb.WriteString(strings.ToLower(m.To.String()))
			if m.IsPromotion() {
				sb.WriteString("=")
				sb.WriteString(m.Promotion.SANLetter())
			}
		} else {
			sb.WriteString(m.Piece.SANLetter())
			sb.WriteString(disambiguate(m, legal))
			if m.IsCapture() {
				sb.WriteString("x")
			}
			sb.WriteString(strings.ToLower(m.To.String()))
		}
	}

	if next, ok := pos.Move(m); ok {
		opp := turn.Opponent()
		if next.IsChecked(opp) {
			if len(next.LegalMoves(opp)) == 0 {
				sb.WriteString("#")
			} else {
				sb.WriteString("+")
			}
		}
	}

	return sb.String()
}

// disambiguate returns the SAN disambiguation infix (file, rank, or both) needed to distinguish
// m from other legal moves of the same piece type landing on the same square.
func disambiguate(m Move, legal []Move) string {
	var sameFile, sameRank, ambiguous bool

	for _, o := range legal {
		if o.Piece != m.Piece || o.To != m.To || o.From == m.From {
			continue
		}
		ambiguous = true
		if o.From.File() == m.From.File() {
			sameFile = true
		}
		if o.From.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	if !ambiguous {
		return ""
	}
	switch {
	case !sameFile:
		return strings.ToLower(m.From.File().String())
	case !sameRank:
		return strings.ToLower(m.From.Rank().String())
	default:
		return strings.ToLower(m.From.String())
	}
}

// ParseSAN resolves a SAN move string against the mover's legal moves in the given position.
func ParseSAN(pos *Position, turn Color, san string) (Move, error) {
	clean := strings.TrimRight(san, "+#!?")
	legal := pos.LegalMoves(turn)

	switch clean {
	case "O-O", "0-0":
		for _, m := range legal {
			if m.Type == KingSideCastle {
				return m, nil
			}
		}
		return Move{}, fmt.Errorf("no legal king-side castle in position")
	case "O-O-O", "0-0-0":
		for _, m := range legal {
			if m.Type == QueenSideCastle {
				return m, nil
			}
		}
		return Move{}, fmt.Errorf("no legal queen-side castle in position")
	}

	piece := Pawn
	rest := clean
	if letter, ok := ParsePieceSANLetter(rune(clean[0])); ok {
		piece = letter
		rest = clean[1:]
	}

	var promotion Piece
	if idx := strings.IndexByte(rest, '='); idx >= 0 {
		p, ok := ParsePiece(rune(rest[idx+1]))
		if !ok {
			return Move{}, fmt.Errorf("invalid promotion in SAN: '%v'", san)
		}
		promotion = p
		rest = rest[:idx]
	}

	rest = strings.ReplaceAll(rest, "x", "")
	if len(rest) < 2 {
		return Move{}, fmt.Errorf("invalid SAN move: '%v'", san)
	}

	to, err := ParseSquareStr(rest[len(rest)-2:])
	if err != nil {
		return Move{}, fmt.Errorf("invalid destination in SAN: '%v': %v", san, err)
	}
	disambig := rest[:len(rest)-2]

	var candidates []Move
	for _, m := range legal {
		if m.Piece != piece || m.To != to || m.Promotion != promotion {
			continue
		}
		if !matchesDisambiguation(m.From, disambig) {
			continue
		}
		candidates = append(candidates, m)
	}

	switch len(candidates) {
	case 0:
		return Move{}, fmt.Errorf("no legal move matches SAN: '%v'", san)
	case 1:
		return candidates[0], nil
	default:
		return Move{}, fmt.Errorf("ambiguous SAN move: '%v'", san)
	}
}

func matchesDisambiguation(from Square, hint string) bool {
	if hint == "" {
		return true
	}
	for _, r := range hint {
		switch {
		case r >= 'a' && r <= 'h':
			if f, ok := ParseFile(r); !ok || f != from.File() {
				return false
			}
		case r >= '1' && r <= '8':
			if rk, ok := ParseRank(r); !ok || rk != from.Rank() {
				return false
			}
		}
	}
	return true
}

// ParsePieceSANLetter parses an upper-case SAN piece letter ("N", "B", "R", "Q", "K"). It does
// not accept "P": pawn moves never carry a piece letter in SAN.
func ParsePieceSANLetter(r rune) (Piece, bool) {
	switch r {
	case 'N':
		return Knight, true
	case 'B':
		return Bishop, true
	case 'R':
		return Rook, true
	case 'Q':
		return Queen, true
	case 'K':
		return King, true
	default:
		return Pawn, false
	}
}
