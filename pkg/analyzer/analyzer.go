// Package analyzer implements the Position Analyzer: a pure, synchronous function from a
// position to a TaggedPosition (material balance, theme scores, and tags). No I/O; deterministic.
package analyzer

import (
	"fmt"
	"sort"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/board"
	"github.com/chessgpt/analysiscore/pkg/board/fen"
	"github.com/chessgpt/analysiscore/pkg/coreerr"
)

// standard piece values in centipawns, distinct from eval.NominalValue's compact search-ordering
// scale: material_balance_cp is a user-facing figure and must use the conventional table.
var standardValueCP = map[board.Piece]int{
	board.Pawn:   100,
	board.Knight: 320,
	board.Bishop: 330,
	board.Rook:   500,
	board.Queen:  900,
}

// Analyse computes the TaggedPosition for a position. fenStr is the position's own FEN, carried
// through for identification; pos/turn must agree with it (callers decode together).
func Analyse(fenStr string, pos *board.Position, turn board.Color) (analysis.TaggedPosition, error) {
	if pos == nil {
		return analysis.TaggedPosition{}, coreerr.Wrap(coreerr.InvalidPosition, "nil position", nil)
	}

	tp := analysis.TaggedPosition{
		FEN:               fenStr,
		MaterialBalanceCP: materialBalanceCP(pos),
		Themes:            computeThemeScores(pos, turn),
		PieceProfiles:     map[string]analysis.PieceProfile{},
	}

	var tags []analysis.Tag
	tags = append(tags, diagonalTags(pos)...)
	tags = append(tags, fileTags(pos)...)
	tags = append(tags, passedPawnTags(pos)...)
	tags = append(tags, outpostTags(pos)...)
	tags = append(tags, weakSquareTags(pos)...)
	tags = append(tags, kingShieldTags(pos)...)
	tags = append(tags, tacticalThreatTags(pos, turn)...)

	sortTags(tags)
	tp.Tags = tags

	return tp, nil
}

// sortTags enforces the deterministic (category, side, first-square) order, ties broken by name.
func sortTags(tags []analysis.Tag) {
	sort.SliceStable(tags, func(i, j int) bool {
		a, b := tags[i], tags[j]
		ca, cb := tagCategory(a.Name), tagCategory(b.Name)
		if ca != cb {
			return ca < cb
		}
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		sa, sb := firstSquare(a.Squares), firstSquare(b.Squares)
		if sa != sb {
			return sa < sb
		}
		return a.Name < b.Name
	})
}

func firstSquare(squares []string) string {
	if len(squares) == 0 {
		return ""
	}
	return squares[0]
}

// tagCategory returns the dotted name's first component, the detector family.
func tagCategory(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}

func materialBalanceCP(pos *board.Position) int {
	total := 0
	for piece, cp := range standardValueCP {
		total += (pos.Piece(board.White, piece).PopCount() - pos.Piece(board.Black, piece).PopCount()) * cp
	}
	return total
}

// IsBookish is the supplemented in-process, offline stand-in for the Python original's live
// lichess-masters check: "is this position still plausibly book" judged from piece count and
// ply count alone, no network. Feeds the Motif Builder's phase weighting (§4.5).
func IsBookish(pos *board.Position, ply int) bool {
	return ply <= 20 && countPieces(pos) >= 28
}

// GamePhase is a coarse opening/middlegame/endgame classification used by theme weighting and
// (supplemented) the Motif Builder's granularity weighting.
type GamePhase int

const (
	Opening GamePhase = iota
	Middlegame
	Endgame
)

func (g GamePhase) String() string {
	switch g {
	case Opening:
		return "opening"
	case Middlegame:
		return "middlegame"
	case Endgame:
		return "endgame"
	default:
		return "unknown"
	}
}

// Phase classifies the position by total piece count on the board, per spec §4.5's
// ">24 pieces on the board" opening threshold.
func Phase(pos *board.Position) GamePhase {
	pieces := countPieces(pos)
	switch {
	case pieces > 24:
		return Opening
	case pieces > 12:
		return Middlegame
	default:
		return Endgame
	}
}

// AnalyseFEN decodes fenStr and runs Analyse. A convenience wrapper for callers that only have
// the textual form (the engine pool and investigator pass *board.Position directly instead).
func AnalyseFEN(fenStr string) (analysis.TaggedPosition, error) {
	pos, turn, _, _, err := fen.Decode(fenStr)
	if err != nil {
		return analysis.TaggedPosition{}, coreerr.Wrap(coreerr.InvalidPosition, fmt.Sprintf("decode fen %q", fenStr), err)
	}
	return Analyse(fenStr, pos, turn)
}
