package analyzer

import (
	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/board"
	"github.com/chessgpt/analysiscore/pkg/eval"
)

// tacticalThreatTags records undefended pieces under attack and pins, with attacker and
// target squares recorded structurally so downstream attribution can walk them without re-parsing
// SAN. Both sides are scanned; turn does not affect the result.
func tacticalThreatTags(pos *board.Position, turn board.Color) []analysis.Tag {
	var tags []analysis.Tag

	tags = append(tags, undefendedCaptureTags(pos)...)
	tags = append(tags, pinTags(pos)...)

	return tags
}

// undefendedCaptureTags finds pieces attacked by the opponent with no defender of their own, for
// every piece on the board (not just the side to move: the analyzer is a pure position function).
func undefendedCaptureTags(pos *board.Position) []analysis.Tag {
	var tags []analysis.Tag

	for _, c := range colors {
		opp := c.Opponent()
		for piece := board.ZeroPiece; piece < board.NumPieces; piece++ {
			if piece == board.King {
				continue // kings are never "hanging" in the capture sense
			}
			for _, sq := range pos.Piece(c, piece).ToSquares() {
				attackers := eval.FindCapture(pos, opp, sq)
				if len(attackers) == 0 {
					continue
				}
				defenders := eval.FindCapture(pos, c, sq)
				if len(defenders) > 0 {
					continue
				}
				attackers = eval.SortByNominalValue(attackers)

				var attackerSquares, attackerPieces []string
				for _, a := range attackers {
					attackerSquares = append(attackerSquares, squareName(a.Square))
					attackerPieces = append(attackerPieces, pieceSymbol(a.Color, a.Piece)+squareName(a.Square))
				}

				tags = append(tags, analysis.Tag{
					Name:    "threat.capture.undefended",
					Side:    opp.Name(),
					Squares: append([]string{squareName(sq)}, attackerSquares...),
					Pieces:  append([]string{pieceSymbol(c, piece) + squareName(sq)}, attackerPieces...),
					Details: map[string]any{
						"target":    squareName(sq),
						"attackers": attackerSquares,
					},
				})
			}
		}
	}

	return tags
}

// pinTags finds absolute and relative pins against both sides' pieces.
func pinTags(pos *board.Position) []analysis.Tag {
	var tags []analysis.Tag

	for _, c := range colors {
		for piece := board.ZeroPiece; piece < board.NumPieces; piece++ {
			for _, pin := range eval.FindPins(pos, c, piece) {
				tags = append(tags, analysis.Tag{
					Name:    "threat.pin",
					Side:    c.Opponent().Name(),
					Squares: []string{squareName(pin.Attacker), squareName(pin.Pinned), squareName(pin.Target)},
					Pieces:  []string{pieceSymbolAt(pos, pin.Attacker), pieceSymbolAt(pos, pin.Pinned), pieceSymbolAt(pos, pin.Target)},
					Details: map[string]any{
						"attacker": squareName(pin.Attacker),
						"pinned":   squareName(pin.Pinned),
						"target":   squareName(pin.Target),
					},
				})
			}
		}
	}

	return tags
}
