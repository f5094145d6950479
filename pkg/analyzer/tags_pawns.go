package analyzer

import (
	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/board"
)

// passedPawnTags reports pawns with no enemy pawn on their own or an adjacent file ahead of them.
func passedPawnTags(pos *board.Position) []analysis.Tag {
	var tags []analysis.Tag

	for _, c := range colors {
		for _, sq := range pos.Piece(c, board.Pawn).ToSquares() {
			if !isPassedPawn(pos, c, sq) {
				continue
			}
			tags = append(tags, analysis.Tag{
				Name:    "pawn.passed",
				Side:    c.Name(),
				Squares: []string{squareName(sq)},
				Pieces:  []string{pieceSymbol(c, board.Pawn) + squareName(sq)},
				Details: map[string]any{"rank": int(sq.Rank())},
			})
		}
	}

	return tags
}

func isPassedPawn(pos *board.Position, c board.Color, sq board.Square) bool {
	enemyPawns := pos.Piece(c.Opponent(), board.Pawn)

	var mask board.Bitboard
	for _, f := range adjacentFiles(sq.File()) {
		for _, r := range ranksAhead(c, sq.Rank()) {
			mask |= board.BitMask(board.NewSquare(f, r))
		}
	}
	return enemyPawns&mask == 0
}

// outpostTags reports knights and bishops planted in enemy territory, defended by a pawn, on a
// square no enemy pawn can ever challenge.
func outpostTags(pos *board.Position) []analysis.Tag {
	var tags []analysis.Tag

	for _, c := range colors {
		for _, piece := range []board.Piece{board.Knight, board.Bishop} {
			for _, sq := range pos.Piece(c, piece).ToSquares() {
				if !isOutpost(pos, c, sq) {
					continue
				}
				tags = append(tags, analysis.Tag{
					Name:    "outpost." + piece.Name(),
					Side:    c.Name(),
					Squares: []string{squareName(sq)},
					Pieces:  []string{pieceSymbolAt(pos, sq)},
				})
			}
		}
	}

	return tags
}

func isOutpost(pos *board.Position, c board.Color, sq board.Square) bool {
	if !inEnemyTerritory(c, sq.Rank()) {
		return false
	}
	if !board.PawnCaptureboard(c, pos.Piece(c, board.Pawn)).IsSet(sq) {
		return false // not pawn-defended
	}
	return !canBeChallengedByEnemyPawn(pos, c, sq)
}

func inEnemyTerritory(c board.Color, r board.Rank) bool {
	if c == board.White {
		return r >= board.Rank4 && r <= board.Rank6
	}
	return r >= board.Rank3 && r <= board.Rank5
}

// canBeChallengedByEnemyPawn reports whether an enemy pawn on an adjacent file could still
// advance to attack sq, including one already sitting in capturing range.
func canBeChallengedByEnemyPawn(pos *board.Position, c board.Color, sq board.Square) bool {
	opp := c.Opponent()
	enemyPawns := pos.Piece(opp, board.Pawn)

	var mask board.Bitboard
	for _, f := range adjacentFiles(sq.File()) {
		if f == sq.File() {
			continue
		}
		for _, r := range ranksAhead(c, sq.Rank()) {
			mask |= board.BitMask(board.NewSquare(f, r))
		}
	}
	return enemyPawns&mask != 0
}

// ownPawnCanEverDefend reports whether an own pawn on an adjacent file, now or after advancing,
// could ever defend sq.
func ownPawnCanEverDefend(pos *board.Position, c board.Color, sq board.Square) bool {
	return canBeChallengedByEnemyPawn(pos, c.Opponent(), sq)
}

// weakSquareTags reports empty squares around a king that no own pawn can ever cover and that
// the opponent currently attacks -- permanent holes in the king's defensive cover.
func weakSquareTags(pos *board.Position) []analysis.Tag {
	var tags []analysis.Tag

	for _, c := range colors {
		kingSq := pos.Piece(c, board.King).LastPopSquare()
		for _, sq := range board.KingAttackboard(kingSq).ToSquares() {
			if !pos.IsEmpty(sq) {
				continue
			}
			if ownPawnCanEverDefend(pos, c, sq) {
				continue
			}
			if !attacks(pos, c.Opponent(), sq) {
				continue
			}
			tags = append(tags, analysis.Tag{
				Name:    "square.weak",
				Side:    c.Name(),
				Squares: []string{squareName(sq)},
			})
		}
	}

	return tags
}
