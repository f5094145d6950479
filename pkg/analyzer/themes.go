package analyzer

import (
	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/board"
)

// computeThemeScores produces a heuristic subscore per side for each theme in the closed
// vocabulary. Scores are unitless and only meaningful relative to each other: the Motif Builder
// and investigator compare deltas across positions in a line, not absolute magnitudes.
func computeThemeScores(pos *board.Position, turn board.Color) analysis.ThemeScores {
	white := map[string]float64{}
	black := map[string]float64{}
	for _, name := range analysis.ThemeNames {
		white[name] = 0
		black[name] = 0
	}

	white["center_space"] = centerControl(pos, board.White)
	black["center_space"] = centerControl(pos, board.Black)

	white["piece_activity"] = float64(mobilityCount(pos, board.White))
	black["piece_activity"] = float64(mobilityCount(pos, board.Black))

	white["development"] = developmentScore(pos, board.White)
	black["development"] = developmentScore(pos, board.Black)

	white["pawn_structure"] = pawnStructureScore(pos, board.White)
	black["pawn_structure"] = pawnStructureScore(pos, board.Black)

	white["king_safety"] = kingSafetyScore(pos, board.White)
	black["king_safety"] = kingSafetyScore(pos, board.Black)

	white["colour_complex"] = float64(pos.Piece(board.White, board.Bishop).PopCount())
	black["colour_complex"] = float64(pos.Piece(board.Black, board.Bishop).PopCount())

	white["lanes"] = openLaneScore(pos, board.White)
	black["lanes"] = openLaneScore(pos, board.Black)

	white["promotion_assets"] = promotionAssetScore(pos, board.White)
	black["promotion_assets"] = promotionAssetScore(pos, board.Black)

	white["tactics"] = 0
	black["tactics"] = 0
	for _, t := range tacticalThreatTags(pos, turn) {
		switch t.Side {
		case "white":
			white["tactics"]++
		case "black":
			black["tactics"]++
		}
	}
	white["threats"] = white["tactics"]
	black["threats"] = black["tactics"]

	white["local_imbalances"] = bishopPairScore(pos, board.White)
	black["local_imbalances"] = bishopPairScore(pos, board.Black)

	white["structural_breaks"] = pawnLeverScore(pos, board.White)
	black["structural_breaks"] = pawnLeverScore(pos, board.Black)

	white["prophylaxis"] = kingPressureScore(pos, board.White)
	black["prophylaxis"] = kingPressureScore(pos, board.Black)

	white["trades"] = tradeOfferScore(pos, board.White)
	black["trades"] = tradeOfferScore(pos, board.Black)

	return analysis.ThemeScores{White: white, Black: black}
}

func centerControl(pos *board.Position, c board.Color) float64 {
	center := []board.Square{
		board.NewSquare(board.FileD, board.Rank4),
		board.NewSquare(board.FileD, board.Rank5),
		board.NewSquare(board.FileE, board.Rank4),
		board.NewSquare(board.FileE, board.Rank5),
	}

	score := 0.0
	for _, sq := range center {
		if pos.Color(c).IsSet(sq) {
			score++
		}
		if attacks(pos, c, sq) {
			score += 0.5
		}
	}
	return score
}

func mobilityCount(pos *board.Position, c board.Color) int {
	total := 0
	for _, piece := range board.KingQueenRookKnightBishop {
		for _, sq := range pos.Piece(c, piece).ToSquares() {
			total += board.Attackboard(pos.Rotated(), sq, piece).PopCount()
		}
	}
	total += board.PawnCaptureboard(c, pos.Piece(c, board.Pawn)).PopCount()
	return total
}

// developmentScore scores +1 for each knight or bishop off its home rank and -1 for each still on it.
func developmentScore(pos *board.Position, c board.Color) float64 {
	homeRank := board.Rank1
	if c == board.Black {
		homeRank = board.Rank8
	}

	developed := 0
	total := 0
	for _, piece := range []board.Piece{board.Knight, board.Bishop} {
		for _, sq := range pos.Piece(c, piece).ToSquares() {
			total++
			if sq.Rank() != homeRank {
				developed++
			}
		}
	}
	return float64(developed - (total - developed))
}

// pawnStructureScore rewards passed pawns and penalizes doubled pawns.
func pawnStructureScore(pos *board.Position, c board.Color) float64 {
	score := 0.0
	for _, sq := range pos.Piece(c, board.Pawn).ToSquares() {
		if isPassedPawn(pos, c, sq) {
			score += 1
		}
	}
	for f := board.ZeroFile; f < board.NumFiles; f++ {
		count := (pos.Piece(c, board.Pawn) & board.BitFile(f)).PopCount()
		if count > 1 {
			score -= float64(count - 1)
		}
	}
	return score
}

func kingSafetyScore(pos *board.Position, c board.Color) float64 {
	kingSq := pos.Piece(c, board.King).LastPopSquare()
	shield := 0
	for _, f := range adjacentFiles(kingSq.File()) {
		ahead := ranksAhead(c, kingSq.Rank())
		if len(ahead) == 0 {
			continue
		}
		if pos.Piece(c, board.Pawn).IsSet(board.NewSquare(f, ahead[0])) {
			shield++
		}
	}

	exposure := 0.0
	for _, sq := range board.KingAttackboard(kingSq).ToSquares() {
		if attacks(pos, c.Opponent(), sq) {
			exposure++
		}
	}
	return float64(shield) - exposure
}

func openLaneScore(pos *board.Position, c board.Color) float64 {
	score := 0.0
	for f := board.ZeroFile; f < board.NumFiles; f++ {
		mask := board.BitFile(f)
		if (pos.Piece(c, board.Pawn) & mask).PopCount() == 0 {
			score += float64((pos.Piece(c, board.Rook) | pos.Piece(c, board.Queen)).PopCount())
		}
	}
	return score
}

// bishopPairScore credits the side that holds both bishops against an opponent that doesn't,
// a coarse stand-in for the broader notion of which side owns the favorable minor-piece imbalance.
func bishopPairScore(pos *board.Position, c board.Color) float64 {
	if pos.Piece(c, board.Bishop).PopCount() >= 2 && pos.Piece(c.Opponent(), board.Bishop).PopCount() < 2 {
		return 1
	}
	return 0
}

// pawnLeverScore counts enemy pawns that this side's pawns attack, i.e. pawns that can be
// captured to resolve the structure.
func pawnLeverScore(pos *board.Position, c board.Color) float64 {
	score := 0.0
	ahead := board.PawnCaptureboard(c, pos.Piece(c, board.Pawn))
	score += float64((ahead & pos.Piece(c.Opponent(), board.Pawn)).PopCount())
	return score
}

// kingPressureScore counts squares around the opponent's king that this side attacks, a coarse
// proxy for restricting the opponent's plans around their own king.
func kingPressureScore(pos *board.Position, c board.Color) float64 {
	oppKingSq := pos.Piece(c.Opponent(), board.King).LastPopSquare()
	score := 0.0
	for _, sq := range board.KingAttackboard(oppKingSq).ToSquares() {
		if attacks(pos, c, sq) {
			score++
		}
	}
	return score
}

// tradeOfferScore counts, over this side's minor and major pieces, each attacked enemy piece of
// equal or greater value, a coarse signal for how many trades the side could initiate.
func tradeOfferScore(pos *board.Position, c board.Color) float64 {
	score := 0.0
	for _, piece := range board.KingQueenRookKnightBishop {
		if piece == board.King {
			continue
		}
		for _, sq := range pos.Piece(c, piece).ToSquares() {
			targets := board.Attackboard(pos.Rotated(), sq, piece) & pos.Color(c.Opponent())
			for _, t := range targets.ToSquares() {
				_, target, ok := pos.Square(t)
				if ok && pieceWeight(target) >= pieceWeight(piece) {
					score++
				}
			}
		}
	}
	return score
}

var pieceWeights = map[board.Piece]int{
	board.Pawn: 1, board.Knight: 3, board.Bishop: 3, board.Rook: 5, board.Queen: 9, board.King: 0,
}

func pieceWeight(p board.Piece) int {
	return pieceWeights[p]
}

func promotionAssetScore(pos *board.Position, c board.Color) float64 {
	score := 0.0
	for _, sq := range pos.Piece(c, board.Pawn).ToSquares() {
		if !isPassedPawn(pos, c, sq) {
			continue
		}
		if c == board.White {
			score += float64(sq.Rank())
		} else {
			score += float64(board.Rank8 - sq.Rank())
		}
	}
	return score
}
