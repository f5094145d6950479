package investigator

import (
	"fmt"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/board"
	"github.com/chessgpt/analysiscore/pkg/board/fen"
)

// pushSAN applies a SAN move to fenStr and returns the resulting FEN, re-deriving the halfmove
// clock and fullmove counter the way a GUI replaying a game would.
func pushSAN(fenStr, san string) (string, error) {
	pos, turn, noprogress, fullmoves, err := fen.Decode(fenStr)
	if err != nil {
		return "", err
	}
	move, err := board.ParseSAN(pos, turn, san)
	if err != nil {
		return "", err
	}
	next, ok := pos.Move(move)
	if !ok {
		return "", fmt.Errorf("illegal move %q", san)
	}
	if move.Piece == board.Pawn || move.IsCapture() {
		noprogress = 0
	} else {
		noprogress++
	}
	if turn == board.Black {
		fullmoves++
	}
	return fen.Encode(next, turn.Opponent(), noprogress, fullmoves), nil
}

// shallowRanks maps each root move (the first SAN of each MultiPV line) to its 1-based rank
// within the shallow-depth MultiPV list, best first.
func shallowRanks(shallow analysis.EvaluationPair) map[string]int {
	ranks := map[string]int{}
	for _, v := range shallow.Variations {
		if len(v.PVSan) == 0 {
			continue
		}
		san := v.PVSan[0]
		if _, seen := ranks[san]; !seen {
			ranks[san] = v.Rank
		}
	}
	return ranks
}

// overestimatedMoves returns the shallow-search top-K moves (excluding the true best move) that
// the shallow search ranked better than the true best move, truncated to limit.
func overestimatedMoves(deep, shallow analysis.EvaluationPair, limit int) []string {
	bestSAN := firstMove(deep.Best)
	ranks := shallowRanks(shallow)
	bestShallowRank, bestRanked := ranks[bestSAN]
	if !bestRanked {
		return nil
	}

	var candidates []string
	for _, v := range shallow.Variations {
		san := firstMove(v)
		if san == "" || san == bestSAN {
			continue
		}
		if v.Rank < bestShallowRank {
			candidates = append(candidates, san)
		}
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

func firstMove(v analysis.Variation) string {
	if len(v.PVSan) == 0 {
		return ""
	}
	return v.PVSan[0]
}

func truncatePV(pv []string, max int) []string {
	if len(pv) > max {
		return pv[:max]
	}
	return pv
}
