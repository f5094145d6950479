package attribution

import (
	"strings"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/analyzer"
	"github.com/chessgpt/analysiscore/pkg/board"
	"github.com/chessgpt/analysiscore/pkg/eval"
)

// keySquares is the extended central box (c3-f6) whose control counts toward "dominant".
var keySquares = func() board.Bitboard {
	var bb board.Bitboard
	for f := board.FileF; f <= board.FileC; f++ {
		for r := board.Rank3; r <= board.Rank6; r++ {
			bb |= board.BitMask(board.NewSquare(f, r))
		}
	}
	return bb
}()

// homeSquares returns the standard starting squares for a piece type and colour, used by the
// "undeveloped" role test. Pawns and kings are excluded: pawns are never undeveloped in this
// vocabulary, and the king has no meaningful "developed" state.
func homeSquares(c board.Color, piece board.Piece) board.Bitboard {
	rank := board.Rank1
	if c == board.Black {
		rank = board.Rank8
	}
	switch piece {
	case board.Knight:
		return board.BitMask(board.NewSquare(board.FileB, rank)) | board.BitMask(board.NewSquare(board.FileG, rank))
	case board.Bishop:
		return board.BitMask(board.NewSquare(board.FileC, rank)) | board.BitMask(board.NewSquare(board.FileF, rank))
	case board.Rook:
		return board.BitMask(board.NewSquare(board.FileA, rank)) | board.BitMask(board.NewSquare(board.FileH, rank))
	case board.Queen:
		return board.BitMask(board.NewSquare(board.FileD, rank))
	default:
		return board.EmptyBitboard
	}
}

// controlledSquares returns the squares piece at sq (colour c) attacks or defends.
func controlledSquares(pos *board.Position, c board.Color, piece board.Piece, sq board.Square) board.Bitboard {
	if piece == board.Pawn {
		return board.PawnCaptureboard(c, board.BitMask(sq))
	}
	return board.Attackboard(pos.Rotated(), sq, piece)
}

// isPinned reports whether the piece at sq is the pinned member of an absolute pin.
func isPinned(pos *board.Position, c board.Color, piece board.Piece, sq board.Square) bool {
	for _, pin := range eval.FindPins(pos, c, board.King) {
		if pin.Pinned == sq {
			return true
		}
	}
	return false
}

// BuildPieceProfiles computes the PieceProfile for every piece on the board, keyed by the
// dump's piece-id format ("<colour>_<type>_<square>", current square). dump.Available=false is
// handled: NNUE contributions are left at zero and role classification proceeds on legal-move
// counts, key-square control, and coordination alone.
func BuildPieceProfiles(pos *board.Position, dump analysis.NNUEDump, cfg Config) map[string]analysis.PieceProfile {
	phase := analyzer.Phase(pos)
	profiles := map[string]analysis.PieceProfile{}

	for _, c := range []board.Color{board.White, board.Black} {
		legal := pos.LegalMoves(c)

		for piece := board.ZeroPiece; piece < board.NumPieces; piece++ {
			for _, sq := range pos.Piece(c, piece).ToSquares() {
				id := board.PieceID(c, piece, sq)
				profiles[id] = buildProfile(pos, c, piece, sq, id, phase, dump, cfg, legal)
			}
		}
	}
	return profiles
}

func buildProfile(pos *board.Position, c board.Color, piece board.Piece, sq board.Square, id string,
	phase analyzer.GamePhase, dump analysis.NNUEDump, cfg Config, legal []board.Move) analysis.PieceProfile {

	controlled := controlledSquares(pos, c, piece, sq)
	own := controlled & pos.Color(c)
	enemy := controlled & pos.Color(c.Opponent())

	var controlledSq, defends, attacks []string
	for _, s := range controlled.ToSquares() {
		controlledSq = append(controlledSq, squareNameOf(s))
	}
	for _, s := range own.ToSquares() {
		defends = append(defends, pieceSymbolID(pos, s))
	}
	for _, s := range enemy.ToSquares() {
		attacks = append(attacks, pieceSymbolID(pos, s))
	}

	moveCount := 0
	for _, m := range legal {
		if m.From == sq {
			moveCount++
		}
	}

	classicalCP := 0
	nnueCP := 0
	if dump.Available {
		nnueCP = dump.PerPiece[id]
		classicalCP = pieceClassicalShare(pos, c, piece, sq, dump, legal)
	}

	role := classifyRole(pos, c, piece, sq, phase, moveCount, (keySquares&controlled).PopCount(),
		len(enemy.ToSquares()), classicalCP, len(own.ToSquares()), cfg)

	return analysis.PieceProfile{
		PieceID:            id,
		Role:               role,
		NNUEContributionCP: nnueCP,
		ClassicalCP:        classicalCP,
		ControlledSquares:  controlledSq,
		Defends:            defends,
		Attacks:            attacks,
	}
}

func classifyRole(pos *board.Position, c board.Color, piece board.Piece, sq board.Square, phase analyzer.GamePhase,
	moveCount, keySquareCount, enemyAttacked, classicalCP, friendlyDefended int, cfg Config) analysis.Role {

	if phase == analyzer.Opening && piece != board.Pawn && piece != board.King && homeSquares(c, piece).IsSet(sq) {
		return analysis.RoleUndeveloped
	}
	if moveCount < cfg.PassiveMoveThreshold {
		return analysis.RolePassive
	}
	if isPinned(pos, c, piece, sq) {
		// A pinned piece cannot dominate or attack meaningfully: fall through to defender/active/restricted.
		if friendlyDefended >= cfg.DefenderFriendlyCount {
			return analysis.RoleDefender
		}
		if moveCount > cfg.ActiveMoveThreshold {
			return analysis.RoleActive
		}
		return analysis.RoleRestricted
	}
	if keySquareCount >= cfg.DominantKeySquares {
		return analysis.RoleDominant
	}
	if enemyAttacked >= cfg.AttackerEnemyCount || classicalCP >= cfg.AttackerClassicalCP {
		return analysis.RoleAttacker
	}
	if friendlyDefended >= cfg.DefenderFriendlyCount {
		return analysis.RoleDefender
	}
	if moveCount > cfg.ActiveMoveThreshold {
		return analysis.RoleActive
	}
	return analysis.RoleRestricted
}

// pieceClassicalShare apportions the dump's MOBILITY and THREAT terms to a piece in proportion
// to its own legal-move share of its side's total mobility. A coarse but deterministic stand-in
// for a true per-piece classical-term breakdown, which the engine protocol does not expose.
func pieceClassicalShare(pos *board.Position, c board.Color, piece board.Piece, sq board.Square, dump analysis.NNUEDump, legal []board.Move) int {
	own := 0
	total := 0
	for _, m := range legal {
		total++
		if m.From == sq {
			own++
		}
	}
	if total == 0 {
		return 0
	}
	share := float64(own) / float64(total)
	return int(share * float64(dump.PerTerm[analysis.TermMobility]+dump.PerTerm[analysis.TermThreat]))
}

func squareNameOf(sq board.Square) string {
	return strings.ToLower(sq.String())
}

func pieceSymbolID(pos *board.Position, sq board.Square) string {
	c, p, ok := pos.Square(sq)
	if !ok {
		return ""
	}
	return board.PieceID(c, p, sq)
}
