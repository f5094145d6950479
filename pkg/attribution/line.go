package attribution

import (
	"fmt"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/analyzer"
	"github.com/chessgpt/analysiscore/pkg/board"
	"github.com/chessgpt/analysiscore/pkg/board/fen"
	"github.com/chessgpt/analysiscore/pkg/coreerr"
)

// DumpFunc fetches a static-evaluator dump for a FEN, e.g. enginepool.Pool.StaticEval.
type DumpFunc func(fenStr string) (analysis.NNUEDump, error)

// TrackLine walks movesSAN from startFEN, building the PieceIdentity set once at the start and
// updating it stepwise (never re-deriving identity from the board after a capture), sampling
// NNUE contributions and tag/role state at every ply. Identity is (colour, type, starting
// square): promotions change CurrentType but keep the same ID.
func TrackLine(startFEN string, movesSAN []string, fetch DumpFunc, cfg Config) (analysis.LineAttribution, error) {
	pos, turn, noprogress, fullmoves, err := fen.Decode(startFEN)
	if err != nil {
		return analysis.LineAttribution{}, coreerr.Wrap(coreerr.InvalidPosition, fmt.Sprintf("decode fen %q", startFEN), err)
	}

	identities := buildIdentities(pos)

	startDump, dumpErr := fetch(startFEN)
	nnueAvailable := dumpErr == nil && startDump.Available

	startTP, err := analyzer.Analyse(startFEN, pos, turn)
	if err != nil {
		return analysis.LineAttribution{}, err
	}
	startTags := tagNameSet(startTP)

	net := map[string]int{}
	curPos, curTurn := pos, turn
	curDump := startDump
	curTags := startTags
	var perPly []analysis.PlyDelta

	for i, san := range movesSAN {
		move, err := board.ParseSAN(curPos, curTurn, san)
		if err != nil {
			return analysis.LineAttribution{}, coreerr.Wrap(coreerr.InvalidPosition, fmt.Sprintf("ply %d: parse SAN %q", i+1, san), err)
		}

		capturedSquare, hasCapture := captureSquare(move)
		next, ok := curPos.Move(move)
		if !ok {
			return analysis.LineAttribution{}, coreerr.Wrap(coreerr.InvalidPosition, fmt.Sprintf("ply %d: illegal move %q", i+1, san), nil)
		}

		beforeIDs := snapshotDumpIDs(identities)

		if hasCapture {
			markCaptured(identities, capturedSquare, i+1)
		}
		applyMove(identities, move)

		afterIDs := snapshotDumpIDs(identities)

		if move.Piece == board.Pawn || hasCapture {
			noprogress = 0
		} else {
			noprogress++
		}
		if curTurn == board.Black {
			fullmoves++
		}

		afterFEN := fen.Encode(next, curTurn.Opponent(), noprogress, fullmoves)
		afterDump, dumpErr := fetch(afterFEN)
		if dumpErr != nil || !afterDump.Available {
			nnueAvailable = false
		}

		afterTP, err := analyzer.Analyse(afterFEN, next, curTurn.Opponent())
		if err != nil {
			return analysis.LineAttribution{}, err
		}
		afterTags := tagNameSet(afterTP)

		contributions := map[string]int{}
		if nnueAvailable {
			for id, ident := range identities {
				if ident.Captured && ident.CapturedAtPly < i+1 {
					continue
				}
				beforeID, hasBefore := beforeIDs[id]
				afterID, hasAfter := afterIDs[id]
				if !hasBefore || !hasAfter {
					continue
				}
				delta := afterDump.PerPiece[afterID] - curDump.PerPiece[beforeID]
				if delta != 0 {
					contributions[ident.ID] = delta
					net[ident.ID] += delta
				}
			}
		}

		beforeProfiles := BuildPieceProfiles(curPos, curDump, cfg)
		afterProfiles := BuildPieceProfiles(next, afterDump, cfg)
		roleDeltas := roleDeltasForPly(identities, beforeIDs, afterIDs, beforeProfiles, afterProfiles)

		perPly = append(perPly, analysis.PlyDelta{
			Ply:            i + 1,
			SAN:            san,
			ContributionCP: contributions,
			TagDeltas:      tagDeltas(curTags, afterTags),
			RoleDeltas:     roleDeltas,
		})

		curPos, curTurn, curDump, curTags = next, curTurn.Opponent(), afterDump, afterTags
	}

	gainedNet, lostNet := setDiff(startTags, curTags)

	return analysis.LineAttribution{
		StartFEN:       startFEN,
		EndFEN:         fen.Encode(curPos, curTurn, noprogress, fullmoves),
		NNUEAvailable:  nnueAvailable,
		PerPlyDeltas:   perPly,
		NetDeltasCP:    net,
		TagsGainedNet:  gainedNet,
		TagsLostNet:    lostNet,
		RolesGainedNet: netRoleDeltas(perPly, true),
		RolesLostNet:   netRoleDeltas(perPly, false),
	}, nil
}

func buildIdentities(pos *board.Position) map[string]*analysis.PieceIdentity {
	identities := map[string]*analysis.PieceIdentity{}
	for _, c := range []board.Color{board.White, board.Black} {
		for piece := board.ZeroPiece; piece < board.NumPieces; piece++ {
			for _, sq := range pos.Piece(c, piece).ToSquares() {
				id := board.PieceID(c, piece, sq)
				identities[id] = &analysis.PieceIdentity{
					ID:            id,
					Colour:        c.Name(),
					StartSquare:   squareNameOf(sq),
					CurrentSquare: squareNameOf(sq),
					StartType:     piece.Name(),
					CurrentType:   piece.Name(),
				}
			}
		}
	}
	return identities
}

func captureSquare(m board.Move) (board.Square, bool) {
	if sq, ok := m.EnPassantCapture(); ok {
		return sq, true
	}
	if m.IsCapture() {
		return m.To, true
	}
	return board.ZeroSquare, false
}

func markCaptured(identities map[string]*analysis.PieceIdentity, sq board.Square, ply int) {
	name := squareNameOf(sq)
	for _, ident := range identities {
		if !ident.Captured && ident.CurrentSquare == name {
			ident.Captured = true
			ident.CapturedAtPly = ply
		}
	}
}

func applyMove(identities map[string]*analysis.PieceIdentity, m board.Move) {
	fromName := squareNameOf(m.From)
	for _, ident := range identities {
		if ident.Captured || ident.CurrentSquare != fromName {
			continue
		}
		ident.CurrentSquare = squareNameOf(m.To)
		if m.IsPromotion() {
			ident.CurrentType = m.Promotion.Name()
		}
	}
	if rf, rt, ok := m.CastlingRookMove(); ok {
		rfName, rtName := squareNameOf(rf), squareNameOf(rt)
		for _, ident := range identities {
			if !ident.Captured && ident.CurrentSquare == rfName {
				ident.CurrentSquare = rtName
			}
		}
	}
}

// snapshotDumpIDs captures every live identity's current dump-keyed piece id (colour, current
// type, current square) at this instant, so a before/after pair taken around a mutation of
// `identities` reflects the square each identity actually occupied at sample time.
func snapshotDumpIDs(identities map[string]*analysis.PieceIdentity) map[string]string {
	snap := make(map[string]string, len(identities))
	for id, ident := range identities {
		if ident.Captured {
			continue
		}
		colour, _ := board.ParseColorName(ident.Colour)
		piece, _ := board.ParsePieceName(ident.CurrentType)
		sq, err := board.ParseSquareStr(ident.CurrentSquare)
		if err != nil {
			continue
		}
		snap[id] = board.PieceID(colour, piece, sq)
	}
	return snap
}

func tagNameSet(tp analysis.TaggedPosition) map[string]bool {
	set := map[string]bool{}
	for _, t := range tp.Tags {
		set[t.Name] = true
	}
	return set
}

func tagDeltas(before, after map[string]bool) []analysis.TagDelta {
	var deltas []analysis.TagDelta
	for name := range after {
		if !before[name] {
			deltas = append(deltas, analysis.TagDelta{Tag: name, Gained: true})
		}
	}
	for name := range before {
		if !after[name] {
			deltas = append(deltas, analysis.TagDelta{Tag: name, Gained: false})
		}
	}
	return deltas
}

func setDiff(start, end map[string]bool) (gained, lost []string) {
	for name := range end {
		if !start[name] {
			gained = append(gained, name)
		}
	}
	for name := range start {
		if !end[name] {
			lost = append(lost, name)
		}
	}
	return gained, lost
}

func roleDeltasForPly(identities map[string]*analysis.PieceIdentity, beforeIDs, afterIDs map[string]string,
	before, after map[string]analysis.PieceProfile) []analysis.RoleDelta {

	var deltas []analysis.RoleDelta
	for id, ident := range identities {
		beforeID, hasBefore := beforeIDs[id]
		afterID, hasAfter := afterIDs[id]
		if !hasBefore || !hasAfter {
			continue
		}
		beforeRole, ok1 := before[beforeID]
		afterRole, ok2 := after[afterID]
		if !ok1 || !ok2 || beforeRole.Role == afterRole.Role {
			continue
		}
		deltas = append(deltas, analysis.RoleDelta{PieceID: ident.ID, Role: beforeRole.Role, Gained: false})
		deltas = append(deltas, analysis.RoleDelta{PieceID: ident.ID, Role: afterRole.Role, Gained: true})
	}
	return deltas
}

func netRoleDeltas(perPly []analysis.PlyDelta, gained bool) []analysis.RoleDelta {
	var out []analysis.RoleDelta
	for _, ply := range perPly {
		for _, rd := range ply.RoleDeltas {
			if rd.Gained == gained {
				out = append(out, rd)
			}
		}
	}
	return out
}
