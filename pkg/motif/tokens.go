package motif

import (
	"sort"
	"strings"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/analyzer"
	"github.com/chessgpt/analysiscore/pkg/attribution"
	"github.com/chessgpt/analysiscore/pkg/board"
	"github.com/chessgpt/analysiscore/pkg/board/fen"
)

// plyTokens holds a line ply's tokens projected to each granularity, deduplicated and sorted.
type plyTokens struct {
	coarse []string
	mid    []string
	fine   []string
}

// buildPlyTokens replays a line's SAN sequence from its root FEN, emitting one plyTokens per
// successfully-parsed move. A move that fails to parse or apply terminates the line early,
// matching the "unparseable SAN truncates the PV" rule -- it never fails the request.
func buildPlyTokens(l line, cfg attribution.Config) []plyTokens {
	pos, turn, _, _, err := fen.Decode(l.rootFEN)
	if err != nil {
		return nil
	}

	beforeTP, err := analyzer.Analyse("", pos, turn)
	if err != nil {
		return nil
	}
	beforeProfiles := attribution.BuildPieceProfiles(pos, analysis.NNUEDump{}, cfg)
	beforeTags := nameSet(tagNames(beforeTP))
	beforeRoles := nameSet(roleNames(beforeProfiles))

	var out []plyTokens
	for _, san := range l.san {
		move, err := board.ParseSAN(pos, turn, san)
		if err != nil {
			break
		}
		next, ok := pos.Move(move)
		if !ok {
			break
		}
		nextTurn := turn.Opponent()

		afterTP, err := analyzer.Analyse("", next, nextTurn)
		if err != nil {
			break
		}
		afterProfiles := attribution.BuildPieceProfiles(next, analysis.NNUEDump{}, cfg)
		afterTags := nameSet(tagNames(afterTP))
		afterRoles := nameSet(roleNames(afterProfiles))

		out = append(out, buildPly(san, move, next, nextTurn, beforeTags, afterTags, beforeRoles, afterRoles))

		pos, turn = next, nextTurn
		beforeTags, beforeRoles = afterTags, afterRoles
	}
	return out
}

func buildPly(san string, move board.Move, next *board.Position, nextTurn board.Color,
	beforeTags, afterTags, beforeRoles, afterRoles map[string]bool) plyTokens {

	var fineTokens []string
	fineTokens = append(fineTokens, "SAN:"+san, "PIECE:"+move.Piece.Name())

	if move.IsCastle() {
		fineTokens = append(fineTokens, "TYPE:castle")
	}
	if move.IsCapture() {
		fineTokens = append(fineTokens, "TYPE:capture")
	}
	if move.IsPromotion() {
		fineTokens = append(fineTokens, "TYPE:promotion")
	}
	if next.IsChecked(nextTurn) {
		fineTokens = append(fineTokens, "TYPE:check")
	}

	var coarseTokens []string
	for _, t := range fineTokens {
		if strings.HasPrefix(t, "SAN:") || strings.HasPrefix(t, "TYPE:") {
			coarseTokens = append(coarseTokens, t)
		}
	}

	midTokens := append([]string{}, coarseTokens...)
	midTokens = append(midTokens, "PIECE:"+move.Piece.Name())

	for name := range diffAdded(beforeTags, afterTags) {
		fineTokens = append(fineTokens, "TAG+:"+name, "TAG+:"+bucketTagName(name))
		midTokens = append(midTokens, "TAG+:"+bucketTagName(name))
	}
	for name := range diffAdded(afterTags, beforeTags) {
		fineTokens = append(fineTokens, "TAG-:"+name, "TAG-:"+bucketTagName(name))
		midTokens = append(midTokens, "TAG-:"+bucketTagName(name))
	}
	for name := range diffAdded(beforeRoles, afterRoles) {
		fineTokens = append(fineTokens, "ROLE+:"+name)
		midTokens = append(midTokens, "ROLE+:"+name)
	}
	for name := range diffAdded(afterRoles, beforeRoles) {
		fineTokens = append(fineTokens, "ROLE-:"+name)
		midTokens = append(midTokens, "ROLE-:"+name)
	}

	return plyTokens{
		coarse: dedupSort(coarseTokens),
		mid:    dedupSort(midTokens),
		fine:   dedupSort(fineTokens),
	}
}

func (p plyTokens) forGranularity(g string) []string {
	switch g {
	case "coarse":
		return p.coarse
	case "mid":
		return p.mid
	default:
		return p.fine
	}
}

// bucketTagName collapses a dotted tag name to its first three components plus a ".*" suffix,
// e.g. "diagonal.open.long.a1h8" -> "diagonal.open.long.*". Names with three or fewer
// components are left unbucketed.
func bucketTagName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) <= 3 {
		return name
	}
	return strings.Join(parts[:3], ".") + ".*"
}

func tagNames(tp analysis.TaggedPosition) []string {
	names := make([]string, 0, len(tp.Tags))
	for _, t := range tp.Tags {
		names = append(names, t.Name)
	}
	return names
}

func roleNames(profiles map[string]analysis.PieceProfile) []string {
	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, string(p.Role))
	}
	return names
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// diffAdded returns the names present in b but not in a.
func diffAdded(a, b map[string]bool) map[string]bool {
	out := map[string]bool{}
	for n := range b {
		if !a[n] {
			out[n] = true
		}
	}
	return out
}

func dedupSort(tokens []string) []string {
	set := map[string]bool{}
	for _, t := range tokens {
		set[t] = true
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
