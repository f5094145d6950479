package motif

import (
	"sort"
	"strings"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/analyzer"
	"github.com/chessgpt/analysiscore/pkg/board/fen"
)

// TagRelevance is one entry of the evidence line's optional NNUE-driven tag relevance enrichment.
type TagRelevance struct {
	TagName            string
	Relevance          float64
	PieceContributions map[string]int // piece id -> NNUE contribution delta, at most 8 entries
}

// tagWeightBase gives the base relevance of a tag category to a piece type; categories or piece
// types absent from the table fall back to a small default (or zero for an unknown category,
// meaning that tag never contributes to relevance).
var tagWeightBase = map[string]map[string]float64{
	"diagonal": {"bishop": 1.0, "queen": 0.6},
	"rook":     {"rook": 1.0},
	"file":     {"rook": 1.0, "queen": 0.5},
	"king":     {"king": 1.0},
	"pawn":     {"pawn": 1.0},
	"outpost":  {"knight": 1.0, "bishop": 0.6},
	"square":   {},
	"threat":   {},
}

func tagWeight(tagName, pieceType string, phase analyzer.GamePhase) float64 {
	category := strings.SplitN(tagName, ".", 2)[0]
	base, ok := tagWeightBase[category]
	if !ok {
		return 0
	}
	w, ok := base[pieceType]
	if !ok {
		switch category {
		case "threat":
			w = 0.8
		case "square":
			w = 0.3
		default:
			w = 0.1
		}
	}
	switch phase {
	case analyzer.Opening:
		if category == "pawn" || category == "outpost" || category == "diagonal" {
			w *= 1.3
		}
	case analyzer.Endgame:
		if category == "king" || category == "pawn" {
			w *= 1.3
		}
	}
	return w
}

// EnrichEvidenceTagRelevance computes the optional per-tag relevance enrichment for the evidence
// line (spec's "NNUE tag relevance on the evidence line"): for each tag gained or lost net over
// the line, every piece whose starting square matches one of the tag's squares contributes
// |net NNUE delta| * |tag_weight|; tags are ranked by total relevance and the top twelve are kept,
// each capped to its eight largest-magnitude piece contributions.
//
// Piece identity is matched by starting square only: LineAttribution exposes net contribution
// keyed by the piece's stable (colour, type, start square) id, not the full per-ply start/end
// square history, so this is an approximation of the spec's "start or end square" match rather
// than a literal one.
func EnrichEvidenceTagRelevance(evidence analysis.EvidenceLine) []TagRelevance {
	if !evidence.Attribution.NNUEAvailable {
		return nil
	}
	pos, _, _, _, err := fen.Decode(evidence.StartingFEN)
	if err != nil {
		return nil
	}
	phase := analyzer.Phase(pos)

	startTP, err := analyzer.AnalyseFEN(evidence.StartingFEN)
	if err != nil {
		return nil
	}
	endTP, err := analyzer.AnalyseFEN(evidence.EndFEN)
	if err != nil {
		return nil
	}
	tagsByName := map[string]analysis.Tag{}
	for _, t := range startTP.Tags {
		tagsByName[t.Name] = t
	}
	for _, t := range endTP.Tags {
		if _, ok := tagsByName[t.Name]; !ok {
			tagsByName[t.Name] = t
		}
	}

	changed := append(append([]string{}, evidence.Attribution.TagsGainedNet...), evidence.Attribution.TagsLostNet...)

	var out []TagRelevance
	for _, name := range changed {
		tag, ok := tagsByName[name]
		if !ok {
			continue
		}
		squareSet := map[string]bool{}
		for _, sq := range tag.Squares {
			squareSet[sq] = true
		}

		contributions := map[string]int{}
		var total float64
		for pieceID, delta := range evidence.Attribution.NetDeltasCP {
			_, pieceType, startSquare, ok := splitPieceID(pieceID)
			if !ok || !squareSet[startSquare] {
				continue
			}
			w := tagWeight(name, pieceType, phase)
			if w == 0 {
				continue
			}
			total += float64(absInt(delta)) * absFloat(w)
			contributions[pieceID] = delta
		}
		if total == 0 {
			continue
		}
		out = append(out, TagRelevance{TagName: name, Relevance: total, PieceContributions: capContributions(contributions, 8)})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Relevance != out[j].Relevance {
			return out[i].Relevance > out[j].Relevance
		}
		return out[i].TagName < out[j].TagName
	})
	if len(out) > 12 {
		out = out[:12]
	}
	return out
}

func splitPieceID(id string) (colour, pieceType, square string, ok bool) {
	parts := strings.SplitN(id, "_", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func capContributions(m map[string]int, max int) map[string]int {
	if len(m) <= max {
		return m
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return absInt(m[keys[i]]) > absInt(m[keys[j]])
	})
	out := map[string]int{}
	for _, k := range keys[:max] {
		out[k] = m[k]
	}
	return out
}
