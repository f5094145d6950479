package motif

import (
	"strings"

	"github.com/chessgpt/analysiscore/pkg/analysis"
)

var granularities = []string{"coarse", "mid", "fine"}

// aggregate accumulates occurrences of one distinct signature across all lines.
type aggregate struct {
	granularity     string
	length          int
	countTotal      int
	rootBranches    map[string]bool
	lineIDs         map[string]bool
	countByRootKind map[string]int
	examples        []analysis.MotifExample
}

// mineAggregates enumerates every contiguous window of every granularity's token projection,
// for every extracted line, and groups occurrences by signature.
func mineAggregates(lines []line, plyTokensByLine [][]plyTokens, policy Policy) map[string]*aggregate {
	aggs := map[string]*aggregate{}

	for li, l := range lines {
		plies := plyTokensByLine[li]
		for _, g := range granularities {
			maxL := policy.MaxPatternPlies
			if maxL > len(plies) {
				maxL = len(plies)
			}
			for length := 1; length <= maxL; length++ {
				for start := 0; start+length <= len(plies); start++ {
					sig := signatureFor(g, plies[start:start+length])
					agg, ok := aggs[sig]
					if !ok {
						agg = &aggregate{
							granularity:     g,
							length:          length,
							rootBranches:    map[string]bool{},
							lineIDs:         map[string]bool{},
							countByRootKind: map[string]int{},
						}
						aggs[sig] = agg
					}
					agg.countTotal++
					agg.rootBranches[l.rootMove] = true
					agg.lineIDs[l.id] = true
					agg.countByRootKind[l.rootKind]++
					if len(agg.examples) < 5 {
						agg.examples = append(agg.examples, analysis.MotifExample{
							LineID:    l.id,
							StartPly:  start + 1,
							Length:    length,
							SANWindow: append([]string{}, l.san[start:start+length]...),
						})
					}
				}
			}
		}
	}
	return aggs
}

func signatureFor(granularity string, window []plyTokens) string {
	var sb strings.Builder
	sb.WriteString("G=")
	sb.WriteString(granularity)
	sb.WriteString(" | ")
	for i, p := range window {
		if i > 0 {
			sb.WriteString(" / ")
		}
		sb.WriteString(strings.Join(p.forGranularity(granularity), ","))
	}
	return sb.String()
}
