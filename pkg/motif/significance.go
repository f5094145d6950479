package motif

import (
	"math"

	"github.com/chessgpt/analysiscore/pkg/analysis"
	"github.com/chessgpt/analysiscore/pkg/analyzer"
)

// z-score typical-value tables, in the style of significance_scorer.py's TYPICAL_VALUES: a fixed
// mean/std-dev pair per metric, combined into one composite z-score per motif rather than the
// single-metric scores the original computes, since a motif has no direct Python analogue.
var (
	countTypical        = typicalValue{mean: 3.0, stdDev: 4.0}
	lengthTypical       = typicalValue{mean: 2.0, stdDev: 1.0}
	concentrationTypical = typicalValue{mean: 0.5, stdDev: 0.25}
)

type typicalValue struct {
	mean, stdDev float64
}

// zScore is significance_scorer.py's _calculate_z_score: absolute distance from the mean in
// standard deviations.
func zScore(value float64, t typicalValue) float64 {
	if t.stdDev <= 0 {
		return 0
	}
	return math.Abs(value-t.mean) / t.stdDev
}

// zScoreToSignificance is significance_scorer.py's _z_score_to_significance curve, adopted
// verbatim: a sigmoid-like mapping from unbounded z-score to a 0-100 score.
func zScoreToSignificance(z float64) float64 {
	return 100 * (1 - math.Exp(-z/2))
}

// granularityWeight depends on game phase: opening favours coarse/mid (the position hasn't
// differentiated enough for fine patterns to be meaningful yet), middlegame/endgame favour fine.
func granularityWeight(granularity string, phase analyzer.GamePhase) float64 {
	opening := phase == analyzer.Opening
	switch granularity {
	case "fine":
		if opening {
			return 0.7
		}
		return 1.5
	default: // coarse, mid
		if opening {
			return 1.5
		}
		return 0.8
	}
}

// significanceOf scores one motif aggregate. The composite z-score folds in occurrence count,
// pattern length, and root-branch concentration (scored on one minus the share of root moves the
// motif recurs under; like the other terms it is a distance from its typical value, so an unusually
// high or unusually low share both raise it), then applies the phase-dependent granularity weight
// before the final 0-100 transform.
func significanceOf(agg *aggregate, totalRoots int, phase analyzer.GamePhase) float64 {
	countZ := zScore(float64(agg.countTotal), countTypical)
	lengthZ := zScore(float64(agg.length), lengthTypical)

	concentration := 1.0
	if totalRoots > 0 {
		concentration = float64(len(agg.rootBranches)) / float64(totalRoots)
	}
	concentrationZ := zScore(1-concentration, concentrationTypical)

	z := (countZ + lengthZ + concentrationZ) * granularityWeight(agg.granularity, phase)
	return zScoreToSignificance(z)
}

// classify labels a motif hidden_tactic_candidate when most of its occurrences are under
// overrated (overestimated_root) lines and its root-branch concentration is low.
func classify(agg *aggregate, totalRoots int) analysis.MotifClass {
	overrated := agg.countByRootKind[rootKindOverestimated]
	majorityOverrated := overrated*2 > agg.countTotal

	threshold := totalRoots / 3
	if threshold < 2 {
		threshold = 2
	}
	lowConcentration := len(agg.rootBranches) <= threshold

	if majorityOverrated && lowConcentration {
		return analysis.MotifHiddenTacticCandidate
	}
	return analysis.MotifStrategic
}
