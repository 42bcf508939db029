// Package selector implements the ASAP pair-selection heuristic (C2):
// scoring every candidate pair by a closed-form expected-information-gain
// surrogate and recommending the argmax, plus the coverage and
// convergence statistics derived from the same posterior.
package selector

import (
	"math"
	"sort"

	"github.com/pairrank/pairrank/internal/model"
	"github.com/pairrank/pairrank/internal/rating"
)

const (
	// k1 scales outcome-uncertainty decay with |mu_i - mu_j|.
	k1 = 10.0
	// k2 scales the posterior-uncertainty contribution.
	k2 = 20.0
)

// EIG is the expected-information-gain surrogate for a candidate pair
// (i, j), given their current beliefs: it combines outcome uncertainty
// (maximal when the predicted win probability is near 1/2, i.e. |delta|
// small) with posterior uncertainty (high sigma^2 on either item).
func EIG(i, j rating.Belief) float64 {
	delta := i.Mu - j.Mu
	outcomeTerm := math.Exp(-math.Abs(delta) / k1)
	uncertaintyTerm := math.Sqrt(i.Variance+j.Variance) / k2
	return outcomeTerm * uncertaintyTerm
}

// Pair is an unordered candidate pair with its EIG score.
type Pair struct {
	A, B string
	EIG  float64
}

// Next returns the argmax-EIG pair over all unordered pairs drawn from
// items, breaking ties lexicographically by (content_i, content_j) with
// the smaller content first so the recommendation is deterministic for
// identical state. Returns false when fewer than two items are present.
func Next(items []string, beliefs map[string]rating.Belief) (Pair, bool) {
	if len(items) < 2 {
		return Pair{}, false
	}

	sorted := make([]string, len(items))
	copy(sorted, items)
	sort.Strings(sorted)

	best := Pair{}
	found := false
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			score := EIG(beliefs[a], beliefs[b])
			if !found || score > best.EIG || (score == best.EIG && less(a, b, best.A, best.B)) {
				best = Pair{A: a, B: b, EIG: score}
				found = true
			}
		}
	}
	return best, found
}

// less reports whether (a,b) lexicographically precedes (c,d).
func less(a, b, c, d string) bool {
	if a != c {
		return a < c
	}
	return b < d
}

// PossiblePairs returns n*(n-1)/2 for n items.
func PossiblePairs(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// UniquePairs counts distinct unordered pairs appearing in comparisons.
// Self-comparisons contribute no pair.
func UniquePairs(comparisons []model.Comparison) int {
	seen := make(map[[2]string]struct{})
	for _, c := range comparisons {
		if c.TaskA == c.TaskB {
			continue
		}
		a, b := c.TaskA, c.TaskB
		if b < a {
			a, b = b, a
		}
		seen[[2]string{a, b}] = struct{}{}
	}
	return len(seen)
}

// Stats computes the full set of derived statistics for a list given
// its items, comparison log, and current beliefs.
func Stats(items []string, comparisons []model.Comparison, beliefs map[string]rating.Belief) model.Stats {
	possible := PossiblePairs(len(items))
	unique := UniquePairs(comparisons)

	var coverage float64
	if possible > 0 {
		coverage = float64(unique) / float64(possible)
	}

	var meanVariance float64
	if len(items) > 0 {
		var sum float64
		for _, item := range items {
			sum += beliefs[item].Variance
		}
		meanVariance = sum / float64(len(items))
	}
	convergence := math.Max(0, 1-meanVariance/rating.PriorVariance)

	var maxGain float64
	var optimal *[2]string
	if pair, ok := Next(items, beliefs); ok {
		maxGain = pair.EIG
		optimal = &[2]string{pair.A, pair.B}
	}

	return model.Stats{
		TotalComparisons:     len(comparisons),
		UniquePairs:          unique,
		PossiblePairs:        possible,
		Coverage:             coverage,
		Convergence:          convergence,
		MeanVariance:         meanVariance,
		MaxInformationGain:   maxGain,
		OptimalNextPair:      optimal,
		InitialVariance:      rating.PriorVariance,
		PriorPrecision:       rating.PriorPrecision,
		ConvergenceThreshold: rating.ConvergenceThreshold,
	}
}
