// Package rating implements the Thurstonian pairwise rating model (C1):
// a coordinate-wise Gaussian moment-matching update in the style of
// TrueSkill, with a fixed performance-noise term and no dynamics term.
package rating

import (
	"math"

	"github.com/pairrank/pairrank/internal/model"
)

const (
	// PriorMean is every item's merit at creation.
	PriorMean = 0.0
	// PriorVariance is every item's variance at creation (reported to
	// clients as initial_variance).
	PriorVariance = 0.5
	// PriorPrecision is the shrinkage floor: no item's variance may fall
	// below PriorPrecision itself (reported to clients as prior_precision).
	PriorPrecision = 0.02
	// ConvergenceThreshold is reported to clients; consumed by the stats
	// layer only, not by this package.
	ConvergenceThreshold = 1e-3
	// Beta2 is the fixed performance-noise variance per comparison.
	Beta2 = 0.5

	varianceFloor = PriorPrecision
)

// Belief is an item's posterior: a Gaussian over its latent merit.
type Belief struct {
	Mu       float64
	Variance float64
}

// NewBelief returns the prior belief assigned to every item at creation.
func NewBelief() Belief {
	return Belief{Mu: PriorMean, Variance: PriorVariance}
}

// ConfidenceInterval returns the 90% credible interval [lo, hi] implied
// by b, i.e. mu +/- 1.645*sigma.
func (b Belief) ConfidenceInterval() (lo, hi float64) {
	sigma := math.Sqrt(b.Variance)
	return b.Mu - 1.645*sigma, b.Mu + 1.645*sigma
}

// Evaluate replays comparisons in order, starting every item named in
// items from the prior, and returns the resulting posterior per item.
// Evaluation is deterministic for a fixed comparison order: replaying
// the same comparisons in the same order always yields the same
// beliefs, which is what lets a deleted item force a full replay rather
// than an incremental retraction.
func Evaluate(items []string, comparisons []model.Comparison) map[string]Belief {
	beliefs := make(map[string]Belief, len(items))
	for _, item := range items {
		beliefs[item] = NewBelief()
	}
	for _, c := range comparisons {
		Update(beliefs, c)
	}
	return beliefs
}

// Update applies one comparison's effect to beliefs in place. Missing
// entries for TaskA/TaskB are seeded with the prior before the update,
// so callers may also use Update incrementally (append-only logs never
// need a full replay). Self-comparisons register their item with no
// information update.
func Update(beliefs map[string]Belief, c model.Comparison) {
	if _, ok := beliefs[c.TaskA]; !ok {
		beliefs[c.TaskA] = NewBelief()
	}
	if _, ok := beliefs[c.TaskB]; !ok {
		beliefs[c.TaskB] = NewBelief()
	}
	if c.IsSelfComparison() {
		return
	}

	winner, loser := c.Winner, c.Loser()
	w, l := beliefs[winner], beliefs[loser]

	c2 := w.Variance + l.Variance + 2*Beta2
	if c2 <= 0 {
		// Numerically impossible with positive variances; treat as no-op.
		return
	}
	cStd := math.Sqrt(c2)
	t := (w.Mu - l.Mu) / cStd

	phi := stdNormalPDF(t)
	capPhi := stdNormalCDF(t)

	var v float64
	if capPhi < 1e-12 {
		v = math.Abs(t) + 10
	} else {
		v = phi / capPhi
	}
	wCoef := v * (v + t)

	w.Mu += (w.Variance / cStd) * v
	l.Mu -= (l.Variance / cStd) * v
	w.Variance = math.Max(w.Variance*(1-(w.Variance/c2)*wCoef), varianceFloor)
	l.Variance = math.Max(l.Variance*(1-(l.Variance/c2)*wCoef), varianceFloor)

	beliefs[winner] = w
	beliefs[loser] = l
}

// stdNormalPDF is the standard normal density function phi(x).
func stdNormalPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// stdNormalCDF is the standard normal cumulative distribution Phi(x),
// computed from the complementary error function for accuracy in the
// tails where Phi(x) is tiny.
func stdNormalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}
