package redistribution

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// balancedSteepness scales returns before the logistic squash
	balancedSteepness = 100.0
	// growthEpsilon keeps the worst token's score strictly positive
	growthEpsilon = 1e-6
	// weightPlaces is the number of decimal places weights are rounded to
	weightPlaces = 4
)

// Prediction pairs a token with its predicted 7-day return
type Prediction struct {
	Token    string  `json:"token"`
	Return7d float64 `json:"return_7d"`
}

// TokenWeight is one positional entry of a weight mapping
type TokenWeight struct {
	Token  string  `json:"token"`
	Weight float64 `json:"weight"`
}

// Weights is the output of Redistribute. Entries keep the position of the
// prediction they came from, so duplicate tokens stay separate.
type Weights []TokenWeight

// Map collapses the entries into a token keyed mapping.
// Entries sharing a token are summed so the mapping keeps the total.
func (w Weights) Map() map[string]float64 {
	out := make(map[string]float64, len(w))
	for _, e := range w {
		out[e.Token] += e.Weight
	}
	return out
}

// Sum returns the total weight across all entries
func (w Weights) Sum() float64 {
	total := 0.0
	for _, e := range w {
		total += e.Weight
	}
	return total
}

// Redistribute converts predictions into weights under the given strategy.
//
// Scores are computed per strategy, floored at zero and normalized by their sum.
// When every score is zero the result is uniform. Each weight is rounded to four
// decimal places, halves to even, and the result is not renormalized after rounding.
func Redistribute(predictions []Prediction, strategy Strategy) (Weights, error) {
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, string(strategy))
	}
	if len(predictions) == 0 {
		return nil, ErrEmptyInput
	}

	returns := make([]float64, len(predictions))
	for i, p := range predictions {
		if math.IsNaN(p.Return7d) || math.IsInf(p.Return7d, 0) {
			return nil, fmt.Errorf("%w: token %s", ErrInvalidReturn, p.Token)
		}
		returns[i] = p.Return7d
	}

	shares := normalize(Scores(returns, strategy))

	weights := make(Weights, len(predictions))
	for i, p := range predictions {
		weights[i] = TokenWeight{Token: p.Token, Weight: round(shares[i])}
	}

	return weights, nil
}

// Scores returns the raw, unclipped strategy scores for the given returns.
// An unsupported strategy yields nil.
func Scores(returns []float64, strategy Strategy) []float64 {
	scores := make([]float64, len(returns))

	switch strategy {
	case Preservation:
		for i, r := range returns {
			scores[i] = -r
		}
	case Balanced:
		for i, r := range returns {
			scores[i] = 1 / (1 + math.Exp(-r*balancedSteepness))
		}
	case Growth:
		lowest := math.Inf(1)
		for _, r := range returns {
			lowest = math.Min(lowest, r)
		}
		for i, r := range returns {
			scores[i] = r - lowest + growthEpsilon
		}
	default:
		return nil
	}

	return scores
}

// normalize floors scores at zero and divides by their sum, or returns a
// uniform split when nothing is left. Scores are scaled by the largest one
// first so the sum cannot overflow; infinite scores share the whole weight.
func normalize(scores []float64) []float64 {
	shares := make([]float64, len(scores))

	peak := 0.0
	for i, s := range scores {
		shares[i] = math.Max(0, s)
		peak = math.Max(peak, shares[i])
	}

	if peak == 0 {
		for i := range shares {
			shares[i] = 1 / float64(len(shares))
		}
		return shares
	}

	total := 0.0
	for i, s := range shares {
		switch {
		case math.IsInf(peak, 1) && math.IsInf(s, 1):
			shares[i] = 1
		case math.IsInf(peak, 1):
			shares[i] = 0
		default:
			shares[i] = s / peak
		}
		total += shares[i]
	}

	for i := range shares {
		shares[i] /= total
	}
	return shares
}

// round rounds half to even so ties match numpy's round
func round(w float64) float64 {
	return decimal.NewFromFloat(w).RoundBank(weightPlaces).InexactFloat64()
}
