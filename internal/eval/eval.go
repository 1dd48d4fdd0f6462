// Package eval compares sketch estimates against the exact oracle and
// summarizes the error distribution. It is harness/test support; the
// sketches never import it.
package eval

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// FrequencyReport summarizes frequency-estimate accuracy over a key set.
type FrequencyReport struct {
	Keys              int
	MeanRelativeError float64
	StdRelativeError  float64
	MaxRelativeError  float64
	P99RelativeError  float64
	// Keys whose overestimate exceeded epsilon times the stream total, and
	// that count as a fraction of all keys. The sketch's contract is that
	// this rate stays at or below delta.
	BoundViolations int
	ViolationRate   float64
}

// CompareFrequencies evaluates estimate against the exact truth map. The
// bound check uses epsilon*total, the additive error the sketch was
// dimensioned to stay within.
func CompareFrequencies(truth map[string]uint64, estimate func(key []byte) uint64, epsilon float64, total uint64) FrequencyReport {
	if len(truth) == 0 {
		return FrequencyReport{}
	}

	bound := epsilon * float64(total)
	relErrs := make([]float64, 0, len(truth))
	violations := 0

	for k, actual := range truth {
		est := estimate([]byte(k))
		// Count-Min never underestimates; the overshoot is the whole error.
		overshoot := float64(est) - float64(actual)
		if overshoot > bound {
			violations++
		}
		relErrs = append(relErrs, overshoot/float64(actual))
	}
	sort.Float64s(relErrs)

	return FrequencyReport{
		Keys:              len(relErrs),
		MeanRelativeError: stat.Mean(relErrs, nil),
		StdRelativeError:  stat.StdDev(relErrs, nil),
		MaxRelativeError:  relErrs[len(relErrs)-1],
		P99RelativeError:  stat.Quantile(0.99, stat.Empirical, relErrs, nil),
		BoundViolations:   violations,
		ViolationRate:     float64(violations) / float64(len(relErrs)),
	}
}

// CardinalityError returns the signed relative error of a distinct-count
// estimate.
func CardinalityError(truth, estimate uint64) float64 {
	if truth == 0 {
		if estimate == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return (float64(estimate) - float64(truth)) / float64(truth)
}
