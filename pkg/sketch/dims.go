package sketch

import (
	"fmt"
	"math"
)

// Dimensioning helpers: pure functions that translate user-facing error
// targets into structure sizes. They are kept separate from the sketches so
// the error-bound arithmetic is unit-testable on its own. The formulas are
// the standard textbook approximations and are validated empirically by the
// accuracy tests, not re-derived here.

// CountMinWidth returns the column count needed so that the additive error
// of a query stays below epsilon times the stream's total mass:
// ceil(e / epsilon).
func CountMinWidth(epsilon float64) (int, error) {
	if epsilon <= 0 || epsilon >= 1 {
		return 0, fmt.Errorf("%w: epsilon=%v", ErrInvalidErrorBounds, epsilon)
	}
	return int(math.Ceil(math.E / epsilon)), nil
}

// CountMinDepth returns the number of independent hash rows needed so that
// the error bound fails with probability at most delta: ceil(ln(1/delta)).
func CountMinDepth(delta float64) (int, error) {
	if delta <= 0 || delta >= 1 {
		return 0, fmt.Errorf("%w: delta=%v", ErrInvalidErrorBounds, delta)
	}
	return int(math.Ceil(math.Log(1 / delta))), nil
}

// RegisterCount returns the HyperLogLog register count for a precision,
// m = 2^p.
func RegisterCount(precision int) (int, error) {
	if precision < MinPrecision || precision > MaxPrecision {
		return 0, fmt.Errorf("%w: got %d, want %d..%d",
			ErrInvalidPrecision, precision, MinPrecision, MaxPrecision)
	}
	return 1 << precision, nil
}

// StandardError returns the expected relative standard error of a
// HyperLogLog with m registers, 1.04/sqrt(m).
func StandardError(m int) float64 {
	return 1.04 / math.Sqrt(float64(m))
}

// BloomBits returns the bit-array size for a Bloom filter expected to hold
// n items at the given false-positive rate: m = -n*ln(p)/ln(2)^2.
func BloomBits(n int, fpRate float64) (int, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: expected items n=%d", ErrInvalidDimensions, n)
	}
	if fpRate <= 0 || fpRate >= 1 {
		return 0, fmt.Errorf("%w: fpRate=%v", ErrInvalidErrorBounds, fpRate)
	}
	m := -float64(n) * math.Log(fpRate) / (math.Ln2 * math.Ln2)
	return int(math.Ceil(m)), nil
}

// BloomHashes returns the hash-function count minimizing the false-positive
// rate for a filter of bits bits holding n items: k = (m/n)*ln(2).
func BloomHashes(bits, n int) int {
	k := int(math.Ceil(float64(bits) / float64(n) * math.Ln2))
	if k < 1 {
		k = 1
	}
	return k
}
