package sketch

import (
	"fmt"
	"math"
	"math/bits"

	"StreamSketch/pkg/hash"
)

// Supported HyperLogLog precision range. Precision p gives m = 2^p
// registers and a standard error of about 1.04/sqrt(m).
const (
	MinPrecision = 4
	MaxPrecision = 18
)

// HyperLogLog estimates the number of distinct keys observed. Each register
// records the maximum rank (position of the first set bit in the sliced
// part of the hash) of any key routed to it, so adding the same key twice
// never changes the sketch after the first add.
type HyperLogLog struct {
	family    hash.Family
	precision uint8
	registers []uint8
}

// NewHyperLogLog creates a sketch with 2^precision zeroed registers. A nil
// family defaults to hash.XX.
func NewHyperLogLog(f hash.Family, precision int) (*HyperLogLog, error) {
	if precision < MinPrecision || precision > MaxPrecision {
		return nil, fmt.Errorf("%w: got %d, want %d..%d",
			ErrInvalidPrecision, precision, MinPrecision, MaxPrecision)
	}
	if f == nil {
		f = hash.XX{}
	}
	return &HyperLogLog{
		family:    f,
		precision: uint8(precision),
		registers: make([]uint8, 1<<precision),
	}, nil
}

// Add observes one key. The top precision bits of the sliced hash select a
// register; the rank of the remaining bits is recorded if it exceeds the
// register's current value.
func (h *HyperLogLog) Add(key []byte) {
	v := hash.Slice(h.family, key)
	idx := v >> (64 - h.precision)

	// The sentinel bit bounds the leading-zero count at the number of bits
	// that actually came from the hash remainder.
	rest := v<<h.precision | 1<<(h.precision-1)
	rank := uint8(bits.LeadingZeros64(rest)) + 1

	if rank > h.registers[idx] {
		h.registers[idx] = rank
	}
}

// Estimate returns the estimated number of distinct keys added so far. An
// empty sketch estimates 0 via the linear-counting branch.
func (h *HyperLogLog) Estimate() uint64 {
	m := float64(len(h.registers))

	var z float64
	zeros := 0
	for _, r := range h.registers {
		z += 1.0 / float64(uint64(1)<<r)
		if r == 0 {
			zeros++
		}
	}

	e := h.alpha() * m * m / z
	if e <= 2.5*m && zeros > 0 {
		// Small-range correction: most registers are still empty, so
		// linear counting is more accurate than the harmonic mean.
		e = m * math.Log(m/float64(zeros))
	}
	return uint64(math.Round(e))
}

// Merge folds other into h by taking element-wise register maxima. Because
// registers record maxima rather than sums, the merged sketch estimates the
// cardinality of the union of both streams.
func (h *HyperLogLog) Merge(other *HyperLogLog) error {
	if other == nil {
		return fmt.Errorf("%w: nil sketch", ErrShapeMismatch)
	}
	if h.precision != other.precision {
		return fmt.Errorf("%w: precision %d vs %d", ErrShapeMismatch,
			h.precision, other.precision)
	}
	for i, r := range other.registers {
		if r > h.registers[i] {
			h.registers[i] = r
		}
	}
	return nil
}

// Clone returns a deep copy of the sketch.
func (h *HyperLogLog) Clone() *HyperLogLog {
	dup := *h
	dup.registers = make([]uint8, len(h.registers))
	copy(dup.registers, h.registers)
	return &dup
}

// Reset zeroes all registers for a new measurement period.
func (h *HyperLogLog) Reset() {
	clear(h.registers)
}

// Precision returns the register-index bit width.
func (h *HyperLogLog) Precision() int { return int(h.precision) }

// RegisterCount returns the number of registers, m = 2^precision.
func (h *HyperLogLog) RegisterCount() int { return len(h.registers) }

// alpha is the bias-correction constant: published values for small
// register counts, the closed-form approximation otherwise.
func (h *HyperLogLog) alpha() float64 {
	switch m := len(h.registers); m {
	case 16:
		return 0.673
	case 32:
		return 0.697
	case 64:
		return 0.709
	default:
		return 0.7213 / (1 + 1.079/float64(m))
	}
}
