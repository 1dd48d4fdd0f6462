package sketch

import (
	"fmt"
	"math"

	"StreamSketch/pkg/hash"
)

// CountMin is a Count-Min sketch: a depth x width matrix of counters where
// every cell only ever increases. Query never underestimates the true
// frequency, and when the sketch is dimensioned from (epsilon, delta) the
// overestimate exceeds epsilon*Total with probability at most delta.
type CountMin struct {
	family hash.Family
	width  uint64
	depth  uint64
	// Row-major depth*width counter matrix, one contiguous allocation.
	table []uint64
	total uint64
}

// NewCountMin creates a zeroed sketch with the given dimensions. A nil
// family defaults to hash.XX.
func NewCountMin(f hash.Family, width, depth int) (*CountMin, error) {
	if width < 1 || depth < 1 {
		return nil, fmt.Errorf("%w: got width=%d depth=%d", ErrInvalidDimensions, width, depth)
	}
	if f == nil {
		f = hash.XX{}
	}
	return &CountMin{
		family: f,
		width:  uint64(width),
		depth:  uint64(depth),
		table:  make([]uint64, width*depth),
	}, nil
}

// NewCountMinWithEstimates derives the dimensions from an error target:
// queries overestimate by more than epsilon times the stream's total mass
// with probability at most delta.
func NewCountMinWithEstimates(f hash.Family, epsilon, delta float64) (*CountMin, error) {
	width, err := CountMinWidth(epsilon)
	if err != nil {
		return nil, err
	}
	depth, err := CountMinDepth(delta)
	if err != nil {
		return nil, err
	}
	return NewCountMin(f, width, depth)
}

// Update adds count occurrences of key. Decrements are not supported; this
// is a counting sketch, not a differencing one.
func (c *CountMin) Update(key []byte, count uint64) {
	k := hash.NewKernel(c.family, key)
	for i := uint64(0); i < c.depth; i++ {
		c.table[i*c.width+k.Row(i)%c.width] += count
	}
	c.total += count
}

// Query returns the estimated frequency of key: the minimum counter across
// all rows. The estimate is never below the true count.
func (c *CountMin) Query(key []byte) uint64 {
	k := hash.NewKernel(c.family, key)
	est := uint64(math.MaxUint64)
	for i := uint64(0); i < c.depth; i++ {
		if v := c.table[i*c.width+k.Row(i)%c.width]; v < est {
			est = v
		}
	}
	return est
}

// Merge adds other's counters into c cell-wise. The result is exactly the
// sketch that would have been produced by feeding both streams into a
// single instance, provided both sketches share dimensions and hash family.
func (c *CountMin) Merge(other *CountMin) error {
	if other == nil {
		return fmt.Errorf("%w: nil sketch", ErrShapeMismatch)
	}
	if c.width != other.width || c.depth != other.depth {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch,
			c.depth, c.width, other.depth, other.width)
	}
	for i, v := range other.table {
		c.table[i] += v
	}
	c.total += other.total
	return nil
}

// Clone returns a deep copy of the sketch.
func (c *CountMin) Clone() *CountMin {
	dup := *c
	dup.table = make([]uint64, len(c.table))
	copy(dup.table, c.table)
	return &dup
}

// Reset zeroes all counters for a new measurement period.
func (c *CountMin) Reset() {
	clear(c.table)
	c.total = 0
}

// Total returns the sum of all applied increments. Diagnostic only.
func (c *CountMin) Total() uint64 { return c.total }

// Width returns the column count.
func (c *CountMin) Width() int { return int(c.width) }

// Depth returns the number of hash rows.
func (c *CountMin) Depth() int { return int(c.depth) }
