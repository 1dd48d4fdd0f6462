package sketch

import (
	"fmt"
	"math"

	"StreamSketch/pkg/hash"
)

// Bloom is a standard Bloom filter: k double-hashed probes into a bit
// array. Contains never reports false negatives.
type Bloom struct {
	family hash.Family
	words  []uint64
	nbits  uint64
	hashes uint64
	items  uint64
}

// NewBloom creates a filter with the given bit-array size and hash count.
func NewBloom(f hash.Family, bits, hashes int) (*Bloom, error) {
	if bits < 1 || hashes < 1 {
		return nil, fmt.Errorf("%w: got bits=%d hashes=%d", ErrInvalidDimensions, bits, hashes)
	}
	if f == nil {
		f = hash.XX{}
	}
	return &Bloom{
		family: f,
		words:  make([]uint64, (bits+63)/64),
		nbits:  uint64(bits),
		hashes: uint64(hashes),
	}, nil
}

// NewBloomWithEstimates sizes the filter for n expected items at the given
// false-positive rate.
func NewBloomWithEstimates(f hash.Family, n int, fpRate float64) (*Bloom, error) {
	bits, err := BloomBits(n, fpRate)
	if err != nil {
		return nil, err
	}
	return NewBloom(f, bits, BloomHashes(bits, n))
}

// Insert adds key to the set.
func (b *Bloom) Insert(key []byte) {
	k := hash.NewKernel(b.family, key)
	for i := uint64(0); i < b.hashes; i++ {
		idx := k.Row(i) % b.nbits
		b.words[idx/64] |= 1 << (idx % 64)
	}
	b.items++
}

// Contains reports whether key might be in the set. False means definitely
// not; true may be a false positive.
func (b *Bloom) Contains(key []byte) bool {
	k := hash.NewKernel(b.family, key)
	for i := uint64(0); i < b.hashes; i++ {
		idx := k.Row(i) % b.nbits
		if b.words[idx/64]&(1<<(idx%64)) == 0 {
			return false
		}
	}
	return true
}

// FalsePositiveRate returns the theoretical false-positive rate at the
// current fill: (1 - e^(-k*n/m))^k.
func (b *Bloom) FalsePositiveRate() float64 {
	exp := math.Exp(-float64(b.hashes*b.items) / float64(b.nbits))
	return math.Pow(1-exp, float64(b.hashes))
}

// Merge ORs other's bits into b, yielding the filter of the union of both
// insert streams.
func (b *Bloom) Merge(other *Bloom) error {
	if other == nil {
		return fmt.Errorf("%w: nil filter", ErrShapeMismatch)
	}
	if b.nbits != other.nbits || b.hashes != other.hashes {
		return fmt.Errorf("%w: bloom %d/%d vs %d/%d", ErrShapeMismatch,
			b.nbits, b.hashes, other.nbits, other.hashes)
	}
	for i, w := range other.words {
		b.words[i] |= w
	}
	b.items += other.items
	return nil
}

// Bits returns the bit-array size.
func (b *Bloom) Bits() int { return int(b.nbits) }

// Hashes returns the probe count.
func (b *Bloom) Hashes() int { return int(b.hashes) }
