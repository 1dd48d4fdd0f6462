package sketch

import (
	"fmt"

	"StreamSketch/pkg/hash"
)

const (
	maxNibble   = 0x0F
	nibbleShift = 4
)

// CountingBloom is a Bloom filter with 4-bit saturating counters instead of
// bits, packed two per byte, which buys deletion support. Removing a key
// that was never inserted can drive counters to zero early and cause false
// negatives; callers must only remove keys they previously inserted.
type CountingBloom struct {
	family   hash.Family
	counters []byte
	n        uint64
	hashes   uint64
	items    uint64
}

// NewCountingBloom creates a filter with the given counter and hash counts.
func NewCountingBloom(f hash.Family, counters, hashes int) (*CountingBloom, error) {
	if counters < 1 || hashes < 1 {
		return nil, fmt.Errorf("%w: got counters=%d hashes=%d", ErrInvalidDimensions, counters, hashes)
	}
	if f == nil {
		f = hash.XX{}
	}
	return &CountingBloom{
		family:   f,
		counters: make([]byte, (counters+1)/2),
		n:        uint64(counters),
		hashes:   uint64(hashes),
	}, nil
}

// Insert adds key to the set.
func (cb *CountingBloom) Insert(key []byte) {
	k := hash.NewKernel(cb.family, key)
	for i := uint64(0); i < cb.hashes; i++ {
		cb.increment(k.Row(i) % cb.n)
	}
	cb.items++
}

// Remove deletes one previous insertion of key.
func (cb *CountingBloom) Remove(key []byte) {
	k := hash.NewKernel(cb.family, key)
	for i := uint64(0); i < cb.hashes; i++ {
		cb.decrement(k.Row(i) % cb.n)
	}
	if cb.items > 0 {
		cb.items--
	}
}

// Contains reports whether key might be in the set.
func (cb *CountingBloom) Contains(key []byte) bool {
	k := hash.NewKernel(cb.family, key)
	for i := uint64(0); i < cb.hashes; i++ {
		if cb.get(k.Row(i)%cb.n) == 0 {
			return false
		}
	}
	return true
}

func (cb *CountingBloom) get(idx uint64) byte {
	return (cb.counters[idx/2] >> ((idx & 1) * nibbleShift)) & maxNibble
}

func (cb *CountingBloom) increment(idx uint64) {
	s := (idx & 1) * nibbleShift
	// Saturate at 15 so a hot counter never wraps into a false negative.
	if (cb.counters[idx/2]>>s)&maxNibble < maxNibble {
		cb.counters[idx/2] += 1 << s
	}
}

func (cb *CountingBloom) decrement(idx uint64) {
	s := (idx & 1) * nibbleShift
	if (cb.counters[idx/2]>>s)&maxNibble > 0 {
		cb.counters[idx/2] -= 1 << s
	}
}
