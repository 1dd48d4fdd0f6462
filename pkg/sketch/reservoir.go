package sketch

import (
	"fmt"
	"math/rand/v2"
)

// Reservoir keeps a uniform random sample of k keys from a stream of
// unknown length (Algorithm R). After n adds, every key seen so far is in
// the sample with probability k/n.
type Reservoir struct {
	k     int
	seen  uint64
	items [][]byte
}

// NewReservoir creates an empty reservoir holding at most k keys.
func NewReservoir(k int) (*Reservoir, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: reservoir size k=%d", ErrInvalidDimensions, k)
	}
	return &Reservoir{k: k, items: make([][]byte, 0, k)}, nil
}

// Add observes one key. The key bytes are copied.
func (r *Reservoir) Add(key []byte) {
	r.seen++
	dup := append([]byte(nil), key...)
	if len(r.items) < r.k {
		r.items = append(r.items, dup)
		return
	}
	if j := rand.Uint64N(r.seen); j < uint64(r.k) {
		r.items[j] = dup
	}
}

// Sample returns the current sample. The returned slice is owned by the
// reservoir and is invalidated by further adds.
func (r *Reservoir) Sample() [][]byte { return r.items }

// Seen returns the number of keys observed so far.
func (r *Reservoir) Seen() uint64 { return r.seen }
