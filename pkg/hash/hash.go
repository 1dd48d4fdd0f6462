// Package hash provides the seeded 64-bit hash family used by the sketch
// structures. A single base hash is expanded into arbitrarily many row hashes
// by double hashing, and one well-mixed value is exposed for bit-slicing.
package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// sliceSeed is the fixed seed for the bit-slicing hash.
const sliceSeed = 0x5f61767a

// Family is a seeded, avalanche-quality 64-bit hash over arbitrary byte
// keys. Implementations must be deterministic: the same key and seed always
// produce the same value. Two different seeds act as two effectively
// independent hash functions of the same input.
type Family interface {
	Sum64(key []byte, seed uint64) uint64
}

// XX is the default Family, backed by xxHash64.
type XX struct{}

func (XX) Sum64(key []byte, seed uint64) uint64 {
	var d xxhash.Digest
	d.ResetWithSeed(seed)
	d.Write(key)
	return d.Sum64()
}

// Murmur is a MurmurHash64A-style Family. It exists so sketch behaviour can
// be checked against a second, independently implemented hash.
type Murmur struct{}

const (
	murmurM = 0xc6a4a7935bd1e995
	murmurR = 47
)

func (Murmur) Sum64(key []byte, seed uint64) uint64 {
	h := seed ^ (uint64(len(key)) * murmurM)

	for len(key) >= 8 {
		k := binary.LittleEndian.Uint64(key)
		key = key[8:]

		k *= murmurM
		k ^= k >> murmurR
		k *= murmurM

		h ^= k
		h *= murmurM
	}

	var k uint64
	switch len(key) {
	case 7:
		k ^= uint64(key[6]) << 48
		fallthrough
	case 6:
		k ^= uint64(key[5]) << 40
		fallthrough
	case 5:
		k ^= uint64(key[4]) << 32
		fallthrough
	case 4:
		k ^= uint64(key[3]) << 24
		fallthrough
	case 3:
		k ^= uint64(key[2]) << 16
		fallthrough
	case 2:
		k ^= uint64(key[1]) << 8
		fallthrough
	case 1:
		k ^= uint64(key[0])
		k *= murmurM
		h ^= k
	}

	h ^= h >> murmurR
	h *= murmurM
	h ^= h >> murmurR

	return h
}

// Kernel caches the two base hashes of one key. Row hashes are derived as
// h1 + i*h2 (Kirsch-Mitzenmacher double hashing), which is treated as
// independent enough for Count-Min row hashing even though it is weaker
// than full pairwise independence.
type Kernel struct {
	h1, h2 uint64
}

// NewKernel hashes the key twice, seeding the second hash with the first.
func NewKernel(f Family, key []byte) Kernel {
	h1 := f.Sum64(key, 0)
	h2 := f.Sum64(key, h1)
	return Kernel{h1: h1, h2: h2}
}

// Row returns the i-th hash of the family for this key.
func (k Kernel) Row(i uint64) uint64 {
	return k.h1 + i*k.h2
}

// Slice returns one mixed 64-bit value for the key. Its top bits select a
// HyperLogLog register and the remaining bits are scanned for rank.
func Slice(f Family, key []byte) uint64 {
	return f.Sum64(key, sliceSeed)
}
