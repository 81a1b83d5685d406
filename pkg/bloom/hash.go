package bloom

import (
	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// HashFunc computes a 32-bit hash of an item. It must be deterministic.
type HashFunc func(item string) uint32

// HashFactory derives the seed-th member of a hash family. Different seeds
// should produce low-correlation outputs; the quality bar is modest because
// a bad hash only costs a redundant exact check downstream, never a wrong
// decision.
type HashFactory interface {
	New(seed int) HashFunc
}

// DoubleHashFactory is the default family. Member i is derived from two
// independent base hashes via the Kirsch-Mitzenmacher construction:
//
//	h_i(x) = h1(x) + i*h2(x) mod 2^32
//
// with h1 = DJB2 and h2 = FNV-1a.
type DoubleHashFactory struct{}

func (DoubleHashFactory) New(seed int) HashFunc {
	s := uint32(seed)
	return func(item string) uint32 {
		return djb2(item) + s*fnv1a(item)
	}
}

func djb2(s string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(s); i++ {
		h = h*33 + uint32(s[i])
	}
	return h
}

func fnv1a(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// XXHashFactory derives the family from a single 64-bit xxHash. The low
// word is the location hash; a SplitMix64 scramble of it provides the
// decorrelated second hash for the double-hash construction. Faster than
// DoubleHashFactory on long keys because the item bytes are read once.
type XXHashFactory struct{}

func (XXHashFactory) New(seed int) HashFunc {
	s := uint32(seed)
	return func(item string) uint32 {
		v := xxhash.Sum64String(item)
		return uint32(v) + s*uint32(splitmix64(v))
	}
}

// splitmix64 scrambles a 64-bit value to remove correlation with its input
// (public domain finalizer).
func splitmix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Murmur3Factory derives each family member from murmur3 with a distinct
// seed, rather than combining two base hashes.
type Murmur3Factory struct{}

func (Murmur3Factory) New(seed int) HashFunc {
	s := uint32(splitmix64(uint64(seed + 1)))
	return func(item string) uint32 {
		return murmur3.Sum32WithSeed([]byte(item), s)
	}
}
