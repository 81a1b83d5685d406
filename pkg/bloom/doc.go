// Package bloom implements an immutable bloom filter with pluggable hash
// families and bit storage.
//
// A bloom filter answers "has Add ever been called with this exact item?"
// with zero false negatives and a bounded, tunable false-positive rate. It
// cannot enumerate or remove items.
//
// # Core Types
//
// Filter is the probabilistic set. It is a persistent value: Add returns a
// new Filter and never mutates the receiver, so snapshots held by
// concurrent readers stay internally consistent without locking.
//
// Construction takes the expected item count n and the target false
// positive rate p, and derives the fixed geometry:
//
//	m = ceil(-n*ln(p) / ln(2)^2)   bits
//	k = ceil((m/n) * ln(2))        hash rounds
//
// For example n=100, p=0.01 yields m=959 and k=7.
//
// # Capabilities
//
// Two small interfaces keep the algorithm independent of its backing:
//
//   - HashFactory produces the k members of the hash family. The default
//     DoubleHashFactory derives member i as h1 + i*h2 (mod 2^32) from DJB2
//     and FNV-1a. XXHashFactory and Murmur3Factory are alternatives; any
//     family with low cross-seed correlation works, and a weak family only
//     costs redundant downstream checks, never wrong answers.
//
//   - BitVectorFactory produces the m-bit storage. PackedBitFactory
//     (default) packs bits into []uint64 words, FlatBitFactory uses a
//     []bool, and RedisBitFactory maps the vector onto a shared Redis
//     bitmap so multiple processes can observe the same filter.
//
// # Error Policy
//
// Construction validates its parameters and fails fast; a constructed
// filter's operations are total and cannot fail. The Redis backing fails
// open on connectivity errors (bits read as unset) and reports them via
// WithOnError — see RedisBitFactory for the tradeoff.
//
// # Diagnostics
//
// Validate returns a list of structural violation kinds (never an error)
// for use in tests and health checks. It does not self-heal.
//
// # Limitations and Notes
//
//   - Add clones the bit vector, so each call is O(m/64) for the packed
//     backing. Filters sized for very large n amplify write cost; size for
//     the keys expected per window, not per process lifetime.
//   - The item counter increments on every Add call, including duplicate
//     adds that change no bits. It feeds EstimatedFalsePositiveRate only.
package bloom
