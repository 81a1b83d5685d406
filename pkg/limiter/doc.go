// Package limiter provides probabilistic admission control: a per-key
// fixed-window rate limiter that uses a bloom filter to short-circuit the
// common case of keys never seen in the current window.
//
// The primary entry point is ProbabilisticLimiter:
//
//	l, err := limiter.New(10*time.Second, 100, 10_000)
//	dec := l.ShouldAllow(key)
//	if dec.Allowed {
//	    l = l.RecordRequest(key)
//	}
//
// The returned Decision contains whether the request is allowed, the exact
// count so far, how much quota remains, and when the window resets — the
// pieces callers need to set rate-limit headers (for example Retry-After).
//
// # Overview
//
// Two cooperating structures back each decision:
//
//   - A bloom filter (pkg/bloom) answering "was this key possibly recorded
//     this window?". A negative answer is definitive and resolves the
//     check immediately with zero per-key work.
//   - An exact per-key timestamp log (pkg/window) consulted only when the
//     filter says "possibly", yielding the authoritative count.
//
// The composition preserves a strict no-false-deny guarantee. Bloom false
// positives only cost a redundant exact lookup: if no log exists the key
// is allowed with count zero, and if one exists its exact count decides.
// Bloom filters have no false negatives, so a key with recorded history is
// never mistaken for new.
//
// # Fixed-Window Semantics
//
// Despite the per-key logs being time-exact, the limiter as a whole uses a
// hard fixed-window cutover: the first mutating operation that observes
// now > windowStart + window discards the bloom filter and every per-key
// log, and restarts the window at now. History not yet observed at reset
// time is lost outright. This matches the behavior of the system this
// engine was built for; a continuously sliding variant was considered and
// deliberately not adopted (see DESIGN.md).
//
// # Value Semantics and Concurrency
//
// Every operation is a pure function from (state, inputs) to (new state,
// outputs). ShouldAllow and Stats are read-only; RecordRequest and Reset
// return a new instance sharing unchanged per-key logs with the old one.
// The engine contains no locks: the intended pattern is a single published
// "current instance" reference, swapped atomically by the writer, with
// readers free to use stale snapshots. Racing RecordRequests can briefly
// over-admit; closing that race (per-key locks, a single owning goroutine)
// is the embedding system's choice.
//
// # Configuration
//
// New validates windowSize, maxRequests and expectedKeys eagerly and is
// configured with functional options:
//
//	l, err := limiter.New(time.Minute, 60, 50_000,
//	    limiter.WithFalsePositiveRate(0.001),
//	    limiter.WithRecorder(myMetrics),
//	    limiter.WithBitVectorFactory(redisBits),
//	)
//
// Supported options:
//
//   - WithFalsePositiveRate(float64): bloom target rate (default 0.01).
//   - WithClock(window.Clock): injects the wall clock (default system
//     time; tests use a manual clock).
//   - WithRecorder(MetricsRecorder): injects a metrics backend.
//   - WithHashFactory(bloom.HashFactory): bloom hash family.
//   - WithBitVectorFactory(bloom.BitVectorFactory): bloom bit storage,
//     e.g. Redis bitmaps shared across processes.
//
// # Error and Diagnostics Policy
//
// All failure is construction-time: New rejects invalid parameters with
// sentinel errors, and every operation on a constructed limiter is total.
// Validate returns advisory violation kinds (never an error); the only
// usage-level one is window_expired, raised when an instance sits more
// than a full window past its rollover because nothing is recording or
// resetting.
//
// # Limitations and Notes
//
//   - Memory is O(distinct keys recorded since the last reset), not
//     bounded by the bloom filter's sizing: per-key logs are never evicted
//     inside a window, even for keys far under quota. Size expectedKeys
//     and the window accordingly.
//   - RecordRequest copies the key map (shallow) and clones the bloom bit
//     vector, so its cost grows with tracked keys and filter size. The
//     structure favors correctness under snapshotting over write
//     throughput.
//   - Clocks are not required to be monotonic. Entries are accumulated by
//     timestamp value and counts reflect whatever the clock reports.
package limiter
