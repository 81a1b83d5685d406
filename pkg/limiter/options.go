package limiter

import (
	"github.com/manenim/bloom-rate-limiter/pkg/bloom"
	"github.com/manenim/bloom-rate-limiter/pkg/window"
)

// Option configures a limiter at construction.
type Option func(*ProbabilisticLimiter)

// WithFalsePositiveRate sets the bloom filter's target false-positive
// rate (default 0.01). Must be strictly between 0 and 1.
func WithFalsePositiveRate(rate float64) Option {
	return func(l *ProbabilisticLimiter) {
		l.falsePositiveRate = rate
	}
}

// WithClock injects the wall clock. The default reads Unix milliseconds
// from time.Now; tests inject a manual clock.
func WithClock(clock window.Clock) Option {
	return func(l *ProbabilisticLimiter) {
		l.clock = clock
	}
}

// WithRecorder injects a custom metrics backend.
func WithRecorder(r MetricsRecorder) Option {
	return func(l *ProbabilisticLimiter) {
		l.recorder = r
	}
}

// WithHashFactory replaces the bloom filter's default hash family.
func WithHashFactory(f bloom.HashFactory) Option {
	return func(l *ProbabilisticLimiter) {
		l.hashFactory = f
	}
}

// WithBitVectorFactory replaces the bloom filter's default bit storage,
// for example with bloom.RedisBitFactory for a shared bitmap.
func WithBitVectorFactory(f bloom.BitVectorFactory) Option {
	return func(l *ProbabilisticLimiter) {
		l.bitFactory = f
	}
}
