package limiter

import (
	"errors"
	"time"

	"github.com/manenim/bloom-rate-limiter/pkg/bloom"
	"github.com/manenim/bloom-rate-limiter/pkg/window"
)

var (
	ErrInvalidWindow            = errors.New("limiter: window must be a positive duration")
	ErrInvalidMaxRequests       = errors.New("limiter: max requests must be a positive integer")
	ErrInvalidExpectedKeys      = errors.New("limiter: expected keys must be a positive integer")
	ErrInvalidFalsePositiveRate = errors.New("limiter: false positive rate must be strictly between 0 and 1")
)

// ProbabilisticLimiter enforces "no more than maxRequests accepted
// requests per key within any fixed window" using a bloom filter to
// short-circuit checks for keys never seen in the current window.
//
// It is an immutable value: RecordRequest and Reset return a new instance
// and never mutate the receiver. Callers hold the latest instance behind a
// single published reference (for example an atomic.Pointer) and may let
// concurrent readers use stale snapshots; a stale ShouldAllow is always
// internally consistent, it can only briefly over-admit requests whose
// RecordRequests raced before either was published.
type ProbabilisticLimiter struct {
	windowMs    int64
	maxRequests int

	// Retained construction parameters; each window rollover builds a
	// fresh filter from them.
	expectedKeys      int
	falsePositiveRate float64

	filter  *bloom.Filter
	windows map[string]window.Window

	clock       window.Clock
	recorder    MetricsRecorder
	hashFactory bloom.HashFactory
	bitFactory  bloom.BitVectorFactory
}

// New constructs a limiter allowing maxRequests per key per windowSize,
// sized to track expectedKeys distinct keys per window. All numeric
// parameters are validated eagerly; an invalid value fails construction
// rather than degrading silently.
func New(windowSize time.Duration, maxRequests, expectedKeys int, opts ...Option) (*ProbabilisticLimiter, error) {
	l := &ProbabilisticLimiter{
		windowMs:          windowSize.Milliseconds(),
		maxRequests:       maxRequests,
		expectedKeys:      expectedKeys,
		falsePositiveRate: 0.01,
		clock:             window.SystemClock{},
		recorder:          &NoOpMetricsRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.windowMs <= 0 {
		return nil, ErrInvalidWindow
	}
	if l.maxRequests <= 0 {
		return nil, ErrInvalidMaxRequests
	}
	if l.expectedKeys <= 0 {
		return nil, ErrInvalidExpectedKeys
	}
	if l.falsePositiveRate <= 0 || l.falsePositiveRate >= 1 {
		return nil, ErrInvalidFalsePositiveRate
	}

	filter, err := l.freshFilter(l.clock.NowMs())
	if err != nil {
		return nil, err
	}
	l.filter = filter
	l.windows = make(map[string]window.Window)
	return l, nil
}

func (l *ProbabilisticLimiter) freshFilter(nowMs int64) (*bloom.Filter, error) {
	var opts []bloom.Option
	if l.hashFactory != nil {
		opts = append(opts, bloom.WithHashFactory(l.hashFactory))
	}
	if l.bitFactory != nil {
		opts = append(opts, bloom.WithBitVectorFactory(l.bitFactory))
	}
	f, err := bloom.New(l.expectedKeys, l.falsePositiveRate, opts...)
	if err != nil {
		return nil, err
	}
	return f.WithWindowStart(nowMs), nil
}

// ShouldAllow reports whether a request for key fits its quota. It is
// read-only: checking never changes limiter state, and callers decide
// separately whether to RecordRequest.
//
// The bloom filter can only make ShouldAllow do extra work, never give a
// wrong answer: a false positive sends a genuinely-new key to the exact
// lookup, which finds no log and still allows it. A key with recorded
// history is always found by the filter (no false negatives), so a real
// violator is never waved through.
func (l *ProbabilisticLimiter) ShouldAllow(key string) Decision {
	start := time.Now()
	defer func() {
		l.recorder.Observe(MetricLatency, float64(time.Since(start).Microseconds()), nil)
	}()
	l.recorder.Add(MetricCheck, 1, nil)

	now := l.clock.NowMs()
	resetIn := l.resetIn(now)

	if !l.filter.MayContain(key) {
		// Definite first-time key this window; skip the exact check.
		l.recorder.Add(MetricFastPath, 1, nil)
		return Decision{Allowed: true, CurrentCount: 0, Remaining: l.maxRequests, ResetIn: resetIn}
	}

	w, ok := l.windows[key]
	if !ok {
		// Bloom false positive with no real history.
		return Decision{Allowed: true, CurrentCount: 0, Remaining: l.maxRequests, ResetIn: resetIn}
	}

	count := w.Count(l.clock)
	allowed := count < l.maxRequests
	remaining := l.maxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	if !allowed {
		l.recorder.Add(MetricDenied, 1, nil)
	}
	return Decision{Allowed: allowed, CurrentCount: count, Remaining: remaining, ResetIn: resetIn}
}

// RecordRequest returns a new limiter with one event recorded for key at
// the current time. If the fixed window has elapsed the whole state is
// discarded first — fresh bloom filter, empty per-key logs — and the
// event lands in the new window, so the triggering request is not lost.
//
// RecordRequest does not check the quota; callers are expected to consult
// ShouldAllow first, but the engine does not enforce that ordering.
func (l *ProbabilisticLimiter) RecordRequest(key string) *ProbabilisticLimiter {
	l.recorder.Add(MetricRecord, 1, nil)

	now := l.clock.NowMs()
	next := *l

	if now > l.filter.WindowStart()+l.windowMs {
		next.filter = l.mustFreshFilter(now)
		next.windows = make(map[string]window.Window, 1)
		l.recorder.Add(MetricReset, 1, nil)
	} else {
		// Shallow copy; window values are immutable, so old snapshots keep
		// seeing their own entries.
		next.windows = make(map[string]window.Window, len(l.windows)+1)
		for k, v := range l.windows {
			next.windows[k] = v
		}
	}

	next.filter = next.filter.Add(key)

	w, ok := next.windows[key]
	if !ok {
		w = window.New(time.Duration(l.windowMs) * time.Millisecond)
	}
	next.windows[key] = w.Add(l.clock)
	return &next
}

// Reset returns a new limiter with all state discarded and the window
// restarted at the current time, whether or not the window had elapsed.
func (l *ProbabilisticLimiter) Reset() *ProbabilisticLimiter {
	l.recorder.Add(MetricReset, 1, nil)

	next := *l
	next.filter = l.mustFreshFilter(l.clock.NowMs())
	next.windows = make(map[string]window.Window)
	return &next
}

// mustFreshFilter rebuilds the filter from the retained construction
// parameters. Those were validated in New, so this cannot fail.
func (l *ProbabilisticLimiter) mustFreshFilter(nowMs int64) *bloom.Filter {
	f, err := l.freshFilter(nowMs)
	if err != nil {
		panic("limiter: validated parameters rejected: " + err.Error())
	}
	return f
}

// Stats returns a read-only snapshot of the instance.
func (l *ProbabilisticLimiter) Stats() Stats {
	now := l.clock.NowMs()
	start := l.filter.WindowStart()
	return Stats{
		TrackedKeys:    len(l.windows),
		WindowStart:    time.UnixMilli(start),
		WindowEnd:      time.UnixMilli(start + l.windowMs),
		TimeUntilReset: l.resetIn(now),
	}
}

func (l *ProbabilisticLimiter) resetIn(nowMs int64) time.Duration {
	d := l.filter.WindowStart() + l.windowMs - nowMs
	if d < 0 {
		d = 0
	}
	return time.Duration(d) * time.Millisecond
}

// Window returns the fixed-window duration.
func (l *ProbabilisticLimiter) Window() time.Duration {
	return time.Duration(l.windowMs) * time.Millisecond
}

// MaxRequests returns the per-key quota per window.
func (l *ProbabilisticLimiter) MaxRequests() int { return l.maxRequests }

// Filter exposes the current bloom filter for observability (for example
// its estimated false-positive rate).
func (l *ProbabilisticLimiter) Filter() *bloom.Filter { return l.filter }
