package limiter

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// testClock is a manually advanced clock.
type testClock struct {
	ms int64
}

func (c *testClock) NowMs() int64 { return c.ms }

func newTestLimiter(t *testing.T, window time.Duration, maxRequests, expectedKeys int, opts ...Option) (*ProbabilisticLimiter, *testClock) {
	t.Helper()
	clock := &testClock{}
	l, err := New(window, maxRequests, expectedKeys, append([]Option{WithClock(clock)}, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return l, clock
}

func TestNew_Validation(t *testing.T) {
	cases := []struct {
		name   string
		window time.Duration
		max    int
		keys   int
		opts   []Option
		want   error
	}{
		{"zero window", 0, 3, 100, nil, ErrInvalidWindow},
		{"negative window", -time.Second, 3, 100, nil, ErrInvalidWindow},
		{"zero max", time.Second, 0, 100, nil, ErrInvalidMaxRequests},
		{"negative max", time.Second, -1, 100, nil, ErrInvalidMaxRequests},
		{"zero keys", time.Second, 3, 0, nil, ErrInvalidExpectedKeys},
		{"fp rate zero", time.Second, 3, 100, []Option{WithFalsePositiveRate(0)}, ErrInvalidFalsePositiveRate},
		{"fp rate one", time.Second, 3, 100, []Option{WithFalsePositiveRate(1)}, ErrInvalidFalsePositiveRate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.window, tc.max, tc.keys, tc.opts...)
			if !errors.Is(err, tc.want) {
				t.Errorf("New error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestQuotaExhaustion(t *testing.T) {
	// maxRequests=3, windowMs=10000: three records at t=0, checked at
	// t=5000.
	l, clock := newTestLimiter(t, 10*time.Second, 3, 100)

	for i := 0; i < 3; i++ {
		l = l.RecordRequest("u")
	}

	clock.ms = 5000
	dec := l.ShouldAllow("u")
	if dec.Allowed {
		t.Error("Fourth request allowed with quota of 3")
	}
	if dec.CurrentCount != 3 {
		t.Errorf("CurrentCount = %d, want 3", dec.CurrentCount)
	}
	if dec.Remaining != 0 {
		t.Errorf("Remaining = %d, want 0", dec.Remaining)
	}
	if dec.ResetIn != 5*time.Second {
		t.Errorf("ResetIn = %v, want 5s", dec.ResetIn)
	}
}

func TestWindowRollover(t *testing.T) {
	l, clock := newTestLimiter(t, 10*time.Second, 3, 100)

	for i := 0; i < 3; i++ {
		l = l.RecordRequest("u")
	}

	// One past the boundary: recording any key discards u's history.
	clock.ms = 10001
	l = l.RecordRequest("v")

	dec := l.ShouldAllow("u")
	if !dec.Allowed {
		t.Error("Previously exhausted key still denied after rollover")
	}
	if dec.CurrentCount != 0 {
		t.Errorf("CurrentCount = %d, want 0 after rollover", dec.CurrentCount)
	}
	if dec.Remaining != 3 {
		t.Errorf("Remaining = %d, want 3", dec.Remaining)
	}

	stats := l.Stats()
	if stats.TrackedKeys != 1 {
		t.Errorf("TrackedKeys = %d, want 1 (only v survives the reset)", stats.TrackedKeys)
	}
	if got := stats.WindowStart.UnixMilli(); got != 10001 {
		t.Errorf("WindowStart = %d, want 10001", got)
	}

	// The triggering request itself was not lost.
	if dec := l.ShouldAllow("v"); dec.CurrentCount != 1 {
		t.Errorf("v's count = %d, want 1", dec.CurrentCount)
	}
}

func TestMonotonicQuota(t *testing.T) {
	const max = 5
	l, _ := newTestLimiter(t, 10*time.Second, max, 100)

	for n := 1; n <= 8; n++ {
		l = l.RecordRequest("u")
		dec := l.ShouldAllow("u")
		if dec.CurrentCount != n {
			t.Fatalf("After %d records: CurrentCount = %d", n, dec.CurrentCount)
		}
		if dec.Allowed != (n < max) {
			t.Fatalf("After %d records: Allowed = %v, want %v", n, dec.Allowed, n < max)
		}
	}
}

func TestShouldAllow_FastPathForUnseenKeys(t *testing.T) {
	l, _ := newTestLimiter(t, 10*time.Second, 3, 2000, WithFalsePositiveRate(0.0001))

	for i := 0; i < 1000; i++ {
		l = l.RecordRequest(fmt.Sprintf("key-%d", i))
	}

	// Whether the filter fast-rejects or false-positives into a missing
	// log, an unseen key is always a definite allow with count zero.
	for i := 0; i < 10; i++ {
		dec := l.ShouldAllow(fmt.Sprintf("unseen-%d", i))
		if !dec.Allowed || dec.CurrentCount != 0 || dec.Remaining != 3 {
			t.Fatalf("Unseen key decision = %+v, want allowed with zero count", dec)
		}
	}
}

func TestReset_ClearsAllState(t *testing.T) {
	l, _ := newTestLimiter(t, 10*time.Second, 3, 100)

	for _, key := range []string{"a", "b", "c"} {
		for i := 0; i < 3; i++ {
			l = l.RecordRequest(key)
		}
	}
	if l.Stats().TrackedKeys != 3 {
		t.Fatalf("TrackedKeys = %d, want 3", l.Stats().TrackedKeys)
	}

	l = l.Reset()

	if got := l.Stats().TrackedKeys; got != 0 {
		t.Errorf("TrackedKeys after Reset = %d, want 0", got)
	}
	for _, key := range []string{"a", "b", "c"} {
		dec := l.ShouldAllow(key)
		if !dec.Allowed || dec.CurrentCount != 0 {
			t.Errorf("Key %q after Reset: %+v, want allowed with zero count", key, dec)
		}
	}
}

func TestReset_IgnoresWindowBoundary(t *testing.T) {
	l, clock := newTestLimiter(t, 10*time.Second, 3, 100)
	l = l.RecordRequest("u")

	// Explicit reset restarts the window even though it has not elapsed.
	clock.ms = 4000
	l = l.Reset()
	if got := l.Stats().WindowStart.UnixMilli(); got != 4000 {
		t.Errorf("WindowStart = %d, want 4000", got)
	}
}

func TestRecordRequest_DecoupledFromShouldAllow(t *testing.T) {
	l, _ := newTestLimiter(t, 10*time.Second, 2, 100)

	// Nothing stops a caller from recording past the quota; the engine
	// only reports, it does not enforce ordering.
	for i := 0; i < 4; i++ {
		l = l.RecordRequest("u")
	}
	dec := l.ShouldAllow("u")
	if dec.Allowed || dec.CurrentCount != 4 || dec.Remaining != 0 {
		t.Errorf("Decision = %+v, want denied with count 4", dec)
	}
}

func TestShouldAllow_IsReadOnly(t *testing.T) {
	l, _ := newTestLimiter(t, 10*time.Second, 3, 100)
	l = l.RecordRequest("u")

	for i := 0; i < 5; i++ {
		l.ShouldAllow("u")
	}
	if dec := l.ShouldAllow("u"); dec.CurrentCount != 1 {
		t.Errorf("CurrentCount = %d after repeated checks, want 1", dec.CurrentCount)
	}
}

func TestSnapshotsStayConsistent(t *testing.T) {
	old, _ := newTestLimiter(t, 10*time.Second, 3, 100)
	old = old.RecordRequest("u")

	// A reader holding the old instance is unaffected by later records.
	newer := old.RecordRequest("u").RecordRequest("v")

	if dec := old.ShouldAllow("u"); dec.CurrentCount != 1 {
		t.Errorf("Old snapshot count = %d, want 1", dec.CurrentCount)
	}
	if dec := old.ShouldAllow("v"); dec.CurrentCount != 0 {
		t.Errorf("Old snapshot sees v: %+v", dec)
	}
	if dec := newer.ShouldAllow("u"); dec.CurrentCount != 2 {
		t.Errorf("New snapshot count = %d, want 2", dec.CurrentCount)
	}
}

func TestToleratesClockRegression(t *testing.T) {
	l, clock := newTestLimiter(t, 10*time.Second, 3, 100)

	clock.ms = 5000
	l = l.RecordRequest("u")
	clock.ms = 1000 // clock went backwards
	l = l.RecordRequest("u")

	if dec := l.ShouldAllow("u"); dec.CurrentCount != 2 {
		t.Errorf("CurrentCount = %d after regression, want 2", dec.CurrentCount)
	}
}

func TestCountsDecayWithoutReset(t *testing.T) {
	// A stale instance's exact counts age out through the per-key log even
	// though nothing has triggered the fixed-window reset.
	l, clock := newTestLimiter(t, 10*time.Second, 3, 100)
	for i := 0; i < 3; i++ {
		l = l.RecordRequest("u")
	}

	clock.ms = 15000
	dec := l.ShouldAllow("u")
	if !dec.Allowed || dec.CurrentCount != 0 {
		t.Errorf("Decision on stale instance = %+v, want allowed with zero count", dec)
	}
	if dec.ResetIn != 0 {
		t.Errorf("ResetIn = %v on an expired window, want 0", dec.ResetIn)
	}
}

func TestStats(t *testing.T) {
	l, clock := newTestLimiter(t, 10*time.Second, 3, 100)
	l = l.RecordRequest("a")
	l = l.RecordRequest("b")

	clock.ms = 4000
	stats := l.Stats()
	if stats.TrackedKeys != 2 {
		t.Errorf("TrackedKeys = %d, want 2", stats.TrackedKeys)
	}
	if got := stats.WindowStart.UnixMilli(); got != 0 {
		t.Errorf("WindowStart = %d, want 0", got)
	}
	if got := stats.WindowEnd.UnixMilli(); got != 10000 {
		t.Errorf("WindowEnd = %d, want 10000", got)
	}
	if stats.TimeUntilReset != 6*time.Second {
		t.Errorf("TimeUntilReset = %v, want 6s", stats.TimeUntilReset)
	}
}

func TestValidate(t *testing.T) {
	l, clock := newTestLimiter(t, 10*time.Second, 3, 100)

	if v := Validate(l); v != nil {
		t.Errorf("Fresh limiter reported violations: %v", v)
	}

	clock.ms = 15000
	if v := Validate(l); v != nil {
		t.Errorf("Within 2x window: %v, want none", v)
	}

	clock.ms = 20001
	v := Validate(l)
	if len(v) != 1 || v[0] != ViolationWindowExpired {
		t.Errorf("Past 2x window: %v, want [window_expired]", v)
	}

	// window_expired is advisory; the next record self-corrects.
	l = l.RecordRequest("u")
	if v := Validate(l); v != nil {
		t.Errorf("After record: %v, want none", v)
	}
}

func BenchmarkShouldAllow_FastPath(b *testing.B) {
	clock := &testClock{}
	l, err := New(time.Minute, 100, 10000, WithClock(clock))
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 1000; i++ {
		l = l.RecordRequest(fmt.Sprintf("key-%d", i))
	}

	for i := 0; i < b.N; i++ {
		l.ShouldAllow("unseen-key")
	}
}

func BenchmarkRecordRequest(b *testing.B) {
	clock := &testClock{}
	l, err := New(time.Minute, 100, 10000, WithClock(clock))
	if err != nil {
		b.Fatal(err)
	}

	for i := 0; i < b.N; i++ {
		l.RecordRequest("hot-key")
	}
}
