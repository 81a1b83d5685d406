package limiter

import "time"

// Decision is the outcome of a ShouldAllow check. Fields are intended to
// be directly consumable by application code setting rate-limit headers.
type Decision struct {
	// Allowed reports whether the request fits inside the key's quota.
	Allowed bool

	// CurrentCount is the exact number of recorded requests for the key
	// still inside the window. Zero for keys on the bloom fast path.
	CurrentCount int

	// Remaining is max(0, maxRequests - CurrentCount).
	Remaining int

	// ResetIn is how long until the current fixed window rolls over.
	ResetIn time.Duration
}

// Stats is a read-only snapshot of a limiter instance.
type Stats struct {
	// TrackedKeys is the number of keys recorded since the last reset,
	// not a lifetime count.
	TrackedKeys int

	// WindowStart and WindowEnd bound the current fixed window.
	WindowStart time.Time
	WindowEnd   time.Time

	// TimeUntilReset is max(0, WindowEnd - now).
	TimeUntilReset time.Duration
}
