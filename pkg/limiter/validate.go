package limiter

// Violation identifies one inconsistency found by Validate.
type Violation string

const (
	ViolationInvalidWindowMs        Violation = "invalid_window_ms"
	ViolationInvalidMaxRequests     Violation = "invalid_max_requests"
	ViolationInvalidBloomFilterSize Violation = "invalid_bloom_filter_size"
	ViolationInvalidHashCount       Violation = "invalid_hash_count"

	// ViolationWindowExpired flags an instance more than a full window
	// past its rollover point, which means nothing has called
	// RecordRequest or Reset recently. It signals a usage problem, not a
	// structural one, and the limiter does not self-correct.
	ViolationWindowExpired Violation = "window_expired"
)

// Validate runs the limiter's consistency checks and returns every
// violation found, or nil. Diagnostics only: it never fails and never
// repairs state.
func Validate(l *ProbabilisticLimiter) []Violation {
	var out []Violation

	if l.windowMs <= 0 {
		out = append(out, ViolationInvalidWindowMs)
	}
	if l.maxRequests <= 0 {
		out = append(out, ViolationInvalidMaxRequests)
	}
	if l.filter == nil || l.filter.BitCount() <= 0 {
		out = append(out, ViolationInvalidBloomFilterSize)
	}
	if l.filter == nil || l.filter.HashCount() <= 0 {
		out = append(out, ViolationInvalidHashCount)
	}
	if l.filter != nil && l.windowMs > 0 {
		if l.clock.NowMs() > l.filter.WindowStart()+2*l.windowMs {
			out = append(out, ViolationWindowExpired)
		}
	}

	return out
}
