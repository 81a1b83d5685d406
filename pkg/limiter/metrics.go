package limiter

// MetricsRecorder receives counters and observations from the limiter.
// Implementations adapt it to whatever metrics backend the application
// uses.
type MetricsRecorder interface {
	// Add increments a counter.
	Add(name string, value float64, tags map[string]string)

	// Observe records one sample of a distribution (e.g. latency).
	Observe(name string, value float64, tags map[string]string)
}

// Metric names emitted by the limiter.
const (
	MetricCheck    = "ratelimit.check"    // ShouldAllow calls
	MetricFastPath = "ratelimit.fastpath" // checks resolved by the bloom filter alone
	MetricDenied   = "ratelimit.denied"   // checks that returned Allowed=false
	MetricRecord   = "ratelimit.record"   // RecordRequest calls
	MetricReset    = "ratelimit.reset"    // window rollovers, automatic or explicit
	MetricLatency  = "ratelimit.latency"  // ShouldAllow duration in microseconds
)

// NoOpMetricsRecorder is a placeholder that does nothing.
// It ensures we never have to check 'if r.recorder != nil' in our hot path.
type NoOpMetricsRecorder struct{}

func (n *NoOpMetricsRecorder) Add(name string, value float64, tags map[string]string)     {}
func (n *NoOpMetricsRecorder) Observe(name string, value float64, tags map[string]string) {}
