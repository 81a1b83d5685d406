package bloom

import (
	"errors"
	"math"
)

var (
	ErrInvalidExpectedItems     = errors.New("bloom: expected items must be a positive integer")
	ErrInvalidFalsePositiveRate = errors.New("bloom: false positive rate must be strictly between 0 and 1")
)

// Filter is an immutable bloom filter. Add returns a new value and never
// mutates the receiver, so a Filter held by one goroutine is always safe to
// read from another.
//
// WindowStart carries a millisecond timestamp on behalf of the embedding
// rate limiter; the filter itself attaches no meaning to it.
type Filter struct {
	bitCount  int
	hashCount int
	bits      BitVector
	hashes    []HashFunc

	// items counts Add calls, including ones that set no new bits. It only
	// feeds EstimatedFalsePositiveRate and never gates membership answers.
	items int

	windowStart int64

	expectedItems     int
	falsePositiveRate float64
}

// Option configures a filter at construction.
type Option func(*Filter)

// WithHashFactory replaces the default DJB2+FNV-1a double-hashing family.
func WithHashFactory(f HashFactory) Option {
	return func(fl *Filter) {
		fl.hashes = fl.hashes[:0]
		for i := 0; i < fl.hashCount; i++ {
			fl.hashes = append(fl.hashes, f.New(i))
		}
	}
}

// WithBitVectorFactory replaces the default packed in-memory backing.
func WithBitVectorFactory(f BitVectorFactory) Option {
	return func(fl *Filter) {
		fl.bits = f.New(fl.bitCount)
	}
}

// New constructs a filter sized for expectedItems at the target
// falsePositiveRate using the standard formulas
//
//	m = ceil(-n*ln(p) / ln(2)^2)
//	k = ceil((m/n) * ln(2))
//
// Both are fixed for the life of the instance.
func New(expectedItems int, falsePositiveRate float64, opts ...Option) (*Filter, error) {
	if expectedItems <= 0 {
		return nil, ErrInvalidExpectedItems
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 || math.IsNaN(falsePositiveRate) {
		return nil, ErrInvalidFalsePositiveRate
	}

	m, k := EstimateParameters(expectedItems, falsePositiveRate)

	f := &Filter{
		bitCount:          m,
		hashCount:         k,
		expectedItems:     expectedItems,
		falsePositiveRate: falsePositiveRate,
	}

	factory := DoubleHashFactory{}
	f.hashes = make([]HashFunc, 0, k)
	for i := 0; i < k; i++ {
		f.hashes = append(f.hashes, factory.New(i))
	}
	f.bits = PackedBitFactory{}.New(m)

	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// EstimateParameters returns the optimal bit count m and hash count k for
// n expected items at false positive rate p.
func EstimateParameters(n int, p float64) (m, k int) {
	ln2 := math.Log(2)
	m = int(math.Ceil(-float64(n) * math.Log(p) / (ln2 * ln2)))
	k = int(math.Ceil(float64(m) / float64(n) * ln2))
	return m, k
}

// Add returns a new filter with the k positions for item set. Adding the
// same item twice is a no-op at the bit level, though the informational
// item counter still increments.
func (f *Filter) Add(item string) *Filter {
	next := *f
	next.bits = f.bits.Clone()
	for _, h := range f.hashes {
		next.bits.Set(int(h(item) % uint32(f.bitCount)))
	}
	next.items = f.items + 1
	return &next
}

// MayContain reports whether item may have been added. A false result is
// definitive: the filter never produces false negatives. A true result
// means "possibly present" and callers must fall back to an exact check if
// correctness depends on it.
func (f *Filter) MayContain(item string) bool {
	for _, h := range f.hashes {
		if !f.bits.Get(int(h(item) % uint32(f.bitCount))) {
			return false
		}
	}
	return true
}

// EstimatedFalsePositiveRate returns (1 - e^(-k*n/m))^k for the current
// add count n. For observability only.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	if f.items == 0 {
		return 0
	}
	k := float64(f.hashCount)
	n := float64(f.items)
	m := float64(f.bitCount)
	return math.Pow(1-math.Exp(-k*n/m), k)
}

// WithWindowStart returns a copy of the filter stamped with the given
// millisecond timestamp.
func (f *Filter) WithWindowStart(ms int64) *Filter {
	next := *f
	next.windowStart = ms
	return &next
}

// WindowStart returns the millisecond timestamp set via WithWindowStart.
func (f *Filter) WindowStart() int64 { return f.windowStart }

// BitCount returns m, the size of the bit vector.
func (f *Filter) BitCount() int { return f.bitCount }

// HashCount returns k, the number of hash rounds per item.
func (f *Filter) HashCount() int { return f.hashCount }

// Items returns the number of Add calls so far.
func (f *Filter) Items() int { return f.items }

// ExpectedItems returns the capacity the filter was sized for.
func (f *Filter) ExpectedItems() int { return f.expectedItems }

// FalsePositiveRate returns the target rate the filter was sized for.
func (f *Filter) FalsePositiveRate() float64 { return f.falsePositiveRate }
