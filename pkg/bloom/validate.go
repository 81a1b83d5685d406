package bloom

// Violation identifies one structural inconsistency found by Validate.
type Violation string

const (
	ViolationInvalidBitArraySize      Violation = "invalid_bit_array_size"
	ViolationInvalidNumHashFunctions  Violation = "invalid_num_hash_functions"
	ViolationInvalidExpectedItems     Violation = "invalid_expected_items"
	ViolationInvalidFalsePositiveRate Violation = "invalid_false_positive_rate"
	ViolationInvalidItemCount         Violation = "invalid_item_count"
	ViolationStorageSizeMismatch      Violation = "storage_size_mismatch"
)

// Validate runs the internal consistency checks and returns every
// violation found, or nil when the filter is structurally sound. It never
// fails and never repairs anything; it exists for tests and health checks.
// A validly constructed filter cannot accumulate violations at runtime.
func Validate(f *Filter) []Violation {
	var out []Violation

	if f.bitCount <= 0 {
		out = append(out, ViolationInvalidBitArraySize)
	}
	if f.hashCount <= 0 || len(f.hashes) != f.hashCount {
		out = append(out, ViolationInvalidNumHashFunctions)
	}
	if f.expectedItems <= 0 {
		out = append(out, ViolationInvalidExpectedItems)
	}
	if f.falsePositiveRate <= 0 || f.falsePositiveRate >= 1 {
		out = append(out, ViolationInvalidFalsePositiveRate)
	}
	if f.items < 0 {
		out = append(out, ViolationInvalidItemCount)
	}
	if f.bits == nil || f.bits.Size() != f.bitCount {
		out = append(out, ViolationStorageSizeMismatch)
	}

	return out
}
