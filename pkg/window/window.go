// Package window provides an exact sliding-window event log: an ordered
// list of timestamps with a count restricted to the last windowSize
// milliseconds.
//
// Window is a persistent value. Add returns a new Window sharing nothing
// mutable with the old one, so a snapshot can always be read concurrently.
// Entries are kept in insertion order, which is not necessarily time
// order: clocks are allowed to regress, and Count filters by timestamp
// value rather than position.
package window

import "time"

// Clock supplies the current time in milliseconds. The epoch is arbitrary
// as long as it is consistent across calls within a process.
type Clock interface {
	NowMs() int64
}

// SystemClock is the wall clock (Unix milliseconds).
type SystemClock struct{}

func (SystemClock) NowMs() int64 { return time.Now().UnixMilli() }

// Window is an append-only timestamp log with a time-bounded count.
// The zero value is unusable; construct with New.
type Window struct {
	sizeMs   int64
	requests []int64
}

// New returns an empty window covering the given duration.
func New(size time.Duration) Window {
	return Window{sizeMs: size.Milliseconds()}
}

// Add returns a new window with the clock's current time appended.
func (w Window) Add(clock Clock) Window {
	requests := make([]int64, len(w.requests)+1)
	copy(requests, w.requests)
	requests[len(w.requests)] = clock.NowMs()
	return Window{sizeMs: w.sizeMs, requests: requests}
}

// Count returns the number of entries strictly newer than
// clock.NowMs() - windowSize.
func (w Window) Count(clock Clock) int {
	cutoff := clock.NowMs() - w.sizeMs
	n := 0
	for _, ts := range w.requests {
		if ts > cutoff {
			n++
		}
	}
	return n
}

// Len returns the total number of entries regardless of age.
func (w Window) Len() int { return len(w.requests) }

// Size returns the window duration.
func (w Window) Size() time.Duration {
	return time.Duration(w.sizeMs) * time.Millisecond
}

// Timestamps returns a copy of the entry log, for diagnostics.
func (w Window) Timestamps() []int64 {
	out := make([]int64, len(w.requests))
	copy(out, w.requests)
	return out
}
