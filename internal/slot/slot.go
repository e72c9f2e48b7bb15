// Package slot defines the hourly booking grid shared by every room.
//
// A reservation starts on a whole hour inside the operating window
// [FirstHour, ClosingHour) and occupies the half-open range
// [start, start+duration).
package slot

import (
	"fmt"
	"iter"
)

const (
	// FirstHour is the earliest bookable start hour.
	FirstHour = 8
	// ClosingHour is the exclusive end of the operating window.
	ClosingHour = 20
)

// InvalidRangeError reports a start/duration pair outside the operating window.
type InvalidRangeError struct {
	Slot     int
	Duration int
	Reason   string
}

// Error implements the error interface.
func (e *InvalidRangeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("slot: invalid range start=%d duration=%d: %s", e.Slot, e.Duration, e.Reason)
}

// Range is a half-open hour interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Overlaps reports whether the two half-open ranges share at least one hour.
// Ranges that only touch (r.End == other.Start) do not overlap.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// Intersect returns the shared part of two ranges and whether it is non-empty.
func (r Range) Intersect(other Range) (Range, bool) {
	if !r.Overlaps(other) {
		return Range{}, false
	}
	return Range{Start: max(r.Start, other.Start), End: min(r.End, other.End)}, true
}

// Hours lists every hour covered by the range.
func (r Range) Hours() []int {
	n := r.Len()
	if n == 0 {
		return nil
	}
	hours := make([]int, 0, n)
	for h := r.Start; h < r.End; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Len returns the number of hours in the range.
func (r Range) Len() int {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// String renders the range as "HH:00 - HH:00".
func (r Range) String() string {
	return fmt.Sprintf("%02d:00 - %02d:00", r.Start, r.End)
}

// All yields the valid start hours in ascending order. Each call starts over.
func All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for h := FirstHour; h < ClosingHour; h++ {
			if !yield(h) {
				return
			}
		}
	}
}

// Enumerate returns the valid start hours [8, 9, ..., 19].
func Enumerate() []int {
	hours := make([]int, 0, ClosingHour-FirstHour)
	for h := range All() {
		hours = append(hours, h)
	}
	return hours
}

// MaxDuration is the longest duration that keeps a reservation starting at
// start inside the operating window.
func MaxDuration(start int) int {
	return ClosingHour - start
}

// NormalizeDuration treats a zero or negative stored duration as one hour.
func NormalizeDuration(duration int) int {
	if duration <= 0 {
		return 1
	}
	return duration
}

// OccupiedRange returns the hours occupied by a reservation.
func OccupiedRange(start, duration int) Range {
	return Range{Start: start, End: start + duration}
}

// Validate checks a start/duration pair against the operating window.
func Validate(start, duration int) error {
	switch {
	case start < FirstHour:
		return &InvalidRangeError{Slot: start, Duration: duration, Reason: fmt.Sprintf("start before %02d:00", FirstHour)}
	case start >= ClosingHour:
		return &InvalidRangeError{Slot: start, Duration: duration, Reason: fmt.Sprintf("start at or after %02d:00", ClosingHour)}
	case duration < 1:
		return &InvalidRangeError{Slot: start, Duration: duration, Reason: "duration must be at least one hour"}
	case start+duration > ClosingHour:
		return &InvalidRangeError{Slot: start, Duration: duration, Reason: fmt.Sprintf("ends after %02d:00", ClosingHour)}
	}
	return nil
}

// Label renders the one-hour unit starting at start, e.g. "09:00 - 10:00".
func Label(start int) string {
	return OccupiedRange(start, 1).String()
}
