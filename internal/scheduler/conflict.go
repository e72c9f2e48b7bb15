package scheduler

import "github.com/example/room-reservations/internal/slot"

// Reservation is the part of a booking the detector needs.
type Reservation struct {
	ID       string
	RoomID   string
	Date     string
	Slot     int
	Duration int
	Rejected bool
}

// Range returns the occupied hours, treating a missing duration as one hour.
func (r Reservation) Range() slot.Range {
	return slot.OccupiedRange(r.Slot, slot.NormalizeDuration(r.Duration))
}

// Options tunes conflict detection.
type Options struct {
	// RejectedBlocks keeps rejected reservations on the grid as blockers.
	RejectedBlocks bool
}

// Conflict details an existing reservation that overlaps the candidate.
type Conflict struct {
	WithReservationID string
	RoomID            string
	Date              string
	Existing          slot.Range
	Overlap           slot.Range
}

// DetectConflicts returns every existing reservation on the candidate's room
// and date whose hours intersect the candidate's hours. A reservation is never
// reported as conflicting with itself.
func DetectConflicts(existing []Reservation, candidate Reservation, opts Options) []Conflict {
	if len(existing) == 0 {
		return nil
	}

	want := candidate.Range()
	var conflicts []Conflict
	for _, other := range existing {
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		if other.RoomID != candidate.RoomID || other.Date != candidate.Date {
			continue
		}
		if other.Rejected && !opts.RejectedBlocks {
			continue
		}
		have := other.Range()
		overlap, ok := have.Intersect(want)
		if !ok {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithReservationID: other.ID,
			RoomID:            other.RoomID,
			Date:              other.Date,
			Existing:          have,
			Overlap:           overlap,
		})
	}
	return conflicts
}

// Disjoint reports whether no two reservations in the set share an hour on the
// same room and date. Rejected reservations are ignored unless opts says
// otherwise.
func Disjoint(reservations []Reservation, opts Options) bool {
	for i, candidate := range reservations {
		if candidate.Rejected && !opts.RejectedBlocks {
			continue
		}
		if len(DetectConflicts(reservations[i+1:], candidate, opts)) > 0 {
			return false
		}
	}
	return true
}
