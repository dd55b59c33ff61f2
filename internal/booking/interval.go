package booking

import (
	"time"

	"github.com/ormasrl/tenderdesk/internal/model"
)

// End is the upper bound of a booking interval. An unbounded end means the
// vehicle is out until handed back, so the interval conflicts with everything
// after its start.
type End struct {
	bounded bool
	at      time.Time
}

func BoundedEnd(at time.Time) End { return End{bounded: true, at: at} }

func UnboundedEnd() End { return End{} }

// Bounded returns the end instant and whether one exists.
func (e End) Bounded() (time.Time, bool) { return e.at, e.bounded }

// Interval is half-open: [Start, End). A booking ending exactly when another
// begins does not conflict (hand-back followed by a new assignment).
type Interval struct {
	Start time.Time
	End   End
}

func NewInterval(start time.Time, end *time.Time) Interval {
	if end == nil {
		return Interval{Start: start, End: UnboundedEnd()}
	}
	return Interval{Start: start, End: BoundedEnd(*end)}
}

// IntervalOf converts a stored booking into its interval.
func IntervalOf(b model.VehicleBooking) Interval {
	return NewInterval(b.StartAt, b.EndAt)
}

// Contains reports whether the interval covers the given instant.
func (i Interval) Contains(at time.Time) bool {
	if at.Before(i.Start) {
		return false
	}
	end, ok := i.End.Bounded()
	return !ok || at.Before(end)
}

// Conflicts reports whether two intervals share at least one instant:
// a.start < effectiveEnd(b) && b.start < effectiveEnd(a), with an unbounded
// end standing in for +infinity.
func Conflicts(a, b Interval) bool {
	return startsBeforeEnd(a.Start, b.End) && startsBeforeEnd(b.Start, a.End)
}

func startsBeforeEnd(start time.Time, end End) bool {
	at, ok := end.Bounded()
	if !ok {
		return true
	}
	return start.Before(at)
}

// FindConflict returns the first booking whose interval conflicts with the
// candidate, or nil. Plain O(n) scan; no ordering assumed.
func FindConflict(candidate Interval, existing []model.VehicleBooking) *model.VehicleBooking {
	for i := range existing {
		if Conflicts(candidate, IntervalOf(existing[i])) {
			return &existing[i]
		}
	}
	return nil
}

// StatusAt derives the display status of a vehicle from its bookings:
// IN_USE if a booking covers now, RESERVED if one starts later, AVAILABLE
// otherwise.
func StatusAt(bookings []model.VehicleBooking, now time.Time) model.VehicleStatus {
	reserved := false
	for i := range bookings {
		iv := IntervalOf(bookings[i])
		if iv.Contains(now) {
			return model.VehicleStatusInUse
		}
		if iv.Start.After(now) {
			reserved = true
		}
	}
	if reserved {
		return model.VehicleStatusReserved
	}
	return model.VehicleStatusAvailable
}
