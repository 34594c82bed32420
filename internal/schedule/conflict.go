// Package schedule holds the pure time arithmetic of the booking subsystem:
// interval conflict detection and the month-grid calendar projection. Both
// operate on half-open [start, end) intervals, so back-to-back bookings that
// touch at a boundary never conflict.
package schedule

import (
	"time"

	"residency/internal/domain"
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FindConflicts returns every active booking for facilityID whose interval
// overlaps [start, end). Rejected and cancelled bookings are skipped, as is
// the booking with excludeID (pass 0 when creating a new booking).
func FindConflicts(bookings []domain.Booking, facilityID int64, start, end time.Time, excludeID int64) []domain.Booking {
	var conflicts []domain.Booking
	for _, b := range bookings {
		if b.FacilityID != facilityID {
			continue
		}
		if excludeID != 0 && b.ID == excludeID {
			continue
		}
		if !b.Status.Active() {
			continue
		}
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}
