package schedule

import (
	"sort"
	"time"

	"residency/internal/domain"
)

// GridDays is the fixed size of the month view: six full weeks.
const GridDays = 42

// MaxVisiblePerDay caps how many bookings a day cell lists; the rest are
// reported through Overflow.
const MaxVisiblePerDay = 3

type DayCell struct {
	Date        time.Time        `json:"date"`
	InMonth     bool             `json:"inMonth"`
	Bookings    []domain.Booking `json:"bookings"`
	Overflow    int              `json:"overflow"`
	HasConflict bool             `json:"hasConflict"`
}

// GridStart returns midnight of the Sunday on or before the first day of
// ref's month, in ref's location.
func GridStart(ref time.Time) time.Time {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	return first.AddDate(0, 0, -int(first.Weekday()))
}

// MonthGrid projects bookings onto a 42-day grid starting at GridStart(ref).
// Each booking lands in the cell of its start date. A cell's conflict flag is
// set when any two of its non-terminal bookings overlap; the flag is purely
// informational and does not gate anything. Pure function of its inputs.
func MonthGrid(ref time.Time, bookings []domain.Booking) []DayCell {
	start := GridStart(ref)

	byDay := make(map[int][]domain.Booking)
	for _, b := range bookings {
		day := b.StartTime.In(ref.Location())
		idx := int(civilDays(day) - civilDays(start))
		if idx < 0 || idx >= GridDays {
			continue
		}
		byDay[idx] = append(byDay[idx], b)
	}

	cells := make([]DayCell, 0, GridDays)
	for i := 0; i < GridDays; i++ {
		date := start.AddDate(0, 0, i)
		day := byDay[i]
		sort.Slice(day, func(a, b int) bool { return day[a].StartTime.Before(day[b].StartTime) })

		cell := DayCell{
			Date:        date,
			InMonth:     date.Month() == ref.Month(),
			HasConflict: dayHasConflict(day),
		}
		if len(day) > MaxVisiblePerDay {
			cell.Bookings = day[:MaxVisiblePerDay]
			cell.Overflow = len(day) - MaxVisiblePerDay
		} else {
			cell.Bookings = day
		}
		cells = append(cells, cell)
	}
	return cells
}

// civilDays numbers t's calendar date in whole days since the epoch,
// ignoring the clock and location. Elapsed-hour arithmetic would mis-bucket
// dates past a DST transition, where a local day is not 24 hours long.
func civilDays(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func dayHasConflict(day []domain.Booking) bool {
	for i := 0; i < len(day); i++ {
		if day[i].Status.Terminal() {
			continue
		}
		for j := i + 1; j < len(day); j++ {
			if day[j].Status.Terminal() {
				continue
			}
			if Overlaps(day[i].StartTime, day[i].EndTime, day[j].StartTime, day[j].EndTime) {
				return true
			}
		}
	}
	return false
}
