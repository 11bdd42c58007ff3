package availability

import (
	"strings"
	"time"
)

// WeekdayInZone returns the lowercase weekday of the day's UTC midnight as
// observed in loc. Cache days are keyed by their UTC date, so the weekday
// that selects a day's working hours is the one a clock in loc shows at that
// instant; for zones behind UTC this is the previous calendar weekday.
func WeekdayInZone(day time.Time, loc *time.Location) string {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return strings.ToLower(midnight.In(loc).Weekday().String())
}

// ExpandWindow generates the bookable slots for one working window applied
// to the given calendar day. The window's UTC time-of-day components are
// reapplied to the day's date in UTC, then slots of exactly slotDur are
// emitted starting at the interval start and stepping by slotDur+gap. A slot
// is emitted only if its full duration fits before the interval end; a
// partial trailing slot is dropped.
func ExpandWindow(day time.Time, w Window, slotDur, gap time.Duration) []Slot {
	if slotDur <= 0 {
		return nil
	}

	start := applyTimeOfDay(day, w.Start)
	end := applyTimeOfDay(day, w.End)

	var slots []Slot
	for cur := start; !cur.Add(slotDur).After(end); cur = cur.Add(slotDur + gap) {
		slots = append(slots, Slot{Start: cur, End: cur.Add(slotDur)})
	}
	return slots
}

// SlotsForDay expands all of a weekday's working windows for the given
// calendar day and concatenates the results. Windows are expected in
// chronological, non-overlapping order, so the output stays sorted.
func SlotsForDay(day time.Time, windows []Window, slotDur, gap time.Duration) []Slot {
	var slots []Slot
	for _, w := range windows {
		slots = append(slots, ExpandWindow(day, w, slotDur, gap)...)
	}
	return slots
}

// applyTimeOfDay combines the calendar date of day with the UTC time-of-day
// of marker into a single UTC instant.
func applyTimeOfDay(day, marker time.Time) time.Time {
	m := marker.UTC()
	return time.Date(day.Year(), day.Month(), day.Day(), m.Hour(), m.Minute(), m.Second(), 0, time.UTC)
}
