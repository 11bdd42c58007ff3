package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(hour, min int) time.Time {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.UTC) // a Monday
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandWindow(t *testing.T) {
	monday := day(2026, 3, 2)

	tests := []struct {
		name    string
		window  Window
		slotDur time.Duration
		gap     time.Duration
		want    []Slot
	}{
		{
			name:    "two hour window, 30m slots, no gap",
			window:  Window{Start: utc(9, 0), End: utc(11, 0)},
			slotDur: 30 * time.Minute,
			want: []Slot{
				{Start: utc(9, 0), End: utc(9, 30)},
				{Start: utc(9, 30), End: utc(10, 0)},
				{Start: utc(10, 0), End: utc(10, 30)},
				{Start: utc(10, 30), End: utc(11, 0)},
			},
		},
		{
			name:    "two hour window, 30m slots, 10m gap drops trailing partial",
			window:  Window{Start: utc(9, 0), End: utc(11, 0)},
			slotDur: 30 * time.Minute,
			gap:     10 * time.Minute,
			want: []Slot{
				{Start: utc(9, 0), End: utc(9, 30)},
				{Start: utc(9, 40), End: utc(10, 10)},
				{Start: utc(10, 20), End: utc(10, 50)},
			},
		},
		{
			name:    "slot exactly fills window",
			window:  Window{Start: utc(9, 0), End: utc(9, 30)},
			slotDur: 30 * time.Minute,
			want:    []Slot{{Start: utc(9, 0), End: utc(9, 30)}},
		},
		{
			name:    "window shorter than slot emits nothing",
			window:  Window{Start: utc(9, 0), End: utc(9, 20)},
			slotDur: 30 * time.Minute,
			want:    nil,
		},
		{
			name:    "non-positive duration emits nothing",
			window:  Window{Start: utc(9, 0), End: utc(11, 0)},
			slotDur: 0,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandWindow(monday, tt.window, tt.slotDur, tt.gap)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandWindowReappliesTimeOfDayToTargetDate(t *testing.T) {
	// Window markers carry a placeholder date; only the UTC time-of-day
	// matters.
	marker := Window{
		Start: time.Date(2025, 8, 4, 3, 30, 0, 0, time.UTC),
		End:   time.Date(2025, 8, 4, 7, 30, 0, 0, time.UTC),
	}
	target := day(2026, 3, 9)

	slots := ExpandWindow(target, marker, 30*time.Minute, 0)
	require.NotEmpty(t, slots)

	assert.Equal(t, time.Date(2026, 3, 9, 3, 30, 0, 0, time.UTC), slots[0].Start)
	for _, s := range slots {
		assert.Equal(t, target.Day(), s.Start.Day())
	}
}

func TestExpandWindowSlotCountMatchesFloorFormula(t *testing.T) {
	// count == floor(L / (I + gap)) for gap > 0, floor(L / I) for gap == 0,
	// and every slot has exactly duration I.
	cases := []struct {
		windowMinutes int
		slotMinutes   int
		gapMinutes    int
	}{
		{120, 30, 0},
		{120, 30, 10},
		{90, 45, 0},
		{90, 20, 5},
		{60, 25, 15},
		{480, 60, 0},
	}

	monday := day(2026, 3, 2)
	for _, c := range cases {
		w := Window{Start: utc(9, 0), End: utc(9, 0).Add(time.Duration(c.windowMinutes) * time.Minute)}
		slots := ExpandWindow(monday, w, time.Duration(c.slotMinutes)*time.Minute, time.Duration(c.gapMinutes)*time.Minute)

		want := c.windowMinutes / (c.slotMinutes + c.gapMinutes)
		// The last slot needs no trailing gap, so one extra slot fits
		// whenever the remainder still holds a full slot.
		if c.gapMinutes > 0 && c.windowMinutes%(c.slotMinutes+c.gapMinutes) >= c.slotMinutes {
			want++
		}
		assert.Len(t, slots, want, "window=%dm slot=%dm gap=%dm", c.windowMinutes, c.slotMinutes, c.gapMinutes)

		for _, s := range slots {
			assert.Equal(t, time.Duration(c.slotMinutes)*time.Minute, s.End.Sub(s.Start))
			assert.False(t, s.Start.Before(w.Start), "slot starts before window start")
			assert.False(t, s.End.After(applyTimeOfDay(monday, w.End)), "slot ends after window end")
		}
	}
}

func TestSlotsForDayConcatenatesWindows(t *testing.T) {
	monday := day(2026, 3, 2)
	windows := []Window{
		{Start: utc(9, 0), End: utc(10, 0)},
		{Start: utc(14, 0), End: utc(15, 0)},
	}

	slots := SlotsForDay(monday, windows, 30*time.Minute, 0)
	require.Len(t, slots, 4)
	assert.Equal(t, utc(9, 0), slots[0].Start)
	assert.Equal(t, utc(14, 0), slots[2].Start)

	// Output remains sorted ascending by start.
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i].Start.After(slots[i-1].Start))
	}
}

func TestWeekdayInZone(t *testing.T) {
	// 2026-03-02 is a Monday. Zones at or ahead of UTC observe the same
	// weekday at the day's UTC midnight.
	assert.Equal(t, "monday", WeekdayInZone(day(2026, 3, 2), time.UTC))

	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	assert.Equal(t, "monday", WeekdayInZone(day(2026, 3, 2), kolkata))

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "monday", WeekdayInZone(day(2026, 3, 2), tokyo))

	// A zone behind UTC is still on the previous day at that instant, so
	// the working-hours weekday shifts back by one.
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "sunday", WeekdayInZone(day(2026, 3, 2), ny))
	assert.Equal(t, "saturday", WeekdayInZone(day(2026, 3, 1), ny))
}

func TestSlotOverlaps(t *testing.T) {
	s := Slot{Start: utc(9, 0), End: utc(9, 30)}

	assert.True(t, s.Overlaps(utc(9, 0), utc(9, 30)))
	assert.True(t, s.Overlaps(utc(9, 15), utc(9, 45)))
	assert.True(t, s.Overlaps(utc(8, 45), utc(9, 15)))
	// Touching intervals do not overlap (half-open semantics).
	assert.False(t, s.Overlaps(utc(9, 30), utc(10, 0)))
	assert.False(t, s.Overlaps(utc(8, 30), utc(9, 0)))
}
