package availability

import (
	"net/http"
	"strings"
	"time"

	"github.com/ashmont-labs/bookinglink-backend/internal/pkg/apperror"
)

const (
	// DefaultSlotIntervalMinutes is used when a config omits the slot size.
	DefaultSlotIntervalMinutes = 30
)

var weekdayNames = map[string]bool{
	"monday":    true,
	"tuesday":   true,
	"wednesday": true,
	"thursday":  true,
	"friday":    true,
	"saturday":  true,
	"sunday":    true,
}

// Window is one working interval of a weekday schedule. Start and End are
// full instants whose UTC time-of-day component defines the interval; the
// date component is a placeholder and is reapplied to each generated day.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DaySchedule is the recurring template for a single weekday.
type DaySchedule struct {
	Enabled bool     `json:"enabled"`
	Windows []Window `json:"slots"`
}

// Config is the weekly recurring availability template attached to a
// booking link.
type Config struct {
	Timezone               string                 `json:"timezone"`
	WorkingHours           map[string]DaySchedule `json:"workingHours"`
	StartDate              string                 `json:"startDate"` // DateLayout
	MaxBookingDaysInFuture int                    `json:"maxBookingDaysInFuture"`
	SlotIntervalMinutes    int                    `json:"slotIntervalMinutes"`
	SlotGapMinutes         int                    `json:"slotGapMinutes"`
}

// SlotInterval returns the configured slot duration, applying the default.
func (c *Config) SlotInterval() time.Duration {
	if c.SlotIntervalMinutes <= 0 {
		return DefaultSlotIntervalMinutes * time.Minute
	}
	return time.Duration(c.SlotIntervalMinutes) * time.Minute
}

// SlotGap returns the configured gap between consecutive slots.
func (c *Config) SlotGap() time.Duration {
	if c.SlotGapMinutes <= 0 {
		return 0
	}
	return time.Duration(c.SlotGapMinutes) * time.Minute
}

// Validate normalizes the config in place and reports the first problem
// found. Weekday keys are lowercased; unknown keys, unloadable timezones,
// inverted windows and non-positive horizons all reject the config.
func (c *Config) Validate() error {
	if c.Timezone == "" {
		return apperror.New(http.StatusBadRequest, "availability config: timezone is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return apperror.Newf(http.StatusBadRequest, "availability config: unknown timezone %q", c.Timezone)
	}

	if c.StartDate == "" {
		return apperror.New(http.StatusBadRequest, "availability config: startDate is required")
	}
	if _, err := time.Parse(DateLayout, c.StartDate); err != nil {
		return apperror.Newf(http.StatusBadRequest, "availability config: startDate %q is not a valid date (want YYYY-MM-DD)", c.StartDate)
	}

	if c.MaxBookingDaysInFuture <= 0 {
		return apperror.New(http.StatusBadRequest, "availability config: maxBookingDaysInFuture must be positive")
	}
	if c.SlotIntervalMinutes < 0 {
		return apperror.New(http.StatusBadRequest, "availability config: slotIntervalMinutes must be positive")
	}
	if c.SlotGapMinutes < 0 {
		return apperror.New(http.StatusBadRequest, "availability config: slotGapMinutes cannot be negative")
	}

	if len(c.WorkingHours) == 0 {
		return apperror.New(http.StatusBadRequest, "availability config: workingHours is required")
	}

	normalized := make(map[string]DaySchedule, len(c.WorkingHours))
	for day, sched := range c.WorkingHours {
		key := strings.ToLower(strings.TrimSpace(day))
		if !weekdayNames[key] {
			return apperror.Newf(http.StatusBadRequest, "availability config: %q is not a weekday name", day)
		}
		if _, dup := normalized[key]; dup {
			return apperror.Newf(http.StatusBadRequest, "availability config: duplicate weekday %q", key)
		}
		for _, w := range sched.Windows {
			if !w.End.After(w.Start) {
				return apperror.Newf(http.StatusBadRequest, "availability config: %s has a window whose end is not after its start", key)
			}
		}
		normalized[key] = sched
	}
	c.WorkingHours = normalized

	return nil
}

// StartDay returns the parsed first bookable calendar date at UTC midnight.
// Validate must have succeeded first.
func (c *Config) StartDay() time.Time {
	t, _ := time.Parse(DateLayout, c.StartDate)
	return t
}

// Location returns the provider's timezone. Validate must have succeeded
// first.
func (c *Config) Location() *time.Location {
	loc, _ := time.LoadLocation(c.Timezone)
	return loc
}
