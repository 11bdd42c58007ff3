package http

import (
	"time"

	"github.com/ashmont-labs/bookinglink-backend/internal/availability"
	"github.com/ashmont-labs/bookinglink-backend/internal/bookinglink"
)

// AvailabilityConfigBody is the wire shape of a weekly availability
// template. Field names follow the stored JSON document.
type AvailabilityConfigBody struct {
	Timezone               string                        `json:"timezone" binding:"required"`
	WorkingHours           map[string]DayScheduleBody    `json:"workingHours" binding:"required"`
	StartDate              string                        `json:"startDate" binding:"required,datetime=2006-01-02"`
	MaxBookingDaysInFuture int                           `json:"maxBookingDaysInFuture" binding:"required,min=1"`
	SlotIntervalMinutes    int                           `json:"slotIntervalMinutes" binding:"omitempty,min=1"`
	SlotGapMinutes         int                           `json:"slotGapMinutes" binding:"omitempty,min=0"`
}

type DayScheduleBody struct {
	Enabled bool         `json:"enabled"`
	Slots   []WindowBody `json:"slots" binding:"omitempty,dive"`
}

type WindowBody struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

func (b *AvailabilityConfigBody) toConfig() availability.Config {
	hours := make(map[string]availability.DaySchedule, len(b.WorkingHours))
	for day, sched := range b.WorkingHours {
		windows := make([]availability.Window, len(sched.Slots))
		for i, w := range sched.Slots {
			windows[i] = availability.Window{Start: w.Start, End: w.End}
		}
		hours[day] = availability.DaySchedule{Enabled: sched.Enabled, Windows: windows}
	}
	return availability.Config{
		Timezone:               b.Timezone,
		WorkingHours:           hours,
		StartDate:              b.StartDate,
		MaxBookingDaysInFuture: b.MaxBookingDaysInFuture,
		SlotIntervalMinutes:    b.SlotIntervalMinutes,
		SlotGapMinutes:         b.SlotGapMinutes,
	}
}

type CreateBookingLinkBody struct {
	Slug                    string                 `json:"slug" binding:"required,lowercase"`
	Name                    string                 `json:"name" binding:"required"`
	AvailabilityConfig      AvailabilityConfigBody `json:"availabilityConfig" binding:"required"`
	CancellationCutoffHours int                    `json:"cancellationCutoffHours" binding:"omitempty,min=0"`
}

type UpdateBookingLinkBody struct {
	Slug                    *string                 `json:"slug" binding:"omitempty"`
	Name                    *string                 `json:"name" binding:"omitempty"`
	AvailabilityConfig      *AvailabilityConfigBody `json:"availabilityConfig"`
	CancellationCutoffHours *int                    `json:"cancellationCutoffHours" binding:"omitempty,min=0"`
}

type BookingLinkResponse struct {
	ID                      string              `json:"id"`
	ProviderID              string              `json:"providerId"`
	Slug                    string              `json:"slug"`
	Name                    string              `json:"name"`
	AvailabilityConfig      availability.Config `json:"availabilityConfig"`
	CancellationCutoffHours int                 `json:"cancellationCutoffHours"`
	CreatedAt               time.Time           `json:"createdAt"`
	UpdatedAt               time.Time           `json:"updatedAt"`
}

func NewBookingLinkResponse(l *bookinglink.BookingLink) BookingLinkResponse {
	return BookingLinkResponse{
		ID:                      l.ID,
		ProviderID:              l.ProviderID,
		Slug:                    l.Slug,
		Name:                    l.Name,
		AvailabilityConfig:      l.Availability,
		CancellationCutoffHours: l.CancellationCutoffHours,
		CreatedAt:               l.CreatedAt,
		UpdatedAt:               l.UpdatedAt,
	}
}
