package http

import (
	"github.com/ashmont-labs/bookinglink-backend/internal/availability"
)

// RangeRequest defines the query parameters of the public availability
// endpoint. Dates are calendar days (YYYY-MM-DD), both inclusive.
type RangeRequest struct {
	Start string `form:"start" binding:"required,datetime=2006-01-02"`
	End   string `form:"end" binding:"required,datetime=2006-01-02"`
}

// AvailabilityResponse mirrors the public availability contract: the open
// slots after filtering against live bookings, plus the booked windows and
// the link's display timezone.
type AvailabilityResponse struct {
	AvailableSlots []availability.Slot `json:"availableSlots"`
	BookedSlots    []availability.Slot `json:"bookedSlots"`
	Timezone       string              `json:"timezone"`
}

func NewAvailabilityResponse(open, booked []availability.Slot, timezone string) AvailabilityResponse {
	if open == nil {
		open = []availability.Slot{}
	}
	if booked == nil {
		booked = []availability.Slot{}
	}
	return AvailabilityResponse{
		AvailableSlots: open,
		BookedSlots:    booked,
		Timezone:       timezone,
	}
}
