package booking

import (
	"net/http"
	"time"

	"github.com/ashmont-labs/bookinglink-backend/internal/pkg/apperror"
)

var (
	ErrNotFound              = apperror.New(http.StatusNotFound, "booking not found")
	ErrInvalidToken          = apperror.New(http.StatusNotFound, "invalid or expired token")
	ErrInvalidTimeRange      = apperror.New(http.StatusBadRequest, "start time must be before end time")
	ErrSlotUnavailable       = apperror.New(http.StatusBadRequest, "Selected time slot is not available")
	ErrSlotOverlap           = apperror.New(http.StatusConflict, "Booking overlaps with another booking")
	ErrNoStaffAssigned       = apperror.New(http.StatusBadRequest, "No staff assigned to this booking link")
	ErrInvalidService        = apperror.New(http.StatusBadRequest, "Invalid service for this provider")
	ErrInvalidStaff          = apperror.New(http.StatusBadRequest, "Invalid staff for this provider")
	ErrInvalidAddon          = apperror.New(http.StatusBadRequest, "One or more selected addons are invalid")
	ErrMissingAttendees      = apperror.New(http.StatusBadRequest, "Insufficient attendee information")
	ErrMissingRequiredFields = apperror.New(http.StatusBadRequest, "Missing required fields")
)

type Status string

const (
	StatusConfirmed   Status = "confirmed"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
	StatusNoShow      Status = "no_show"
)

// ValidStatus reports whether s is a known booking status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusRescheduled, StatusNoShow:
		return true
	}
	return false
}

// Active reports whether the status holds a staff member's time. Cancelled
// and no-show bookings do not block their slot.
func (s Status) Active() bool {
	return s == StatusConfirmed || s == StatusRescheduled
}

type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "paid"
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Attendee is an additional participant on a group booking.
type Attendee struct {
	FullName   string         `json:"full_name"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone,omitempty"`
	IntakeData map[string]any `json:"intake_data,omitempty"`
}

// Booking is the durable record of a reserved slot. It is never deleted;
// cancellation and no-show are status transitions.
type Booking struct {
	ID            string
	ProviderID    string
	BookingLinkID string
	ServiceID     string
	StaffUserID   string

	ClientName  string
	ClientEmail string
	ClientPhone string

	StartTime time.Time // UTC
	EndTime   time.Time // UTC
	Timezone  string    // display only, never used for arithmetic

	Status        Status
	PaymentStatus PaymentStatus
	Price         float64
	AttendeeCount int
	IntakeData    map[string]any
	Attendees     []Attendee

	// Capability tokens for unauthenticated client self-service. The
	// reschedule token survives a reschedule (repeatable); cancellation
	// clears both. Nil once cleared.
	RescheduleToken *string
	CancelToken     *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
