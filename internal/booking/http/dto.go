package http

import (
	"time"

	"github.com/ashmont-labs/bookinglink-backend/internal/booking"
)

// CreateBookingBody is the public booking request payload.
type CreateBookingBody struct {
	ServiceID   string `json:"serviceId" binding:"required,uuid"`
	StaffUserID string `json:"staffUserId" binding:"omitempty,uuid"`

	ClientName  string `json:"clientName" binding:"required"`
	ClientEmail string `json:"clientEmail" binding:"required,email"`
	ClientPhone string `json:"clientPhone"`

	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
	Timezone  string    `json:"timezone" binding:"required"`

	Status        string  `json:"status" binding:"omitempty,oneof=confirmed rescheduled cancelled no_show"`
	PaymentStatus string  `json:"paymentStatus" binding:"omitempty,oneof=paid unpaid refunded"`
	Price         float64 `json:"price" binding:"omitempty,min=0"`

	AttendeeCount int            `json:"attendeeCount" binding:"omitempty,min=1"`
	IntakeData    map[string]any `json:"intakeData"`
	Attendees     []AttendeeBody `json:"attendees" binding:"omitempty,dive"`
	AddonIDs      []string       `json:"addonIds" binding:"omitempty,dive,uuid"`
}

type AttendeeBody struct {
	FullName   string         `json:"fullName" binding:"required"`
	Email      string         `json:"email" binding:"required,email"`
	Phone      string         `json:"phone"`
	IntakeData map[string]any `json:"intakeData"`
}

// RescheduleBody carries the new interval for a token reschedule.
type RescheduleBody struct {
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
}

// Validate performs custom validation for RescheduleBody.
func (r *RescheduleBody) Validate() error {
	if !r.EndTime.After(r.StartTime) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

// BookingResponse is the public read view of a booking. Capability tokens
// are only disclosed on creation.
type BookingResponse struct {
	ID            string    `json:"id"`
	BookingLinkID string    `json:"bookingLinkId"`
	ServiceID     string    `json:"serviceId"`
	StaffUserID   string    `json:"staffUserId"`
	ClientName    string    `json:"clientName"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Timezone      string    `json:"timezone"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	Price         float64   `json:"price"`
	AttendeeCount int       `json:"attendeeCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		BookingLinkID: b.BookingLinkID,
		ServiceID:     b.ServiceID,
		StaffUserID:   b.StaffUserID,
		ClientName:    b.ClientName,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Timezone:      b.Timezone,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		Price:         b.Price,
		AttendeeCount: b.AttendeeCount,
		CreatedAt:     b.CreatedAt,
	}
}

// CreatedResponse is returned from the public booking endpoint. It includes
// the self-service capability tokens exactly once.
type CreatedResponse struct {
	Success         bool   `json:"success"`
	BookingID       string `json:"bookingId"`
	RescheduleToken string `json:"rescheduleToken,omitempty"`
	CancelToken     string `json:"cancelToken,omitempty"`
}

func NewCreatedResponse(b *booking.Booking) CreatedResponse {
	resp := CreatedResponse{
		Success:   true,
		BookingID: b.ID,
	}
	if b.RescheduleToken != nil {
		resp.RescheduleToken = *b.RescheduleToken
	}
	if b.CancelToken != nil {
		resp.CancelToken = *b.CancelToken
	}
	return resp
}
