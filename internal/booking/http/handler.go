package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ashmont-labs/bookinglink-backend/internal/booking"
	"github.com/ashmont-labs/bookinglink-backend/internal/bookinglink"
	"github.com/ashmont-labs/bookinglink-backend/internal/catalog"
	"github.com/ashmont-labs/bookinglink-backend/internal/pkg/request"
	"github.com/ashmont-labs/bookinglink-backend/internal/pkg/response"
)

type Handler struct {
	service     booking.Service
	linkService bookinglink.Service
	catalog     catalog.Repository
}

func NewHandler(service booking.Service, linkService bookinglink.Service, cat catalog.Repository) *Handler {
	return &Handler{
		service:     service,
		linkService: linkService,
		catalog:     cat,
	}
}

// resolveLink maps the public (subdomain, slug) pair to a booking link.
func (h *Handler) resolveLink(c *gin.Context) (*bookinglink.BookingLink, bool) {
	provider, err := h.catalog.GetProviderBySubdomain(c.Request.Context(), c.Param("subdomain"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}

	link, err := h.linkService.GetBySlug(c.Request.Context(), provider.ID, c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return link, true
}

// Create handles POST /public/book/:subdomain/:slug.
func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	link, ok := h.resolveLink(c)
	if !ok {
		return
	}

	attendees := make([]booking.Attendee, len(body.Attendees))
	for i, a := range body.Attendees {
		attendees[i] = booking.Attendee{
			FullName:   a.FullName,
			Email:      a.Email,
			Phone:      a.Phone,
			IntakeData: a.IntakeData,
		}
	}

	req := booking.ReserveRequest{
		BookingLinkID: link.ID,
		ServiceID:     body.ServiceID,
		StaffUserID:   body.StaffUserID,
		ClientName:    body.ClientName,
		ClientEmail:   body.ClientEmail,
		ClientPhone:   body.ClientPhone,
		StartTime:     body.StartTime,
		EndTime:       body.EndTime,
		Timezone:      body.Timezone,
		Status:        booking.Status(body.Status),
		PaymentStatus: booking.PaymentStatus(body.PaymentStatus),
		Price:         body.Price,
		AttendeeCount: body.AttendeeCount,
		IntakeData:    body.IntakeData,
		Attendees:     attendees,
		AddonIDs:      body.AddonIDs,
	}

	b, err := h.service.Reserve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewCreatedResponse(b))
}

// Get handles GET /public/bookings/:id.
func (h *Handler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Reschedule handles POST /public/bookings/reschedule/:token.
func (h *Handler) Reschedule(c *gin.Context) {
	var uri request.ByTokenRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
		return
	}

	var body RescheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	b, err := h.service.RescheduleByToken(c.Request.Context(), uri.Token, body.StartTime, body.EndTime)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Cancel handles POST /public/bookings/cancel/:token.
func (h *Handler) Cancel(c *gin.Context) {
	var uri request.ByTokenRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
		return
	}

	b, err := h.service.CancelByToken(c.Request.Context(), uri.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}
