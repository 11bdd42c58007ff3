package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashmont-labs/bookinglink-backend/internal/auth"
	"github.com/ashmont-labs/bookinglink-backend/internal/bookinglink"
	"github.com/ashmont-labs/bookinglink-backend/internal/pkg/request"
	"github.com/ashmont-labs/bookinglink-backend/internal/pkg/response"
)

type Handler struct {
	service bookinglink.Service
}

func NewHandler(service bookinglink.Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /booking-links. The provider is taken from the
// authenticated admin's claims; cache generation runs before the response.
func (h *Handler) Create(c *gin.Context) {
	providerID := auth.GetProviderID(c)
	if providerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body CreateBookingLinkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	link, err := h.service.Create(c.Request.Context(), bookinglink.CreateRequest{
		ProviderID:              providerID,
		Slug:                    body.Slug,
		Name:                    body.Name,
		Availability:            body.AvailabilityConfig.toConfig(),
		CancellationCutoffHours: body.CancellationCutoffHours,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingLinkResponse(link))
}

// Get handles GET /booking-links/:id.
func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	link, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if link.ProviderID != auth.GetProviderID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}

	c.JSON(http.StatusOK, NewBookingLinkResponse(link))
}

// List handles GET /booking-links for the authenticated provider.
func (h *Handler) List(c *gin.Context) {
	providerID := auth.GetProviderID(c)
	if providerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var params request.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination params"})
		return
	}

	links, err := h.service.ListByProvider(c.Request.Context(), providerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	total := len(links)
	start := (params.Page - 1) * params.PageSize
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}

	items := make([]BookingLinkResponse, 0, end-start)
	for _, l := range links[start:end] {
		items = append(items, NewBookingLinkResponse(l))
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, params.Page, params.PageSize, total))
}

// Update handles PATCH /booking-links/:id. A changed availability config
// triggers synchronous cache regeneration.
func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid UUID"})
		return
	}

	existing, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if existing.ProviderID != auth.GetProviderID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
		return
	}

	var body UpdateBookingLinkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req := bookinglink.UpdateRequest{
		Slug:                    body.Slug,
		Name:                    body.Name,
		CancellationCutoffHours: body.CancellationCutoffHours,
	}
	if body.AvailabilityConfig != nil {
		cfg := body.AvailabilityConfig.toConfig()
		req.Availability = &cfg
	}

	link, err := h.service.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingLinkResponse(link))
}
