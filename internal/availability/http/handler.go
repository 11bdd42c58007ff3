package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ashmont-labs/bookinglink-backend/internal/availability"
	"github.com/ashmont-labs/bookinglink-backend/internal/bookinglink"
	"github.com/ashmont-labs/bookinglink-backend/internal/catalog"
	"github.com/ashmont-labs/bookinglink-backend/internal/pkg/response"
)

type Handler struct {
	service     availability.Service
	linkService bookinglink.Service
	catalog     catalog.Repository
}

func NewHandler(service availability.Service, linkService bookinglink.Service, cat catalog.Repository) *Handler {
	return &Handler{
		service:     service,
		linkService: linkService,
		catalog:     cat,
	}
}

// Range handles GET /public/availability/:subdomain/:slug?start=...&end=...
func (h *Handler) Range(c *gin.Context) {
	var q RangeRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid start/end query param"})
		return
	}
	if q.End < q.Start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}

	provider, err := h.catalog.GetProviderBySubdomain(c.Request.Context(), c.Param("subdomain"))
	if err != nil {
		response.Error(c, err)
		return
	}

	link, err := h.linkService.GetBySlug(c.Request.Context(), provider.ID, c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	open, booked, timezone, err := h.service.OpenSlots(c.Request.Context(), link.ID, q.Start, q.End)
	if err != nil {
		response.Error(c, err)
		return
	}

	if timezone == "" {
		timezone = link.Availability.Timezone
	}

	c.JSON(http.StatusOK, NewAvailabilityResponse(open, booked, timezone))
}
