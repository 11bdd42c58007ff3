package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the public, unauthenticated booking endpoints.
// Clients act through capability tokens, not accounts.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	g.POST("/book/:subdomain/:slug", h.Create)

	bookings := g.Group("/bookings")
	{
		bookings.GET("/:id", h.Get)
		bookings.POST("/reschedule/:token", h.Reschedule)
		bookings.POST("/cancel/:token", h.Cancel)
	}
}
