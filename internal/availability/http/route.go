package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the public availability query endpoint.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	g.GET("/availability/:subdomain/:slug", h.Range)
}
