package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ashmont-labs/bookinglink-backend/internal/auth"
	"github.com/ashmont-labs/bookinglink-backend/internal/availability"
	availabilityHttp "github.com/ashmont-labs/bookinglink-backend/internal/availability/http"
	"github.com/ashmont-labs/bookinglink-backend/internal/booking"
	bookingHttp "github.com/ashmont-labs/bookinglink-backend/internal/booking/http"
	"github.com/ashmont-labs/bookinglink-backend/internal/bookinglink"
	bookinglinkHttp "github.com/ashmont-labs/bookinglink-backend/internal/bookinglink/http"
	"github.com/ashmont-labs/bookinglink-backend/internal/catalog"
)

// Config holds the services and settings the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	AvailabilityService availability.Service
	BookingService      booking.Service
	LinkService         bookinglink.Service
	Catalog             catalog.Repository
	JWTManager          *auth.JWTManager
}

// NewRouter initializes the HTTP router engine: middleware (CORS, logger,
// recovery) plus the public booking surface and the authenticated admin
// surface.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	availabilityHandler := availabilityHttp.NewHandler(cfg.AvailabilityService, cfg.LinkService, cfg.Catalog)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.LinkService, cfg.Catalog)
	linkHandler := bookinglinkHttp.NewHandler(cfg.LinkService)

	v1 := r.Group("/v1")
	{
		// Public, unauthenticated surface used by the booking page.
		public := v1.Group("/public")
		{
			availabilityHttp.RegisterRoutes(public, availabilityHandler)
			bookingHttp.RegisterRoutes(public, bookingHandler)
		}

		// Provider-admin surface.
		bookinglinkHttp.RegisterRoutes(v1, linkHandler, authMiddleware)
	}

	return r
}
