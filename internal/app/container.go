package app

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashmont-labs/bookinglink-backend/internal/api"
	"github.com/ashmont-labs/bookinglink-backend/internal/auth"
	"github.com/ashmont-labs/bookinglink-backend/internal/availability"
	"github.com/ashmont-labs/bookinglink-backend/internal/booking"
	"github.com/ashmont-labs/bookinglink-backend/internal/bookinglink"
	"github.com/ashmont-labs/bookinglink-backend/internal/catalog"
	"github.com/ashmont-labs/bookinglink-backend/internal/notify"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Logger       *slog.Logger
	JWTSecret    string
	JWTTTL       time.Duration

	SMTPHost string
	SMTPPort string
	SMTPFrom string

	// DefaultCancellationCutoffHours applies to booking links created
	// without their own cutoff.
	DefaultCancellationCutoffHours int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager

	// Exposed for tests and tooling.
	LinkService    bookinglink.Service
	BookingService booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Collaborator reads (providers, services, staff, addons)
	catalogRepo := catalog.NewPgxRepository(cfg.DBPool)

	// Availability: cache store, generator and query service
	availabilityRepo := availability.NewPgxRepository(cfg.DBPool)
	generator := availability.NewGenerator(availabilityRepo, cfg.Logger)

	// Booking repository doubles as the live-booking source for the
	// availability filter.
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	availabilityService := availability.NewService(availabilityRepo, bookingRepo, cfg.Logger)

	// Booking links (availability config ownership, sync regeneration)
	linkRepo := bookinglink.NewPgxRepository(cfg.DBPool)
	linkService := bookinglink.NewService(linkRepo, generator, cfg.DefaultCancellationCutoffHours)

	// Notifications
	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)
	notifyService := notify.NewService(mailer, cfg.Logger)

	// Booking engines
	bookingService := booking.NewService(
		bookingRepo,
		linkService,
		catalogRepo,
		availabilityService,
		notifyService,
		cfg.Logger,
	)

	router := api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		AvailabilityService: availabilityService,
		BookingService:      bookingService,
		LinkService:         linkService,
		Catalog:             catalogRepo,
		JWTManager:          jwtManager,
	})

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		LinkService:    linkService,
		BookingService: bookingService,
	}
}
