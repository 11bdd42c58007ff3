package bookinglink

import (
	"net/http"
	"time"

	"github.com/ashmont-labs/bookinglink-backend/internal/availability"
	"github.com/ashmont-labs/bookinglink-backend/internal/pkg/apperror"
)

var (
	ErrNotFound  = apperror.New(http.StatusNotFound, "booking link not found")
	ErrSlugTaken = apperror.New(http.StatusConflict, "slug already in use for this provider")
)

// BookingLink is a provider-published, shareable page clients book against.
// It bundles the availability template with a slug under the provider's
// subdomain.
type BookingLink struct {
	ID         string
	ProviderID string
	Slug       string
	Name       string

	// Availability is the weekly recurring template this link is bookable
	// under. Stored as JSONB alongside the link record.
	Availability availability.Config

	// CancellationCutoffHours is the minimum notice, in hours, required to
	// cancel a booking. Zero means cancellable up to the start time.
	CancellationCutoffHours int

	CreatedAt time.Time
	UpdatedAt time.Time
}
