package catalog

import (
	"net/http"
	"time"

	"github.com/ashmont-labs/bookinglink-backend/internal/pkg/apperror"
)

var (
	ErrProviderNotFound = apperror.New(http.StatusNotFound, "provider not found")
	ErrServiceNotFound  = apperror.New(http.StatusNotFound, "service not found")
	ErrStaffNotFound    = apperror.New(http.StatusNotFound, "staff member not found")
)

// Provider is a tenant: the business that publishes booking links.
type Provider struct {
	ID        string
	Name      string
	Subdomain string
	CreatedAt time.Time
}

// Service is a bookable offering owned by a provider.
type Service struct {
	ID         string
	ProviderID string
	Name       string
	Price      float64
	CreatedAt  time.Time
}

// Staff is a provider team member bookings are assigned to.
type Staff struct {
	ID         string
	ProviderID string
	FirstName  string
	LastName   string
	Email      string
	CreatedAt  time.Time
}
