package availability

import (
	"net/http"
	"time"

	"github.com/ashmont-labs/bookinglink-backend/internal/pkg/apperror"
)

var (
	ErrEntryNotFound = apperror.New(http.StatusNotFound, "no availability found for the requested date")
	ErrSlotNotFound  = apperror.New(http.StatusNotFound, "slot not present in availability for the requested date")
)

// DateLayout is the calendar-day key format used by the cache.
const DateLayout = "2006-01-02"

// Slot is a concrete bookable interval. Start and End are UTC instants and
// serialize as RFC 3339, so cached slot lists compare by exact value.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Equal reports whether two slots cover the exact same instants.
func (s Slot) Equal(o Slot) bool {
	return s.Start.Equal(o.Start) && s.End.Equal(o.End)
}

// Overlaps reports whether the slot intersects [start, end).
func (s Slot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && s.End.After(start)
}

// CacheEntry is the materialized list of currently open slots for one
// booking link on one calendar day. It is a rebuildable projection: the
// authoritative fact for "is this slot taken" is always the bookings table.
type CacheEntry struct {
	ID            string
	ProviderID    string
	BookingLinkID string
	StartDate     string // calendar day key, DateLayout
	Timezone      string
	Slots         []Slot // kept sorted ascending by Start
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// dayKey maps an instant to the cache's calendar-day key (UTC frame).
func dayKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
