package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Generator expands an availability config into per-day cache entries over
// the configured booking horizon. It must run synchronously whenever a
// booking link's availability config is created or changed, before the link
// is served publicly.
type Generator struct {
	store  Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewGenerator(store Repository, logger *slog.Logger) *Generator {
	return &Generator{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Generate walks every date from cfg.StartDate (inclusive) to
// StartDate+MaxBookingDaysInFuture (exclusive), expands the matching
// weekday's windows and upserts one cache entry per non-empty day. Existing
// entries for a day are fully overwritten; that is how config edits
// propagate.
//
// Per-day expansion problems are logged and skipped so one bad day cannot
// starve the rest of the horizon. Store write failures abort the run and are
// returned to the caller: a booking link must not be advertised with a
// silently stale cache.
func (g *Generator) Generate(ctx context.Context, providerID, bookingLinkID string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	loc := cfg.Location()
	slotDur := cfg.SlotInterval()
	gap := cfg.SlotGap()

	startDay := cfg.StartDay()
	endDay := startDay.AddDate(0, 0, cfg.MaxBookingDaysInFuture)

	// Entries are regenerable once the horizon has rolled past them, so the
	// expiry tracks the configured horizon rather than a fixed window.
	expiresAt := g.now().UTC().AddDate(0, 0, cfg.MaxBookingDaysInFuture)

	days := 0
	for day := startDay; day.Before(endDay); day = day.AddDate(0, 0, 1) {
		weekday := WeekdayInZone(day, loc)

		sched, ok := cfg.WorkingHours[weekday]
		if !ok || !sched.Enabled || len(sched.Windows) == 0 {
			continue
		}

		slots := SlotsForDay(day, sched.Windows, slotDur, gap)
		if len(slots) == 0 {
			g.logger.Warn("availability generation produced no slots for an enabled day",
				"booking_link_id", bookingLinkID,
				"date", day.Format(DateLayout),
				"weekday", weekday,
			)
			continue
		}

		entry := &CacheEntry{
			ProviderID:    providerID,
			BookingLinkID: bookingLinkID,
			StartDate:     day.Format(DateLayout),
			Timezone:      cfg.Timezone,
			Slots:         slots,
			ExpiresAt:     expiresAt,
		}

		if err := g.store.Upsert(ctx, entry); err != nil {
			return fmt.Errorf("generate availability for %s: %w", entry.StartDate, err)
		}
		days++
	}

	g.logger.Info("availability cache generated",
		"booking_link_id", bookingLinkID,
		"provider_id", providerID,
		"days_written", days,
		"horizon_days", cfg.MaxBookingDaysInFuture,
	)
	return nil
}
