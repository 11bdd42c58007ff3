package availability

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ActiveBookingSource exposes the time windows of non-cancelled bookings.
// Implemented by the booking repository; kept as a local interface so this
// package does not depend on the booking module.
type ActiveBookingSource interface {
	ListActiveWindows(ctx context.Context, bookingLinkID string, from, to time.Time) ([]Slot, error)
}

// Service answers availability queries and mediates cache mutations for the
// booking engines.
type Service interface {
	// OpenSlots flattens the link's cache entries for [fromDate, toDate] and
	// filters out any slot overlapping a live booking window. The second
	// return value is the booked windows, the third the cache timezone.
	OpenSlots(ctx context.Context, bookingLinkID, fromDate, toDate string) ([]Slot, []Slot, string, error)

	// ValidateSlot reports whether the exact {start,end} pair is present in
	// the day's cache entry. A missing entry reads as unavailable.
	ValidateSlot(ctx context.Context, bookingLinkID string, start, end time.Time) (bool, error)

	// ConsumeSlot removes a just-booked slot from the cache. Failures are
	// logged and swallowed: the booking record is the durable truth and the
	// cache is allowed to lag until the next regeneration.
	ConsumeSlot(ctx context.Context, bookingLinkID string, slot Slot)

	// ReleaseSlot returns a vacated slot to its day's cache entry. When the
	// day has no entry (expired or never generated) it logs loudly and
	// lazily creates a minimal entry holding just the freed slot, so freed
	// capacity is never silently dropped.
	ReleaseSlot(ctx context.Context, providerID, bookingLinkID, timezone string, slot Slot)
}

type service struct {
	repo     Repository
	bookings ActiveBookingSource
	logger   *slog.Logger
}

func NewService(repo Repository, bookings ActiveBookingSource, logger *slog.Logger) Service {
	return &service{
		repo:     repo,
		bookings: bookings,
		logger:   logger,
	}
}

func (s *service) OpenSlots(ctx context.Context, bookingLinkID, fromDate, toDate string) ([]Slot, []Slot, string, error) {
	entries, err := s.repo.ListRange(ctx, bookingLinkID, fromDate, toDate)
	if err != nil {
		return nil, nil, "", err
	}

	timezone := ""
	var cached []Slot
	for _, e := range entries {
		if timezone == "" {
			timezone = e.Timezone
		}
		cached = append(cached, e.Slots...)
	}

	from, err := time.Parse(DateLayout, fromDate)
	if err != nil {
		return nil, nil, "", err
	}
	to, err := time.Parse(DateLayout, toDate)
	if err != nil {
		return nil, nil, "", err
	}

	booked, err := s.bookings.ListActiveWindows(ctx, bookingLinkID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, nil, "", err
	}

	// Second safety net: the cache can lag behind bookings under concurrent
	// writers, so slots matching a live booking window are filtered here.
	open := make([]Slot, 0, len(cached))
	for _, slot := range cached {
		taken := false
		for _, b := range booked {
			if slot.Overlaps(b.Start, b.End) {
				taken = true
				break
			}
		}
		if !taken {
			open = append(open, slot)
		}
	}

	return open, booked, timezone, nil
}

func (s *service) ValidateSlot(ctx context.Context, bookingLinkID string, start, end time.Time) (bool, error) {
	entry, err := s.repo.Get(ctx, bookingLinkID, dayKey(start))
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return false, nil
		}
		return false, err
	}

	want := Slot{Start: start, End: end}
	for _, slot := range entry.Slots {
		if slot.Equal(want) {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) ConsumeSlot(ctx context.Context, bookingLinkID string, slot Slot) {
	err := s.repo.RemoveSlot(ctx, bookingLinkID, slot)
	if err == nil {
		return
	}

	s.logger.Warn("failed to remove booked slot from availability cache",
		"booking_link_id", bookingLinkID,
		"slot_start", slot.Start,
		"slot_end", slot.End,
		"error", err,
	)
}

func (s *service) ReleaseSlot(ctx context.Context, providerID, bookingLinkID, timezone string, slot Slot) {
	startDate := dayKey(slot.Start)

	err := s.repo.AddSlot(ctx, bookingLinkID, startDate, slot)
	if err == nil {
		return
	}
	if !errors.Is(err, ErrEntryNotFound) {
		s.logger.Warn("failed to return freed slot to availability cache",
			"booking_link_id", bookingLinkID,
			"date", startDate,
			"error", err,
		)
		return
	}

	s.logger.Warn("availability cache entry missing while freeing slot, recreating",
		"booking_link_id", bookingLinkID,
		"date", startDate,
	)

	// Minimal lazy entry: just the freed slot, expiring at the end of its
	// own day. The next full regeneration replaces it.
	entry := &CacheEntry{
		ProviderID:    providerID,
		BookingLinkID: bookingLinkID,
		StartDate:     startDate,
		Timezone:      timezone,
		Slots:         []Slot{slot},
		ExpiresAt:     slot.Start.UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1),
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		s.logger.Error("failed to recreate availability cache entry for freed slot",
			"booking_link_id", bookingLinkID,
			"date", startDate,
			"error", err,
		)
	}
}
