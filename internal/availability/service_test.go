package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBookings struct {
	windows []Slot
	err     error
}

func (s *stubBookings) ListActiveWindows(context.Context, string, time.Time, time.Time) ([]Slot, error) {
	return s.windows, s.err
}

func seedDay(t *testing.T, store *memStore, linkID, date string, slots []Slot) {
	t.Helper()
	require.NoError(t, store.Upsert(context.Background(), &CacheEntry{
		ProviderID:    "prov-1",
		BookingLinkID: linkID,
		StartDate:     date,
		Timezone:      "UTC",
		Slots:         slots,
		ExpiresAt:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}))
}

func TestOpenSlotsFiltersLiveBookings(t *testing.T) {
	store := newMemStore()
	seedDay(t, store, "link-1", "2026-03-02", []Slot{
		{Start: utc(9, 0), End: utc(9, 30)},
		{Start: utc(9, 30), End: utc(10, 0)},
		{Start: utc(10, 0), End: utc(10, 30)},
	})
	bookings := &stubBookings{windows: []Slot{{Start: utc(9, 30), End: utc(10, 0)}}}
	svc := NewService(store, bookings, testLogger())

	open, booked, tz, err := svc.OpenSlots(context.Background(), "link-1", "2026-03-02", "2026-03-02")
	require.NoError(t, err)

	assert.Equal(t, "UTC", tz)
	assert.Equal(t, []Slot{{Start: utc(9, 30), End: utc(10, 0)}}, booked)
	assert.Equal(t, []Slot{
		{Start: utc(9, 0), End: utc(9, 30)},
		{Start: utc(10, 0), End: utc(10, 30)},
	}, open)
}

func TestOpenSlotsEmptyRange(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &stubBookings{}, testLogger())

	open, booked, tz, err := svc.OpenSlots(context.Background(), "link-1", "2026-03-02", "2026-03-08")
	require.NoError(t, err)
	assert.Empty(t, open)
	assert.Empty(t, booked)
	assert.Empty(t, tz)
}

func TestValidateSlot(t *testing.T) {
	store := newMemStore()
	seedDay(t, store, "link-1", "2026-03-02", []Slot{
		{Start: utc(9, 0), End: utc(9, 30)},
	})
	svc := NewService(store, &stubBookings{}, testLogger())
	ctx := context.Background()

	ok, err := svc.ValidateSlot(ctx, "link-1", utc(9, 0), utc(9, 30))
	require.NoError(t, err)
	assert.True(t, ok)

	// Same start, different end: not an exact cached pair.
	ok, err = svc.ValidateSlot(ctx, "link-1", utc(9, 0), utc(10, 0))
	require.NoError(t, err)
	assert.False(t, ok)

	// A sub-interval of a cached slot is not bookable either.
	ok, err = svc.ValidateSlot(ctx, "link-1", utc(9, 10), utc(9, 25))
	require.NoError(t, err)
	assert.False(t, ok)

	// Missing day entry reads as unavailable, not as an error.
	ok, err = svc.ValidateSlot(ctx, "link-1", utc(9, 0).AddDate(0, 0, 1), utc(9, 30).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsumeSlotRemovesFromCache(t *testing.T) {
	store := newMemStore()
	seedDay(t, store, "link-1", "2026-03-02", []Slot{
		{Start: utc(9, 0), End: utc(9, 30)},
		{Start: utc(9, 30), End: utc(10, 0)},
	})
	svc := NewService(store, &stubBookings{}, testLogger())
	ctx := context.Background()

	svc.ConsumeSlot(ctx, "link-1", Slot{Start: utc(9, 0), End: utc(9, 30)})

	e, err := store.Get(ctx, "link-1", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, []Slot{{Start: utc(9, 30), End: utc(10, 0)}}, e.Slots)

	// Consuming an already-absent slot is a logged no-op.
	svc.ConsumeSlot(ctx, "link-1", Slot{Start: utc(9, 0), End: utc(9, 30)})
	e, err = store.Get(ctx, "link-1", "2026-03-02")
	require.NoError(t, err)
	assert.Len(t, e.Slots, 1)
}

func TestReleaseSlotReturnsToExistingEntry(t *testing.T) {
	store := newMemStore()
	seedDay(t, store, "link-1", "2026-03-02", []Slot{
		{Start: utc(10, 0), End: utc(10, 30)},
	})
	svc := NewService(store, &stubBookings{}, testLogger())
	ctx := context.Background()

	svc.ReleaseSlot(ctx, "prov-1", "link-1", "UTC", Slot{Start: utc(9, 0), End: utc(9, 30)})

	e, err := store.Get(ctx, "link-1", "2026-03-02")
	require.NoError(t, err)
	// Re-added slot lands in sorted position.
	assert.Equal(t, []Slot{
		{Start: utc(9, 0), End: utc(9, 30)},
		{Start: utc(10, 0), End: utc(10, 30)},
	}, e.Slots)
}

func TestReleaseSlotRecreatesMissingEntry(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &stubBookings{}, testLogger())
	ctx := context.Background()

	freed := Slot{Start: utc(9, 0), End: utc(9, 30)}
	svc.ReleaseSlot(ctx, "prov-1", "link-1", "America/New_York", freed)

	e, err := store.Get(ctx, "link-1", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, "prov-1", e.ProviderID)
	assert.Equal(t, "America/New_York", e.Timezone)
	assert.Equal(t, []Slot{freed}, e.Slots)
	// The lazy entry only needs to outlive its own day.
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), e.ExpiresAt)
}
