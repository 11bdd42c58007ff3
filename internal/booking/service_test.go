package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmont-labs/bookinglink-backend/internal/availability"
	"github.com/ashmont-labs/bookinglink-backend/internal/bookinglink"
	"github.com/ashmont-labs/bookinglink-backend/internal/catalog"
	"github.com/ashmont-labs/bookinglink-backend/internal/notify"
	"github.com/ashmont-labs/bookinglink-backend/internal/pkg/apperror"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fakes -----------------------------------------------------------------

type memRepo struct {
	bookings map[string]*Booking
	nextID   int
}

func newMemRepo() *memRepo {
	return &memRepo{bookings: make(map[string]*Booking)}
}

func (m *memRepo) Create(_ context.Context, b *Booking) error {
	m.nextID++
	b.ID = fmt.Sprintf("bkg-%d", m.nextID)
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memRepo) GetByRescheduleToken(_ context.Context, token string) (*Booking, error) {
	for _, b := range m.bookings {
		if b.RescheduleToken != nil && *b.RescheduleToken == token {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrInvalidToken
}

func (m *memRepo) GetByCancelToken(_ context.Context, token string) (*Booking, error) {
	for _, b := range m.bookings {
		if b.CancelToken != nil && *b.CancelToken == token {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrInvalidToken
}

func (m *memRepo) Update(_ context.Context, b *Booking) error {
	if _, ok := m.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	cp := *b
	cp.UpdatedAt = time.Now()
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memRepo) HasOverlap(_ context.Context, providerID, staffUserID string, start, end time.Time, excludeBookingID string) (bool, error) {
	for _, b := range m.bookings {
		if b.ID == excludeBookingID || b.ProviderID != providerID || b.StaffUserID != staffUserID {
			continue
		}
		if !b.Status.Active() {
			continue
		}
		if b.StartTime.Before(end) && b.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) ListActiveWindows(_ context.Context, bookingLinkID string, from, to time.Time) ([]availability.Slot, error) {
	var out []availability.Slot
	for _, b := range m.bookings {
		if b.BookingLinkID != bookingLinkID || b.Status == StatusCancelled {
			continue
		}
		if b.StartTime.Before(to) && b.EndTime.After(from) {
			out = append(out, availability.Slot{Start: b.StartTime, End: b.EndTime})
		}
	}
	return out, nil
}

type stubLinks struct {
	links map[string]*bookinglink.BookingLink
}

func (s *stubLinks) GetByID(_ context.Context, id string) (*bookinglink.BookingLink, error) {
	l, ok := s.links[id]
	if !ok {
		return nil, bookinglink.ErrNotFound
	}
	return l, nil
}

type stubCatalog struct {
	providers map[string]*catalog.Provider
	services  map[string]*catalog.Service
	staff     map[string]*catalog.Staff
	linkStaff map[string][]string
	addons    map[string][]string

	// Injected store failures.
	serviceErr error
	staffErr   error
}

func (s *stubCatalog) GetProviderByID(_ context.Context, id string) (*catalog.Provider, error) {
	p, ok := s.providers[id]
	if !ok {
		return nil, catalog.ErrProviderNotFound
	}
	return p, nil
}

func (s *stubCatalog) GetService(_ context.Context, id string) (*catalog.Service, error) {
	if s.serviceErr != nil {
		return nil, s.serviceErr
	}
	svc, ok := s.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return svc, nil
}

func (s *stubCatalog) GetStaff(_ context.Context, id string) (*catalog.Staff, error) {
	if s.staffErr != nil {
		return nil, s.staffErr
	}
	st, ok := s.staff[id]
	if !ok {
		return nil, catalog.ErrStaffNotFound
	}
	return st, nil
}

func (s *stubCatalog) ListLinkStaffIDs(_ context.Context, bookingLinkID string) ([]string, error) {
	return s.linkStaff[bookingLinkID], nil
}

func (s *stubCatalog) ListServiceAddonIDs(_ context.Context, serviceID string) ([]string, error) {
	return s.addons[serviceID], nil
}

// fakeCache tracks open slots per link as an exact-match set.
type fakeCache struct {
	open     map[string][]availability.Slot
	released []availability.Slot
}

func newFakeCache() *fakeCache {
	return &fakeCache{open: make(map[string][]availability.Slot)}
}

func (c *fakeCache) seed(linkID string, slots ...availability.Slot) {
	c.open[linkID] = append(c.open[linkID], slots...)
}

func (c *fakeCache) ValidateSlot(_ context.Context, linkID string, start, end time.Time) (bool, error) {
	want := availability.Slot{Start: start, End: end}
	for _, s := range c.open[linkID] {
		if s.Equal(want) {
			return true, nil
		}
	}
	return false, nil
}

func (c *fakeCache) ConsumeSlot(_ context.Context, linkID string, slot availability.Slot) {
	slots := c.open[linkID]
	for i, s := range slots {
		if s.Equal(slot) {
			c.open[linkID] = append(slots[:i], slots[i+1:]...)
			return
		}
	}
}

func (c *fakeCache) ReleaseSlot(_ context.Context, _, linkID, _ string, slot availability.Slot) {
	c.open[linkID] = append(c.open[linkID], slot)
	c.released = append(c.released, slot)
}

type spyNotifier struct {
	confirmed   []notify.BookingEmail
	rescheduled []notify.BookingEmail
	cancelled   []notify.BookingEmail
}

func (n *spyNotifier) BookingConfirmed(e notify.BookingEmail)   { n.confirmed = append(n.confirmed, e) }
func (n *spyNotifier) BookingRescheduled(e notify.BookingEmail) { n.rescheduled = append(n.rescheduled, e) }
func (n *spyNotifier) BookingCancelled(e notify.BookingEmail)   { n.cancelled = append(n.cancelled, e) }

// --- fixture ---------------------------------------------------------------

type fixture struct {
	svc      *service
	repo     *memRepo
	cache    *fakeCache
	notifier *spyNotifier
	catalog  *stubCatalog
	link     *bookinglink.BookingLink
}

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.UTC)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	link := &bookinglink.BookingLink{
		ID:         "link-1",
		ProviderID: "prov-1",
		Slug:       "intro-call",
		Name:       "Intro Call",
		Availability: availability.Config{
			Timezone: "UTC",
		},
		CancellationCutoffHours: 24,
	}

	cat := &stubCatalog{
		providers: map[string]*catalog.Provider{
			"prov-1": {ID: "prov-1", Name: "Acme Wellness", Subdomain: "acme"},
		},
		services: map[string]*catalog.Service{
			"svc-1":     {ID: "svc-1", ProviderID: "prov-1", Name: "Consultation"},
			"svc-other": {ID: "svc-other", ProviderID: "prov-2", Name: "Foreign"},
		},
		staff: map[string]*catalog.Staff{
			"staff-1":     {ID: "staff-1", ProviderID: "prov-1", FirstName: "Dana"},
			"staff-2":     {ID: "staff-2", ProviderID: "prov-1", FirstName: "Rio"},
			"staff-other": {ID: "staff-other", ProviderID: "prov-2", FirstName: "Kim"},
		},
		linkStaff: map[string][]string{"link-1": {"staff-1", "staff-2"}},
		addons:    map[string][]string{"svc-1": {"addon-1", "addon-2"}},
	}

	repo := newMemRepo()
	cache := newFakeCache()
	cache.seed("link-1",
		availability.Slot{Start: at(9, 0), End: at(9, 30)},
		availability.Slot{Start: at(9, 30), End: at(10, 0)},
		availability.Slot{Start: at(10, 0), End: at(10, 30)},
	)
	notifier := &spyNotifier{}

	svc := NewService(repo, &stubLinks{links: map[string]*bookinglink.BookingLink{"link-1": link}},
		cat, cache, notifier, testLogger()).(*service)
	// Fixed clock well before the seeded slots, so cutoff checks are
	// deterministic.
	svc.now = func() time.Time { return time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC) }

	return &fixture{svc: svc, repo: repo, cache: cache, notifier: notifier, catalog: cat, link: link}
}

func validRequest() ReserveRequest {
	return ReserveRequest{
		BookingLinkID: "link-1",
		ServiceID:     "svc-1",
		ClientName:    "Jamie Doe",
		ClientEmail:   "Jamie@Example.com ",
		Timezone:      "America/New_York",
		StartTime:     at(9, 0),
		EndTime:       at(9, 30),
	}
}

// --- Reserve ---------------------------------------------------------------

func TestReserveHappyPath(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Reserve(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "prov-1", b.ProviderID)
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, PaymentUnpaid, b.PaymentStatus)
	assert.Equal(t, 1, b.AttendeeCount)
	assert.Equal(t, "jamie@example.com", b.ClientEmail)

	require.NotNil(t, b.RescheduleToken)
	require.NotNil(t, b.CancelToken)
	assert.NotEqual(t, *b.RescheduleToken, *b.CancelToken)

	// Falls back to the link's first assigned staff member.
	assert.Equal(t, "staff-1", b.StaffUserID)

	// Booked slot is consumed from the cache.
	ok, err := f.cache.ValidateSlot(context.Background(), "link-1", at(9, 0), at(9, 30))
	require.NoError(t, err)
	assert.False(t, ok)

	require.Len(t, f.notifier.confirmed, 1)
	assert.Equal(t, "jamie@example.com", f.notifier.confirmed[0].To)
	assert.Equal(t, "Consultation", f.notifier.confirmed[0].ServiceName)
	assert.Equal(t, "Acme Wellness", f.notifier.confirmed[0].ProviderName)
}

func TestReserveValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ReserveRequest)
		wantErr error
	}{
		{"missing service", func(r *ReserveRequest) { r.ServiceID = "" }, ErrMissingRequiredFields},
		{"missing client name", func(r *ReserveRequest) { r.ClientName = "" }, ErrMissingRequiredFields},
		{"missing client email", func(r *ReserveRequest) { r.ClientEmail = "" }, ErrMissingRequiredFields},
		{"missing timezone", func(r *ReserveRequest) { r.Timezone = "" }, ErrMissingRequiredFields},
		{"zero start", func(r *ReserveRequest) { r.StartTime = time.Time{} }, ErrMissingRequiredFields},
		{"end before start", func(r *ReserveRequest) { r.StartTime, r.EndTime = r.EndTime, r.StartTime }, ErrInvalidTimeRange},
		{"end equals start", func(r *ReserveRequest) { r.EndTime = r.StartTime }, ErrInvalidTimeRange},
		{"group without attendee details", func(r *ReserveRequest) { r.AttendeeCount = 3 }, ErrMissingAttendees},
		{"foreign service", func(r *ReserveRequest) { r.ServiceID = "svc-other" }, ErrInvalidService},
		{"foreign staff", func(r *ReserveRequest) { r.StaffUserID = "staff-other" }, ErrInvalidStaff},
		{"unknown staff", func(r *ReserveRequest) { r.StaffUserID = "staff-missing" }, ErrInvalidStaff},
		{"unknown addon", func(r *ReserveRequest) { r.AddonIDs = []string{"addon-1", "addon-x"} }, ErrInvalidAddon},
		{"uncached slot", func(r *ReserveRequest) { r.StartTime, r.EndTime = at(13, 0), at(13, 30) }, ErrSlotUnavailable},
		{"sub-interval of a cached slot", func(r *ReserveRequest) { r.EndTime = at(9, 15) }, ErrSlotUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validRequest()
			tt.mutate(&req)

			_, err := f.svc.Reserve(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.repo.bookings, "no booking may be written on a failed check")
			assert.Empty(t, f.notifier.confirmed)
		})
	}
}

func TestReserveCatalogStoreErrorSurfaces(t *testing.T) {
	storeErr := errors.New("get service failed: connection refused")

	f := newFixture(t)
	f.catalog.serviceErr = storeErr
	_, err := f.svc.Reserve(context.Background(), validRequest())
	require.Error(t, err)
	// A store failure is not an ownership problem; it propagates unchanged
	// so the transport layer reports it as internal.
	assert.NotErrorIs(t, err, ErrInvalidService)
	assert.ErrorIs(t, err, storeErr)
	assert.Empty(t, f.repo.bookings)

	f = newFixture(t)
	f.catalog.staffErr = storeErr
	_, err = f.svc.Reserve(context.Background(), validRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidStaff)
	assert.ErrorIs(t, err, storeErr)
	assert.Empty(t, f.repo.bookings)
}

func TestReserveNoStaffAssigned(t *testing.T) {
	f := newFixture(t)
	f.catalog.linkStaff["link-1"] = nil

	_, err := f.svc.Reserve(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrNoStaffAssigned)
}

func TestReserveGroupBookingWithAttendees(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.AttendeeCount = 3
	req.Attendees = []Attendee{
		{FullName: "Alex One", Email: "alex@example.com"},
		{FullName: "Sam Two", Email: "sam@example.com"},
	}
	req.AddonIDs = []string{"addon-1"}

	b, err := f.svc.Reserve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, b.AttendeeCount)
	assert.Len(t, b.Attendees, 2)
}

func TestReserveRejectsDoubleBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Reserve(ctx, validRequest())
	require.NoError(t, err)

	// Same slot again: the cache no longer lists it.
	_, err = f.svc.Reserve(ctx, validRequest())
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// Different cached slot overlapping the persisted booking for the same
	// staff member: caught by the persisted-booking check.
	f.cache.seed("link-1", availability.Slot{Start: at(9, 15), End: at(9, 45)})
	req := validRequest()
	req.StaffUserID = "staff-1"
	req.StartTime, req.EndTime = at(9, 15), at(9, 45)
	_, err = f.svc.Reserve(ctx, req)
	assert.ErrorIs(t, err, ErrSlotOverlap)

	// A different staff member is free to take the overlapping interval.
	req.StaffUserID = "staff-2"
	b, err := f.svc.Reserve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "staff-2", b.StaffUserID)
}

func TestReserveExplicitStatusAndPayment(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Status = StatusRescheduled
	req.PaymentStatus = PaymentPaid

	b, err := f.svc.Reserve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusRescheduled, b.Status)
	assert.Equal(t, PaymentPaid, b.PaymentStatus)

	f2 := newFixture(t)
	req = validRequest()
	req.Status = Status("pending")
	_, err = f2.svc.Reserve(context.Background(), req)
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
}

// --- RescheduleByToken -----------------------------------------------------

func TestRescheduleMovesBookingAndSwapsSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Reserve(ctx, validRequest())
	require.NoError(t, err)
	token := *b.RescheduleToken

	moved, err := f.svc.RescheduleByToken(ctx, token, at(10, 0), at(10, 30))
	require.NoError(t, err)

	assert.Equal(t, StatusRescheduled, moved.Status)
	assert.Equal(t, at(10, 0), moved.StartTime)
	// The reschedule token survives so the client can move again.
	require.NotNil(t, moved.RescheduleToken)
	assert.Equal(t, token, *moved.RescheduleToken)
	require.NotNil(t, moved.CancelToken)

	// New slot consumed, old slot back in the cache.
	ok, _ := f.cache.ValidateSlot(ctx, "link-1", at(10, 0), at(10, 30))
	assert.False(t, ok)
	ok, _ = f.cache.ValidateSlot(ctx, "link-1", at(9, 0), at(9, 30))
	assert.True(t, ok)

	require.Len(t, f.notifier.rescheduled, 1)

	// The vacated interval is bookable again.
	_, err = f.svc.Reserve(ctx, validRequest())
	require.NoError(t, err)
}

func TestRescheduleTwiceWithSameToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Reserve(ctx, validRequest())
	require.NoError(t, err)
	token := *b.RescheduleToken

	_, err = f.svc.RescheduleByToken(ctx, token, at(9, 30), at(10, 0))
	require.NoError(t, err)

	moved, err := f.svc.RescheduleByToken(ctx, token, at(10, 0), at(10, 30))
	require.NoError(t, err)
	assert.Equal(t, at(10, 0), moved.StartTime)
}

func TestRescheduleFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Reserve(ctx, validRequest())
	require.NoError(t, err)
	token := *b.RescheduleToken

	_, err = f.svc.RescheduleByToken(ctx, "no-such-token", at(10, 0), at(10, 30))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.svc.RescheduleByToken(ctx, token, at(10, 30), at(10, 0))
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = f.svc.RescheduleByToken(ctx, token, at(13, 0), at(13, 30))
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// Target slot held by another booking for the same staff member.
	req := validRequest()
	req.StaffUserID = "staff-1"
	req.StartTime, req.EndTime = at(10, 0), at(10, 30)
	_, err = f.svc.Reserve(ctx, req)
	require.NoError(t, err)

	f.cache.seed("link-1", availability.Slot{Start: at(10, 0), End: at(10, 30)})
	_, err = f.svc.RescheduleByToken(ctx, token, at(10, 0), at(10, 30))
	assert.ErrorIs(t, err, ErrSlotOverlap)
}

func TestRescheduleToOwnIntervalAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Reserve(ctx, validRequest())
	require.NoError(t, err)

	// The booking's own window is excluded from the overlap check, so moving
	// onto an interval touching itself must not conflict.
	f.cache.seed("link-1", availability.Slot{Start: at(9, 0), End: at(9, 30)})
	moved, err := f.svc.RescheduleByToken(ctx, *b.RescheduleToken, at(9, 0), at(9, 30))
	require.NoError(t, err)
	assert.Equal(t, StatusRescheduled, moved.Status)

	// A same-interval move must not run the consume/release swap: releasing
	// the old slot would re-open an interval the booking still holds.
	assert.Empty(t, f.cache.released)
}

// --- CancelByToken ---------------------------------------------------------

func TestCancelClearsTokensAndFreesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Reserve(ctx, validRequest())
	require.NoError(t, err)
	cancelToken := *b.CancelToken

	cancelled, err := f.svc.CancelByToken(ctx, cancelToken)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.RescheduleToken)
	assert.Nil(t, cancelled.CancelToken)
	require.Len(t, f.notifier.cancelled, 1)

	// Freed slot returns to the cache; the interval is bookable again.
	ok, _ := f.cache.ValidateSlot(ctx, "link-1", at(9, 0), at(9, 30))
	assert.True(t, ok)
	_, err = f.svc.Reserve(ctx, validRequest())
	require.NoError(t, err)

	// Cancellation is terminal: both tokens are dead.
	_, err = f.svc.CancelByToken(ctx, cancelToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = f.svc.RescheduleByToken(ctx, *b.RescheduleToken, at(9, 30), at(10, 0))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCancelInsideCutoffRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Reserve(ctx, validRequest())
	require.NoError(t, err)

	// Move the clock to 12 hours before start; the link requires 24.
	f.svc.now = func() time.Time { return b.StartTime.Add(-12 * time.Hour) }

	_, err = f.svc.CancelByToken(ctx, *b.CancelToken)
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
	assert.Contains(t, appErr.Message, "24 hour(s)")

	// The booking stays live and the slot stays consumed.
	kept, err := f.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, kept.Status)
	ok, _ := f.cache.ValidateSlot(ctx, "link-1", at(9, 0), at(9, 30))
	assert.False(t, ok)
}

func TestCancelExactlyAtCutoffAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Reserve(ctx, validRequest())
	require.NoError(t, err)

	f.svc.now = func() time.Time { return b.StartTime.Add(-24 * time.Hour) }

	_, err = f.svc.CancelByToken(ctx, *b.CancelToken)
	require.NoError(t, err)
}

func TestCancelWithoutCutoff(t *testing.T) {
	f := newFixture(t)
	f.link.CancellationCutoffHours = 0
	ctx := context.Background()

	b, err := f.svc.Reserve(ctx, validRequest())
	require.NoError(t, err)

	// One minute before start is still fine with no cutoff configured.
	f.svc.now = func() time.Time { return b.StartTime.Add(-time.Minute) }

	_, err = f.svc.CancelByToken(ctx, *b.CancelToken)
	require.NoError(t, err)
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Reserve(ctx, validRequest())
	require.NoError(t, err)

	got, err := f.svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.svc.GetByID(ctx, "bkg-none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusActive(t *testing.T) {
	assert.True(t, StatusConfirmed.Active())
	assert.True(t, StatusRescheduled.Active())
	assert.False(t, StatusCancelled.Active())
	assert.False(t, StatusNoShow.Active())
}
