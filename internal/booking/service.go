package booking

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashmont-labs/bookinglink-backend/internal/availability"
	"github.com/ashmont-labs/bookinglink-backend/internal/bookinglink"
	"github.com/ashmont-labs/bookinglink-backend/internal/catalog"
	"github.com/ashmont-labs/bookinglink-backend/internal/notify"
	"github.com/ashmont-labs/bookinglink-backend/internal/pkg/apperror"
)

// LinkReader resolves booking links. Implemented by bookinglink.Service.
type LinkReader interface {
	GetByID(ctx context.Context, id string) (*bookinglink.BookingLink, error)
}

// Catalog is the subset of collaborator lookups the engines need.
type Catalog interface {
	GetProviderByID(ctx context.Context, id string) (*catalog.Provider, error)
	GetService(ctx context.Context, id string) (*catalog.Service, error)
	GetStaff(ctx context.Context, id string) (*catalog.Staff, error)
	ListLinkStaffIDs(ctx context.Context, bookingLinkID string) ([]string, error)
	ListServiceAddonIDs(ctx context.Context, serviceID string) ([]string, error)
}

// SlotCache gates reservations against the availability cache and keeps it
// in sync after booking writes. Implemented by availability.Service.
type SlotCache interface {
	ValidateSlot(ctx context.Context, bookingLinkID string, start, end time.Time) (bool, error)
	ConsumeSlot(ctx context.Context, bookingLinkID string, slot availability.Slot)
	ReleaseSlot(ctx context.Context, providerID, bookingLinkID, timezone string, slot availability.Slot)
}

// Notifier sends client-facing booking emails. Implemented by
// notify.Service; every call is fire-and-forget.
type Notifier interface {
	BookingConfirmed(e notify.BookingEmail)
	BookingRescheduled(e notify.BookingEmail)
	BookingCancelled(e notify.BookingEmail)
}

type ReserveRequest struct {
	BookingLinkID string
	ServiceID     string
	StaffUserID   string // optional; falls back to the link's first assigned staff

	ClientName  string
	ClientEmail string
	ClientPhone string

	StartTime time.Time
	EndTime   time.Time
	Timezone  string

	Status        Status        // defaults to confirmed
	PaymentStatus PaymentStatus // defaults to unpaid
	Price         float64
	AttendeeCount int
	IntakeData    map[string]any
	Attendees     []Attendee
	AddonIDs      []string
}

type Service interface {
	// Reserve validates and atomically reserves a slot: staff resolution,
	// ownership checks, exact-match cache validation, overlap check against
	// persisted bookings, addon validation, insert, cache removal,
	// confirmation email. The first failing check short-circuits; nothing is
	// written before the insert.
	Reserve(ctx context.Context, req ReserveRequest) (*Booking, error)

	// RescheduleByToken moves a booking to a new interval, consuming the new
	// slot and freeing the old one. The reschedule token stays valid.
	RescheduleByToken(ctx context.Context, token string, newStart, newEnd time.Time) (*Booking, error)

	// CancelByToken cancels a booking, clears both capability tokens and
	// returns the freed slot to the cache. Subject to the link's
	// cancellation cutoff.
	CancelByToken(ctx context.Context, token string) (*Booking, error)

	GetByID(ctx context.Context, id string) (*Booking, error)
}

type service struct {
	repo     Repository
	links    LinkReader
	catalog  Catalog
	cache    SlotCache
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(
	repo Repository,
	links LinkReader,
	cat Catalog,
	cache SlotCache,
	notifier Notifier,
	logger *slog.Logger,
) Service {
	return &service{
		repo:     repo,
		links:    links,
		catalog:  cat,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) Reserve(ctx context.Context, req ReserveRequest) (*Booking, error) {
	if req.ServiceID == "" || req.ClientName == "" || req.ClientEmail == "" || req.Timezone == "" ||
		req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, ErrMissingRequiredFields
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidTimeRange
	}
	if req.AttendeeCount > 1 && len(req.Attendees) < req.AttendeeCount-1 {
		return nil, ErrMissingAttendees
	}

	link, err := s.links.GetByID(ctx, req.BookingLinkID)
	if err != nil {
		return nil, err
	}

	// 1. Resolve effective staff.
	staffID := req.StaffUserID
	if staffID == "" {
		ids, err := s.catalog.ListLinkStaffIDs(ctx, link.ID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, ErrNoStaffAssigned
		}
		staffID = ids[0]
	}

	// 2. Service and staff must belong to the link's provider.
	if err := s.checkOwnership(ctx, link.ProviderID, req.ServiceID, staffID); err != nil {
		return nil, err
	}

	// 3. The requested pair must exist verbatim in the day's cache entry.
	ok, err := s.cache.ValidateSlot(ctx, link.ID, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSlotUnavailable
	}

	// 4. Persisted-booking overlap check. This, not the cache, is the
	// correctness guard; the exclusion constraint backs it under races.
	overlap, err := s.repo.HasOverlap(ctx, link.ProviderID, staffID, req.StartTime, req.EndTime, "")
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrSlotOverlap
	}

	// 5. Requested addons must belong to the service.
	if err := s.checkAddons(ctx, req.ServiceID, req.AddonIDs); err != nil {
		return nil, err
	}

	// 6. Persist.
	status := req.Status
	if status == "" {
		status = StatusConfirmed
	}
	if !ValidStatus(status) {
		return nil, apperror.Newf(http.StatusBadRequest, "invalid booking status %q", status)
	}
	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = PaymentUnpaid
	}
	attendeeCount := req.AttendeeCount
	if attendeeCount < 1 {
		attendeeCount = 1
	}

	rescheduleToken := uuid.NewString()
	cancelToken := uuid.NewString()

	b := &Booking{
		ProviderID:      link.ProviderID,
		BookingLinkID:   link.ID,
		ServiceID:       req.ServiceID,
		StaffUserID:     staffID,
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientEmail:     strings.ToLower(strings.TrimSpace(req.ClientEmail)),
		ClientPhone:     strings.TrimSpace(req.ClientPhone),
		StartTime:       req.StartTime.UTC(),
		EndTime:         req.EndTime.UTC(),
		Timezone:        req.Timezone,
		Status:          status,
		PaymentStatus:   paymentStatus,
		Price:           req.Price,
		AttendeeCount:   attendeeCount,
		IntakeData:      req.IntakeData,
		Attendees:       req.Attendees,
		RescheduleToken: &rescheduleToken,
		CancelToken:     &cancelToken,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	// 7. Cache mutation after the committed write is best-effort; the
	// booking record is the source of truth.
	s.cache.ConsumeSlot(ctx, link.ID, availability.Slot{Start: b.StartTime, End: b.EndTime})

	// 8. Fire-and-forget confirmation.
	s.notifier.BookingConfirmed(s.buildEmail(ctx, b))

	s.logger.Info("booking created",
		"booking_id", b.ID,
		"booking_link_id", b.BookingLinkID,
		"staff_user_id", b.StaffUserID,
		"start_time", b.StartTime,
	)
	return b, nil
}

func (s *service) RescheduleByToken(ctx context.Context, token string, newStart, newEnd time.Time) (*Booking, error) {
	b, err := s.repo.GetByRescheduleToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !b.Status.Active() {
		return nil, ErrInvalidToken
	}
	if !newEnd.After(newStart) {
		return nil, ErrInvalidTimeRange
	}

	link, err := s.links.GetByID(ctx, b.BookingLinkID)
	if err != nil {
		return nil, err
	}

	ok, err := s.cache.ValidateSlot(ctx, b.BookingLinkID, newStart, newEnd)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSlotUnavailable
	}

	overlap, err := s.repo.HasOverlap(ctx, b.ProviderID, b.StaffUserID, newStart, newEnd, b.ID)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrSlotOverlap
	}

	oldSlot := availability.Slot{Start: b.StartTime, End: b.EndTime}

	b.StartTime = newStart.UTC()
	b.EndTime = newEnd.UTC()
	b.Status = StatusRescheduled
	// Reschedule token deliberately survives, so a client may move the
	// booking again with the same link.

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	// Rescheduling onto the booking's own interval leaves the cache alone:
	// consume-then-release would re-open a slot the booking still holds.
	newSlot := availability.Slot{Start: b.StartTime, End: b.EndTime}
	if !newSlot.Equal(oldSlot) {
		s.cache.ConsumeSlot(ctx, b.BookingLinkID, newSlot)
		s.cache.ReleaseSlot(ctx, b.ProviderID, b.BookingLinkID, link.Availability.Timezone, oldSlot)
	}

	s.notifier.BookingRescheduled(s.buildEmail(ctx, b))

	s.logger.Info("booking rescheduled",
		"booking_id", b.ID,
		"new_start", b.StartTime,
		"old_start", oldSlot.Start,
	)
	return b, nil
}

func (s *service) CancelByToken(ctx context.Context, token string) (*Booking, error) {
	b, err := s.repo.GetByCancelToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !b.Status.Active() {
		return nil, ErrInvalidToken
	}

	link, err := s.links.GetByID(ctx, b.BookingLinkID)
	if err != nil {
		return nil, err
	}

	if cutoff := link.CancellationCutoffHours; cutoff > 0 {
		deadline := b.StartTime.Add(-time.Duration(cutoff) * time.Hour)
		if s.now().After(deadline) {
			return nil, apperror.Newf(http.StatusBadRequest,
				"Cannot cancel booking less than %d hour(s) before start time.", cutoff)
		}
	}

	freed := availability.Slot{Start: b.StartTime, End: b.EndTime}

	b.Status = StatusCancelled
	// Cancellation is terminal: both capability tokens are cleared.
	b.RescheduleToken = nil
	b.CancelToken = nil

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.cache.ReleaseSlot(ctx, b.ProviderID, b.BookingLinkID, link.Availability.Timezone, freed)

	s.notifier.BookingCancelled(s.buildEmail(ctx, b))

	s.logger.Info("booking cancelled", "booking_id", b.ID, "start_time", freed.Start)
	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// checkOwnership verifies the service and staff member belong to the link's
// provider. Unknown ids and mismatched providers read as validation errors;
// store failures propagate unchanged.
func (s *service) checkOwnership(ctx context.Context, providerID, serviceID, staffID string) error {
	svc, err := s.catalog.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return ErrInvalidService
		}
		return err
	}
	if svc.ProviderID != providerID {
		return ErrInvalidService
	}

	staff, err := s.catalog.GetStaff(ctx, staffID)
	if err != nil {
		if errors.Is(err, catalog.ErrStaffNotFound) {
			return ErrInvalidStaff
		}
		return err
	}
	if staff.ProviderID != providerID {
		return ErrInvalidStaff
	}
	return nil
}

func (s *service) checkAddons(ctx context.Context, serviceID string, addonIDs []string) error {
	if len(addonIDs) == 0 {
		return nil
	}
	valid, err := s.catalog.ListServiceAddonIDs(ctx, serviceID)
	if err != nil {
		return err
	}
	validSet := make(map[string]bool, len(valid))
	for _, id := range valid {
		validSet[id] = true
	}
	for _, id := range addonIDs {
		if !validSet[id] {
			return ErrInvalidAddon
		}
	}
	return nil
}

// buildEmail fills the notification payload from collaborator records.
// Lookups here are cosmetic; failures degrade to placeholders instead of
// blocking the booking flow.
func (s *service) buildEmail(ctx context.Context, b *Booking) notify.BookingEmail {
	serviceName := "your service"
	if svc, err := s.catalog.GetService(ctx, b.ServiceID); err == nil {
		serviceName = svc.Name
	}
	providerName := "your provider"
	if p, err := s.catalog.GetProviderByID(ctx, b.ProviderID); err == nil {
		providerName = p.Name
	}
	return notify.BookingEmail{
		To:           b.ClientEmail,
		ClientName:   b.ClientName,
		ServiceName:  serviceName,
		ProviderName: providerName,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Timezone:     b.Timezone,
	}
}
