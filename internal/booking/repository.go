package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashmont-labs/bookinglink-backend/internal/availability"
)

// Repository persists bookings. The bookings table carries an exclusion
// constraint over (staff_user_id, active time range); a violation on insert
// or update is the authoritative double-booking signal and surfaces as
// ErrSlotOverlap.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	GetByRescheduleToken(ctx context.Context, token string) (*Booking, error)
	GetByCancelToken(ctx context.Context, token string) (*Booking, error)

	// Update writes the time window, status and tokens of an existing
	// booking.
	Update(ctx context.Context, b *Booking) error

	// HasOverlap checks for an active booking for the staff member whose
	// interval intersects [start, end). excludeBookingID skips the booking
	// itself during reschedules.
	HasOverlap(ctx context.Context, providerID, staffUserID string, start, end time.Time, excludeBookingID string) (bool, error)

	// ListActiveWindows returns the time windows of non-cancelled bookings
	// for the link intersecting [from, to). Feeds the public availability
	// filter.
	ListActiveWindows(ctx context.Context, bookingLinkID string, from, to time.Time) ([]availability.Slot, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var bookingColumns = []string{
	"id", "provider_id", "booking_link_id", "service_id", "staff_user_id",
	"client_name", "client_email", "client_phone",
	"start_time", "end_time", "timezone",
	"status", "payment_status", "price", "attendee_count", "intake_data",
	"reschedule_token", "cancel_token", "created_at", "updated_at",
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create booking tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"provider_id", "booking_link_id", "service_id", "staff_user_id",
			"client_name", "client_email", "client_phone",
			"start_time", "end_time", "timezone",
			"status", "payment_status", "price", "attendee_count", "intake_data",
			"reschedule_token", "cancel_token",
		).
		Values(
			b.ProviderID, b.BookingLinkID, b.ServiceID, b.StaffUserID,
			b.ClientName, b.ClientEmail, b.ClientPhone,
			b.StartTime, b.EndTime, b.Timezone,
			b.Status, b.PaymentStatus, b.Price, b.AttendeeCount, b.IntakeData,
			b.RescheduleToken, b.CancelToken,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if isOverlapViolation(err) {
			return ErrSlotOverlap
		}
		return fmt.Errorf("create booking failed: %w", err)
	}

	for _, a := range b.Attendees {
		query, args, err := psql.Insert("public.booking_attendees").
			Columns("booking_id", "full_name", "email", "phone", "intake_data").
			Values(b.ID, a.FullName, a.Email, a.Phone, a.IntakeData).
			ToSql()
		if err != nil {
			return fmt.Errorf("build create attendee query failed: %w", err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("create attendee failed: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create booking tx failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, ErrNotFound)
}

func (r *pgxRepository) GetByRescheduleToken(ctx context.Context, token string) (*Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"reschedule_token": token}, ErrInvalidToken)
}

func (r *pgxRepository) GetByCancelToken(ctx context.Context, token string) (*Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"cancel_token": token}, ErrInvalidToken)
}

func (r *pgxRepository) getOne(ctx context.Context, pred squirrel.Eq, notFound error) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(bookingColumns...).
		From("public.bookings").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	var b Booking
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(
		&b.ID, &b.ProviderID, &b.BookingLinkID, &b.ServiceID, &b.StaffUserID,
		&b.ClientName, &b.ClientEmail, &b.ClientPhone,
		&b.StartTime, &b.EndTime, &b.Timezone,
		&b.Status, &b.PaymentStatus, &b.Price, &b.AttendeeCount, &b.IntakeData,
		&b.RescheduleToken, &b.CancelToken, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return &b, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.bookings").
		Set("start_time", b.StartTime).
		Set("end_time", b.EndTime).
		Set("status", b.Status).
		Set("reschedule_token", b.RescheduleToken).
		Set("cancel_token", b.CancelToken).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if isOverlapViolation(err) {
			return ErrSlotOverlap
		}
		return fmt.Errorf("update booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) HasOverlap(ctx context.Context, providerID, staffUserID string, start, end time.Time, excludeBookingID string) (bool, error) {
	// Overlap test: existing.start < newEnd AND existing.end > newStart,
	// restricted to statuses that hold the staff member's time.
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	subQuery := psql.Select("1").
		From("public.bookings").
		Where(squirrel.Eq{"provider_id": providerID}).
		Where(squirrel.Eq{"staff_user_id": staffUserID}).
		Where(squirrel.Eq{"status": []Status{StatusConfirmed, StatusRescheduled}}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start})

	if excludeBookingID != "" {
		subQuery = subQuery.Where(squirrel.NotEq{"id": excludeBookingID})
	}

	sql, args, err := subQuery.ToSql()
	if err != nil {
		return false, fmt.Errorf("build check overlap query failed: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, "SELECT EXISTS ("+sql+")", args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) ListActiveWindows(ctx context.Context, bookingLinkID string, from, to time.Time) ([]availability.Slot, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("start_time", "end_time").
		From("public.bookings").
		Where(squirrel.Eq{"booking_link_id": bookingLinkID}).
		Where(squirrel.NotEq{"status": StatusCancelled}).
		Where(squirrel.Lt{"start_time": to}).
		Where(squirrel.Gt{"end_time": from}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list active windows query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active windows failed: %w", err)
	}
	defer rows.Close()

	var windows []availability.Slot
	for rows.Next() {
		var w availability.Slot
		if err := rows.Scan(&w.Start, &w.End); err != nil {
			return nil, fmt.Errorf("scan active window failed: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// isOverlapViolation recognizes the bookings_no_staff_overlap exclusion
// constraint, the storage-level serialization point two racing requests for
// the same slot collide on.
func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation
}
