package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the availability cache store: one row per
// (booking_link_id, start_date) holding the open slots for that day.
//
// RemoveSlot and AddSlot are read-modify-write without optimistic locking;
// the cache is advisory and concurrent lost updates are repaired by the next
// full regeneration.
type Repository interface {
	// Get returns the entry for the day, or ErrEntryNotFound.
	Get(ctx context.Context, bookingLinkID, startDate string) (*CacheEntry, error)

	// Upsert replaces the entry keyed by (booking_link_id, start_date).
	Upsert(ctx context.Context, entry *CacheEntry) error

	// RemoveSlot deletes the exact {start,end} pair from the day's entry.
	// Returns ErrEntryNotFound when the day has no entry and ErrSlotNotFound
	// when the pair is not present; callers treat both as logged no-ops.
	RemoveSlot(ctx context.Context, bookingLinkID string, slot Slot) error

	// AddSlot inserts a {start,end} pair into the day's entry, keeping the
	// list sorted ascending by start. Returns ErrEntryNotFound when the day
	// has no entry; it never creates one.
	AddSlot(ctx context.Context, bookingLinkID, startDate string, slot Slot) error

	// ListRange returns all entries for the link with startDate in
	// [fromDate, toDate], ordered by start_date ascending.
	ListRange(ctx context.Context, bookingLinkID, fromDate, toDate string) ([]*CacheEntry, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Get(ctx context.Context, bookingLinkID, startDate string) (*CacheEntry, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "provider_id", "booking_link_id",
		"to_char(start_date, 'YYYY-MM-DD')", "timezone", "slots", "expires_at", "created_at",
	).
		From("public.availability_cache").
		Where(squirrel.Eq{"booking_link_id": bookingLinkID}).
		Where(squirrel.Eq{"start_date": startDate}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get availability cache query failed: %w", err)
	}

	var e CacheEntry
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(
		&e.ID, &e.ProviderID, &e.BookingLinkID,
		&e.StartDate, &e.Timezone, &e.Slots, &e.ExpiresAt, &e.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("get availability cache failed: %w", err)
	}
	return &e, nil
}

func (r *pgxRepository) Upsert(ctx context.Context, e *CacheEntry) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.availability_cache").
		Columns("provider_id", "booking_link_id", "start_date", "timezone", "slots", "expires_at").
		Values(e.ProviderID, e.BookingLinkID, e.StartDate, e.Timezone, e.Slots, e.ExpiresAt).
		Suffix(`ON CONFLICT (booking_link_id, start_date) DO UPDATE SET
			provider_id = EXCLUDED.provider_id,
			timezone = EXCLUDED.timezone,
			slots = EXCLUDED.slots,
			expires_at = EXCLUDED.expires_at`).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert availability cache query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("upsert availability cache failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) RemoveSlot(ctx context.Context, bookingLinkID string, slot Slot) error {
	startDate := dayKey(slot.Start)

	entry, err := r.Get(ctx, bookingLinkID, startDate)
	if err != nil {
		return err
	}

	kept := entry.Slots[:0]
	for _, s := range entry.Slots {
		if !s.Equal(slot) {
			kept = append(kept, s)
		}
	}
	if len(kept) == len(entry.Slots) {
		return ErrSlotNotFound
	}

	return r.writeSlots(ctx, entry.ID, kept)
}

func (r *pgxRepository) AddSlot(ctx context.Context, bookingLinkID, startDate string, slot Slot) error {
	entry, err := r.Get(ctx, bookingLinkID, startDate)
	if err != nil {
		return err
	}

	slots := append(entry.Slots, slot)
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })

	return r.writeSlots(ctx, entry.ID, slots)
}

func (r *pgxRepository) writeSlots(ctx context.Context, entryID string, slots []Slot) error {
	if slots == nil {
		slots = []Slot{}
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.availability_cache").
		Set("slots", slots).
		Where(squirrel.Eq{"id": entryID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update availability slots query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update availability slots failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *pgxRepository) ListRange(ctx context.Context, bookingLinkID, fromDate, toDate string) ([]*CacheEntry, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "provider_id", "booking_link_id",
		"to_char(start_date, 'YYYY-MM-DD')", "timezone", "slots", "expires_at", "created_at",
	).
		From("public.availability_cache").
		Where(squirrel.Eq{"booking_link_id": bookingLinkID}).
		Where(squirrel.GtOrEq{"start_date": fromDate}).
		Where(squirrel.LtOrEq{"start_date": toDate}).
		OrderBy("start_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list availability cache query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list availability cache failed: %w", err)
	}
	defer rows.Close()

	var entries []*CacheEntry
	for rows.Next() {
		var e CacheEntry
		if err := rows.Scan(
			&e.ID, &e.ProviderID, &e.BookingLinkID,
			&e.StartDate, &e.Timezone, &e.Slots, &e.ExpiresAt, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan availability cache failed: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, nil
}
