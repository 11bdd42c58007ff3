package bookinglink

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, link *BookingLink) error
	GetByID(ctx context.Context, id string) (*BookingLink, error)
	GetBySlug(ctx context.Context, providerID, slug string) (*BookingLink, error)
	ListByProvider(ctx context.Context, providerID string) ([]*BookingLink, error)
	Update(ctx context.Context, link *BookingLink) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const linkColumns = "id, provider_id, slug, name, availability_config, cancellation_cutoff_hours, created_at, updated_at"

func (r *pgxRepository) Create(ctx context.Context, l *BookingLink) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.booking_links").
		Columns("provider_id", "slug", "name", "availability_config", "cancellation_cutoff_hours").
		Values(l.ProviderID, l.Slug, l.Name, l.Availability, l.CancellationCutoffHours).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking link query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrSlugTaken
		}
		return fmt.Errorf("create booking link failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*BookingLink, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *pgxRepository) GetBySlug(ctx context.Context, providerID, slug string) (*BookingLink, error) {
	return r.getOne(ctx, squirrel.Eq{"provider_id": providerID, "slug": slug})
}

func (r *pgxRepository) getOne(ctx context.Context, pred squirrel.Eq) (*BookingLink, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "provider_id", "slug", "name",
		"availability_config", "cancellation_cutoff_hours", "created_at", "updated_at",
	).
		From("public.booking_links").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking link query failed: %w", err)
	}

	var l BookingLink
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(
		&l.ID, &l.ProviderID, &l.Slug, &l.Name,
		&l.Availability, &l.CancellationCutoffHours, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking link failed: %w", err)
	}
	return &l, nil
}

func (r *pgxRepository) ListByProvider(ctx context.Context, providerID string) ([]*BookingLink, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "provider_id", "slug", "name",
		"availability_config", "cancellation_cutoff_hours", "created_at", "updated_at",
	).
		From("public.booking_links").
		Where(squirrel.Eq{"provider_id": providerID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list booking links query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list booking links failed: %w", err)
	}
	defer rows.Close()

	var links []*BookingLink
	for rows.Next() {
		var l BookingLink
		if err := rows.Scan(
			&l.ID, &l.ProviderID, &l.Slug, &l.Name,
			&l.Availability, &l.CancellationCutoffHours, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan booking link failed: %w", err)
		}
		links = append(links, &l)
	}
	return links, nil
}

func (r *pgxRepository) Update(ctx context.Context, l *BookingLink) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.booking_links").
		Set("slug", l.Slug).
		Set("name", l.Name).
		Set("availability_config", l.Availability).
		Set("cancellation_cutoff_hours", l.CancellationCutoffHours).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": l.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking link query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrSlugTaken
		}
		return fmt.Errorf("update booking link failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
