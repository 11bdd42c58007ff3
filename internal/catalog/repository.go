package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the read-side view of provider/service/staff records. These
// records are owned by the surrounding application; the scheduling engine
// only reads them for ownership and staff-resolution checks.
type Repository interface {
	GetProviderBySubdomain(ctx context.Context, subdomain string) (*Provider, error)
	GetProviderByID(ctx context.Context, id string) (*Provider, error)
	GetService(ctx context.Context, id string) (*Service, error)
	GetStaff(ctx context.Context, id string) (*Staff, error)

	// ListLinkStaffIDs returns the staff assigned to a booking link in a
	// stable order, so the no-preference fallback always picks the same
	// member first.
	ListLinkStaffIDs(ctx context.Context, bookingLinkID string) ([]string, error)

	// ListServiceAddonIDs returns the addon ids belonging to a service.
	ListServiceAddonIDs(ctx context.Context, serviceID string) ([]string, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) GetProviderBySubdomain(ctx context.Context, subdomain string) (*Provider, error) {
	return r.getProvider(ctx, squirrel.Eq{"subdomain": subdomain})
}

func (r *pgxRepository) GetProviderByID(ctx context.Context, id string) (*Provider, error) {
	return r.getProvider(ctx, squirrel.Eq{"id": id})
}

func (r *pgxRepository) getProvider(ctx context.Context, pred squirrel.Eq) (*Provider, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "name", "subdomain", "created_at").
		From("public.providers").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get provider query failed: %w", err)
	}

	var p Provider
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(&p.ID, &p.Name, &p.Subdomain, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("get provider failed: %w", err)
	}
	return &p, nil
}

func (r *pgxRepository) GetService(ctx context.Context, id string) (*Service, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "provider_id", "name", "price", "created_at").
		From("public.services").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get service query failed: %w", err)
	}

	var s Service
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(&s.ID, &s.ProviderID, &s.Name, &s.Price, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service failed: %w", err)
	}
	return &s, nil
}

func (r *pgxRepository) GetStaff(ctx context.Context, id string) (*Staff, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "provider_id", "first_name", "last_name", "email", "created_at").
		From("public.staff_users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get staff query failed: %w", err)
	}

	var s Staff
	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(&s.ID, &s.ProviderID, &s.FirstName, &s.LastName, &s.Email, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("get staff failed: %w", err)
	}
	return &s, nil
}

func (r *pgxRepository) ListLinkStaffIDs(ctx context.Context, bookingLinkID string) ([]string, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("staff_user_id").
		From("public.booking_link_staff").
		Where(squirrel.Eq{"booking_link_id": bookingLinkID}).
		OrderBy("created_at ASC", "staff_user_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list link staff query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list link staff failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan link staff failed: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *pgxRepository) ListServiceAddonIDs(ctx context.Context, serviceID string) ([]string, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id").
		From("public.addons").
		Where(squirrel.Eq{"service_id": serviceID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list addons query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list addons failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan addon failed: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
