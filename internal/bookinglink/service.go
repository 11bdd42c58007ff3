package bookinglink

import (
	"context"
	"fmt"

	"github.com/ashmont-labs/bookinglink-backend/internal/availability"
)

type CreateRequest struct {
	ProviderID              string
	Slug                    string
	Name                    string
	Availability            availability.Config
	CancellationCutoffHours int
}

type UpdateRequest struct {
	Slug                    *string
	Name                    *string
	Availability            *availability.Config
	CancellationCutoffHours *int
}

// CacheGenerator regenerates the availability cache for a link. Implemented
// by availability.Generator.
type CacheGenerator interface {
	Generate(ctx context.Context, providerID, bookingLinkID string, cfg *availability.Config) error
}

type Service interface {
	// Create validates the availability config, persists the link and runs
	// cache generation synchronously. A generation failure is returned to
	// the caller so the link is never advertised with absent availability.
	Create(ctx context.Context, req CreateRequest) (*BookingLink, error)

	// Update applies the patch and, when the availability config changed,
	// regenerates the cache (full per-day overwrite).
	Update(ctx context.Context, id string, req UpdateRequest) (*BookingLink, error)

	GetByID(ctx context.Context, id string) (*BookingLink, error)
	GetBySlug(ctx context.Context, providerID, slug string) (*BookingLink, error)
	ListByProvider(ctx context.Context, providerID string) ([]*BookingLink, error)
}

type service struct {
	repo      Repository
	generator CacheGenerator

	// defaultCutoffHours applies to links created without their own
	// cancellation cutoff.
	defaultCutoffHours int
}

func NewService(repo Repository, generator CacheGenerator, defaultCutoffHours int) Service {
	return &service{
		repo:               repo,
		generator:          generator,
		defaultCutoffHours: defaultCutoffHours,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*BookingLink, error) {
	cfg := req.Availability
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cutoff := req.CancellationCutoffHours
	if cutoff <= 0 {
		cutoff = s.defaultCutoffHours
	}

	link := &BookingLink{
		ProviderID:              req.ProviderID,
		Slug:                    req.Slug,
		Name:                    req.Name,
		Availability:            cfg,
		CancellationCutoffHours: cutoff,
	}

	if err := s.repo.Create(ctx, link); err != nil {
		return nil, err
	}

	if err := s.generator.Generate(ctx, link.ProviderID, link.ID, &link.Availability); err != nil {
		return nil, fmt.Errorf("booking link %s created but cache generation failed: %w", link.ID, err)
	}

	return link, nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*BookingLink, error) {
	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	configChanged := false

	if req.Slug != nil {
		link.Slug = *req.Slug
	}
	if req.Name != nil {
		link.Name = *req.Name
	}
	if req.CancellationCutoffHours != nil {
		link.CancellationCutoffHours = *req.CancellationCutoffHours
	}
	if req.Availability != nil {
		cfg := *req.Availability
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		link.Availability = cfg
		configChanged = true
	}

	if err := s.repo.Update(ctx, link); err != nil {
		return nil, err
	}

	if configChanged {
		if err := s.generator.Generate(ctx, link.ProviderID, link.ID, &link.Availability); err != nil {
			return nil, fmt.Errorf("booking link %s updated but cache generation failed: %w", link.ID, err)
		}
	}

	return link, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*BookingLink, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetBySlug(ctx context.Context, providerID, slug string) (*BookingLink, error) {
	return s.repo.GetBySlug(ctx, providerID, slug)
}

func (s *service) ListByProvider(ctx context.Context, providerID string) ([]*BookingLink, error) {
	return s.repo.ListByProvider(ctx, providerID)
}
