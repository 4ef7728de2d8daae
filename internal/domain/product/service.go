package product

import (
	"context"

	"fakturo/internal/domain"
	"fakturo/internal/domain/numbering"
	"fakturo/pkg/logger"
)

// Service provides business logic for the Product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	numbering *numbering.Engine
}

// NewService creates a new Product service.
func NewService(repo Repository, engine *numbering.Engine) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numbering:      engine,
	}

	base.Hooks().OnBeforeCreate(svc.assignNumber)
	base.Hooks().OnBeforeUpdate(svc.trackPriceChange)

	return svc
}

// assignNumber fills the product number from the tenant's pattern. Services
// and goods resolve the [TYPE] tag differently, so each runs its own
// counter when the pattern carries it.
func (s *Service) assignNumber(ctx context.Context, p *Product) error {
	if p.Number != "" {
		return nil
	}
	docType := numbering.TypeGoods
	if p.IsService {
		docType = numbering.TypeService
	}
	number, ok, err := s.numbering.Generate(ctx, numbering.Request{
		EntityType: EntityType,
		DocType:    docType,
	})
	if err != nil {
		return err
	}
	if ok {
		p.Number = number
	}
	return nil
}

// trackPriceChange appends a price history row when the price moved.
func (s *Service) trackPriceChange(ctx context.Context, p *Product) error {
	current, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if current.Price.Equal(p.Price) {
		return nil
	}
	if err := s.repo.RecordPriceChange(ctx, p.ID, p.Price); err != nil {
		return err
	}
	logger.Info(ctx, "product price changed",
		"product_id", p.ID.String(),
		"old_price", current.Price.String(),
		"new_price", p.Price.String(),
	)
	return nil
}

// BundleService provides business logic for the Bundle catalog.
type BundleService struct {
	*domain.CatalogService[*Bundle]
	repo      BundleRepository
	numbering *numbering.Engine
}

// NewBundleService creates a new Bundle service.
func NewBundleService(repo BundleRepository, engine *numbering.Engine) *BundleService {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Bundle]{
		Repo:       repo,
		EntityName: "bundle",
	})

	svc := &BundleService{
		CatalogService: base,
		repo:           repo,
		numbering:      engine,
	}

	base.Hooks().OnBeforeCreate(svc.assignNumber)

	return svc
}

// assignNumber fills the bundle number from the tenant's pattern.
func (s *BundleService) assignNumber(ctx context.Context, b *Bundle) error {
	if b.Number != "" {
		return nil
	}
	number, ok, err := s.numbering.Generate(ctx, numbering.Request{EntityType: BundleEntityType})
	if err != nil {
		return err
	}
	if ok {
		b.Number = number
	}
	return nil
}

// SetItems replaces the bundle's component list.
func (s *BundleService) SetItems(ctx context.Context, b *Bundle, items []BundleItem) error {
	b.Items = items
	if err := b.Validate(ctx); err != nil {
		return err
	}
	return s.repo.ReplaceItems(ctx, b.ID, items)
}
