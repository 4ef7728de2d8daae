package partner

import (
	"context"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/domain"
)

// Service provides business logic for the Partner catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Partner]
	repo Repository
}

// NewService creates a new Partner service.
func NewService(repo Repository) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Partner]{
		Repo:       repo,
		EntityName: "partner",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeCreate(svc.checkUniqueness)
	base.Hooks().OnBeforeUpdate(svc.checkUniqueness)

	return svc
}

// checkUniqueness rejects a second partner with the same ICO in the tenant.
func (s *Service) checkUniqueness(ctx context.Context, p *Partner) error {
	if p.ICO == nil || *p.ICO == "" {
		return nil
	}
	exists, err := s.checkICOExists(ctx, *p.ICO, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewConflict("partner with this ICO already exists").
			WithDetail("ico", *p.ICO)
	}
	return nil
}

// FindByICO retrieves a partner by registration number.
func (s *Service) FindByICO(ctx context.Context, ico string) (*Partner, error) {
	return s.repo.FindByICO(ctx, ico)
}

// BillingGroup returns the partners invoiced together with the given one.
// A partner without a group code bills alone.
func (s *Service) BillingGroup(ctx context.Context, partnerID id.ID) ([]*Partner, error) {
	p, err := s.GetByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if !p.InGroup() {
		return []*Partner{p}, nil
	}
	return s.repo.ListByGroupCode(ctx, *p.GroupCode)
}

func (s *Service) checkICOExists(ctx context.Context, ico string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindByICO(ctx, ico)
	if err != nil {
		// Not found is OK; other errors must be propagated.
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != excludeID, nil
}
