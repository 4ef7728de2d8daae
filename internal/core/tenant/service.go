package tenant

import (
	"context"
	"errors"
	"fmt"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/pkg/logger"
)

// Service handles tenant provisioning and lifecycle.
type Service struct {
	registry Registry
}

func NewService(registry Registry) *Service {
	return &Service{registry: registry}
}

// Provision creates a new active tenant.
func (s *Service) Provision(ctx context.Context, input CreateTenantInput) (*Tenant, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.registry.GetBySlug(ctx, input.Slug); err == nil {
		return nil, apperror.NewConflict(fmt.Sprintf("tenant slug %q already exists", input.Slug))
	} else if !errors.Is(err, ErrTenantNotFound) {
		return nil, err
	}

	t := &Tenant{
		ID:       id.New(),
		Name:     input.Name,
		Slug:     input.Slug,
		IsActive: true,
	}
	if err := s.registry.Create(ctx, t); err != nil {
		return nil, err
	}

	logger.Info(ctx, "tenant provisioned",
		"tenant_id", t.ID,
		"slug", t.Slug)

	return t, nil
}

// Get retrieves a tenant by ID.
func (s *Service) Get(ctx context.Context, tenantID id.ID) (*Tenant, error) {
	return s.registry.GetByID(ctx, tenantID)
}

// GetBySlug retrieves a tenant by slug.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return s.registry.GetBySlug(ctx, slug)
}

// List returns tenants, active ones only unless includeInactive is set.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]*Tenant, error) {
	if includeInactive {
		return s.registry.ListAll(ctx)
	}
	return s.registry.ListActive(ctx)
}

// Activate marks a tenant active.
func (s *Service) Activate(ctx context.Context, tenantID id.ID) error {
	return s.registry.SetActive(ctx, tenantID, true)
}

// Deactivate marks a tenant inactive. Requests resolving this tenant
// are rejected until reactivated.
func (s *Service) Deactivate(ctx context.Context, tenantID id.ID) error {
	return s.registry.SetActive(ctx, tenantID, false)
}

// Resolve looks up a tenant by ID and verifies it is active.
func (s *Service) Resolve(ctx context.Context, tenantID id.ID) (*Tenant, error) {
	t, err := s.registry.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, ErrTenantNotActive
	}
	return t, nil
}
