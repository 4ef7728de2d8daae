// Package settings provides tenant-scoped application settings as a simple
// key-value store with typed accessors.
package settings

import (
	"context"
	"strconv"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/entity"
	"fakturo/internal/core/types"
)

// Well-known setting keys.
const (
	KeyDefaultVATRate = "default_vat_rate"
	KeyCurrency       = "currency"
)

// Fallbacks for tenants that have not configured a value.
var (
	FallbackVATRate = types.MustMoney("20")
)

// FallbackCurrency is the currency code assumed when unset.
const FallbackCurrency = "EUR"

// Setting is one tenant-scoped configuration value.
type Setting struct {
	entity.BaseEntity

	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`
}

// Validate implements entity.Validatable.
func (s *Setting) Validate(_ context.Context) error {
	if s.Key == "" {
		return apperror.NewValidation("key is required").
			WithDetail("field", "key")
	}
	return nil
}

// Repository is the persistence port for settings.
type Repository interface {
	// Get returns the value for key, or "" and false when unset.
	Get(ctx context.Context, key string) (string, bool, error)

	Set(ctx context.Context, key, value string) error

	Delete(ctx context.Context, key string) error

	List(ctx context.Context) ([]Setting, error)
}

// Service wraps the repository with typed accessors and defaults.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetString returns the setting value or the default when unset.
func (s *Service) GetString(ctx context.Context, key, def string) (string, error) {
	v, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// GetBool returns the setting as a bool or the default when unset or
// unparsable.
func (s *Service) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	v, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, nil
	}
	return b, nil
}

// GetInt returns the setting as an int or the default when unset or
// unparsable.
func (s *Service) GetInt(ctx context.Context, key string, def int) (int, error) {
	v, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, nil
	}
	return n, nil
}

// DefaultVATRate returns the tenant's default VAT percentage, applied to
// invoice lines whose product carries no rate of its own. Unset or
// unparsable values fall back to 20.
func (s *Service) DefaultVATRate(ctx context.Context) (types.Money, error) {
	v, ok, err := s.repo.Get(ctx, KeyDefaultVATRate)
	if err != nil {
		return types.Zero(), err
	}
	if !ok {
		return FallbackVATRate, nil
	}
	rate, err := types.NewMoneyFromString(v)
	if err != nil || rate.IsNegative() {
		return FallbackVATRate, nil
	}
	return rate, nil
}

// Currency returns the tenant's currency code.
func (s *Service) Currency(ctx context.Context) (string, error) {
	return s.GetString(ctx, KeyCurrency, FallbackCurrency)
}

// Set stores a setting value for the active tenant.
func (s *Service) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return apperror.NewValidation("key is required").
			WithDetail("field", "key")
	}
	return s.repo.Set(ctx, key, value)
}

// Delete removes a setting.
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

// List returns all settings of the active tenant.
func (s *Service) List(ctx context.Context) ([]Setting, error) {
	return s.repo.List(ctx)
}
