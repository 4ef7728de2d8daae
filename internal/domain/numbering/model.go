package numbering

import (
	"context"
	"strings"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/entity"
)

// Config is one tenant-scoped numbering rule: which pattern to use when
// generating numbers for a given entity type ("invoice", "delivery_note", ...).
// At most one config per (tenant, entity type).
type Config struct {
	entity.BaseEntity

	EntityType string `db:"entity_type" json:"entity_type"`
	Pattern    string `db:"pattern" json:"pattern"`
}

// Validate implements entity.Validatable.
func (c *Config) Validate(_ context.Context) error {
	if strings.TrimSpace(c.EntityType) == "" {
		return apperror.NewValidation("entity type is required").
			WithDetail("field", "entityType")
	}
	if strings.TrimSpace(c.Pattern) == "" {
		return apperror.NewValidation("pattern is required").
			WithDetail("field", "pattern")
	}
	if CounterSegments(ParsePattern(c.Pattern)) > 1 {
		return apperror.NewValidation("pattern must contain at most one counter tag").
			WithDetail("field", "pattern").
			WithDetail("value", c.Pattern)
	}
	return nil
}

// ConfigRepository is the persistence port for numbering configs.
type ConfigRepository interface {
	// FindByEntityType returns the active tenant's config for the entity
	// type, or nil when none is configured. Absence is not an error.
	FindByEntityType(ctx context.Context, entityType string) (*Config, error)

	// Upsert creates or replaces the config for its entity type.
	Upsert(ctx context.Context, cfg *Config) error

	List(ctx context.Context) ([]*Config, error)

	Delete(ctx context.Context, entityType string) error
}

// SequenceStore is the persistence port for sequence counters. NextValue
// must be atomic per (tenant, entity type, scope key): concurrent callers
// each get a distinct value, and a rolled-back transaction abandons its
// value (gaps are acceptable, duplicates are not).
type SequenceStore interface {
	NextValue(ctx context.Context, entityType, scopeKey string) (int64, error)
	Reset(ctx context.Context, entityType string) error
}
