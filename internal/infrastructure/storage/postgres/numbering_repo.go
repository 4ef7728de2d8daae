package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/domain/numbering"
)

const numberingConfigsTable = "numbering_configs"

// NumberingConfigRepo implements numbering.ConfigRepository. One config per
// (tenant, entity_type); absence means the caller falls back to its own
// number series.
type NumberingConfigRepo struct{}

func NewNumberingConfigRepo() *NumberingConfigRepo {
	return &NumberingConfigRepo{}
}

func (r *NumberingConfigRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// FindByEntityType returns the active tenant's config for the entity type,
// or nil when none is configured.
func (r *NumberingConfigRepo) FindByEntityType(ctx context.Context, entityType string) (*numbering.Config, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder().
		Select(ExtractDBColumns[numbering.Config]()...).
		From(numberingConfigsTable).
		Where(squirrel.Eq{"tenant_id": tid}).
		Where(squirrel.Eq{"entity_type": entityType}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var cfg numbering.Config
	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &cfg, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find numbering config: %w", err)
	}
	return &cfg, nil
}

// Upsert creates or replaces the config for its entity type.
func (r *NumberingConfigRepo) Upsert(ctx context.Context, cfg *numbering.Config) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}
	if err := tenant.Stamp(ctx, cfg); err != nil {
		return err
	}
	if id.IsNil(cfg.ID) {
		cfg.ID = id.New()
	}

	sql := `
		INSERT INTO ` + numberingConfigsTable + ` (id, tenant_id, entity_type, pattern)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, entity_type)
		DO UPDATE SET pattern = EXCLUDED.pattern, version = ` + numberingConfigsTable + `.version + 1
	`

	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, cfg.ID, tid, cfg.EntityType, cfg.Pattern); err != nil {
		return fmt.Errorf("upsert numbering config: %w", err)
	}

	RecordWrite(ctx, numberingConfigsTable, tid)
	return nil
}

// List returns all configs of the active tenant.
func (r *NumberingConfigRepo) List(ctx context.Context) ([]*numbering.Config, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder().
		Select(ExtractDBColumns[numbering.Config]()...).
		From(numberingConfigsTable).
		Where(squirrel.Eq{"tenant_id": tid}).
		OrderBy("entity_type")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var configs []*numbering.Config
	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &configs, sql, args...); err != nil {
		return nil, fmt.Errorf("list numbering configs: %w", err)
	}
	return configs, nil
}

// Delete removes the config for an entity type. Deleting a missing config
// is a no-op.
func (r *NumberingConfigRepo) Delete(ctx context.Context, entityType string) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}

	q := r.builder().
		Delete(numberingConfigsTable).
		Where(squirrel.Eq{"tenant_id": tid}).
		Where(squirrel.Eq{"entity_type": entityType})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete numbering config: %w", err)
	}

	RecordWrite(ctx, numberingConfigsTable, tid)
	return nil
}

var _ numbering.ConfigRepository = (*NumberingConfigRepo)(nil)
