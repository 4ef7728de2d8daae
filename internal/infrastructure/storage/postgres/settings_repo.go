package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/domain/settings"
)

const appSettingsTable = "app_settings"

// SettingsRepo implements settings.Repository as a per-tenant key-value
// table with upsert writes.
type SettingsRepo struct{}

func NewSettingsRepo() *SettingsRepo {
	return &SettingsRepo{}
}

func (r *SettingsRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Get returns the value for key, or "" and false when unset.
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return "", false, err
	}

	q := r.builder().
		Select("value").
		From(appSettingsTable).
		Where(squirrel.Eq{"tenant_id": tid}).
		Where(squirrel.Eq{"key": key}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var value string
	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	err = querier.QueryRow(ctx, sql, args...).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting: %w", err)
	}
	return value, true, nil
}

// Set stores a setting value, replacing any previous one.
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}

	sql := `
		INSERT INTO ` + appSettingsTable + ` (id, tenant_id, key, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, key)
		DO UPDATE SET value = EXCLUDED.value, version = ` + appSettingsTable + `.version + 1
	`

	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, id.New(), tid, key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}

	RecordWrite(ctx, appSettingsTable, tid)
	return nil
}

// Delete removes a setting. Deleting a missing key is a no-op.
func (r *SettingsRepo) Delete(ctx context.Context, key string) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}

	q := r.builder().
		Delete(appSettingsTable).
		Where(squirrel.Eq{"tenant_id": tid}).
		Where(squirrel.Eq{"key": key})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}

	RecordWrite(ctx, appSettingsTable, tid)
	return nil
}

// List returns all settings of the active tenant.
func (r *SettingsRepo) List(ctx context.Context) ([]settings.Setting, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder().
		Select(ExtractDBColumns[settings.Setting]()...).
		From(appSettingsTable).
		Where(squirrel.Eq{"tenant_id": tid}).
		OrderBy("key")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []settings.Setting
	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return items, nil
}

var _ settings.Repository = (*SettingsRepo)(nil)
