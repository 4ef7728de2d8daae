package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/domain"
	"fakturo/internal/domain/filter"
)

// BaseScopedRepo provides common CRUD operations for tenant-scoped entities.
// Every statement it builds carries a mandatory tenant_id predicate taken from
// the active tenant in context; rows of other tenants are invisible, and a
// cross-tenant primary-key lookup reports NOT_FOUND rather than FORBIDDEN so
// existence never leaks.
//
// Unscoped reads for cross-tenant administrative code live on separate,
// explicitly named methods so that bypassing isolation is always visible at
// the call site.
type BaseScopedRepo[T tenant.Scoped] struct {
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

// NewBaseScopedRepo creates a new tenant-scoped base repository.
// Note: TxManager is obtained from context, not stored in struct.
func NewBaseScopedRepo[T tenant.Scoped](
	tableName string,
	entityName string,
	selectCols []string,
	newFn func() T,
) *BaseScopedRepo[T] {
	return &BaseScopedRepo[T]{
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

// getTxManager retrieves TxManager from context.
func (r *BaseScopedRepo[T]) getTxManager(ctx context.Context) *TxManager {
	return MustGetTxManager(ctx)
}

// Builder returns a new squirrel builder.
func (r *BaseScopedRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Table returns the repository's table name.
func (r *BaseScopedRepo[T]) Table() string {
	return r.tableName
}

// ScopedSelect creates a SELECT builder pre-filtered to the active tenant.
// Every read of tenant-scoped data must go through this, never an
// unfiltered query.
func (r *BaseScopedRepo[T]) ScopedSelect(ctx context.Context) (squirrel.SelectBuilder, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return squirrel.SelectBuilder{}, err
	}
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"tenant_id": tid}), nil
}

// stampTenant fills a nil tenant marker with the active tenant. A non-nil
// marker is kept as the entity carries it; the transaction write log records
// that marker and the commit-time guard rejects any mismatch before COMMIT,
// so a mis-stamped entity rolls back instead of landing in another tenant.
func (r *BaseScopedRepo[T]) stampTenant(ctx context.Context, e T) (id.ID, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return id.Nil(), err
	}
	if id.IsNil(e.GetTenantID()) {
		e.SetTenantID(tid)
	}
	return tid, nil
}

// Create inserts a new entity, stamped with the active tenant.
func (r *BaseScopedRepo[T]) Create(ctx context.Context, e T) error {
	if _, err := r.stampTenant(ctx, e); err != nil {
		return err
	}

	data := StructToMap(e)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Insert(r.tableName).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}

	RecordWrite(ctx, r.tableName, e.GetTenantID())
	return nil
}

// Update updates an existing entity with optimistic locking.
// The tenant predicate in WHERE makes cross-tenant updates no-ops, which are
// then reported as concurrent modifications.
func (r *BaseScopedRepo[T]) Update(ctx context.Context, e T) error {
	tid, err := r.stampTenant(ctx, e)
	if err != nil {
		return err
	}

	data := StructToMap(e)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field")
	}

	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	// Exclude immutable fields
	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" || col == "tenant_id" || col == "created_at" || col == "created_by" {
			continue
		}
		if col == "version" || col == "updated_at" {
			continue // version/updated_at are managed by repo
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Update(r.tableName).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"tenant_id": tid}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, entityID)
	}

	RecordWrite(ctx, r.tableName, e.GetTenantID())
	return nil
}

// Delete physically removes an entity within the active tenant.
// A foreign key violation surfaces as CONFLICT, not an internal error.
func (r *BaseScopedRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}

	q := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"tenant_id": tid})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewConflict("cannot delete: referenced by other records").
				WithDetail("entity", r.entityName).
				WithDetail("id", entityID.String()).
				WithCause(err)
		}
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}

	RecordWrite(ctx, r.tableName, tid)
	return nil
}

// SetDeletionMark sets or clears the deletion mark (soft delete).
func (r *BaseScopedRepo[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}

	q := r.Builder().
		Update(r.tableName).
		Set("deletion_mark", marked).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"tenant_id": tid})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set deletion mark %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}

	RecordWrite(ctx, r.tableName, tid)
	return nil
}

// GetByID retrieves an entity by primary key within the active tenant.
// A row owned by another tenant is reported as NOT_FOUND.
func (r *BaseScopedRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e := r.newFn()
	q, err := r.ScopedSelect(ctx)
	if err != nil {
		return e, err
	}
	q = q.Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return e, fmt.Errorf("get by id: %w", err)
	}

	return e, nil
}

// UnscopedGetByID fetches without tenant filtering. Escape hatch reserved for
// cross-tenant administrative code; never call it from request handlers.
func (r *BaseScopedRepo[T]) UnscopedGetByID(ctx context.Context, entityID id.ID) (T, error) {
	e := r.newFn()
	q := r.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return e, fmt.Errorf("get by id: %w", err)
	}

	return e, nil
}

// SelectMany runs a scoped SELECT and scans all rows.
func (r *BaseScopedRepo[T]) SelectMany(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []T
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.tableName, err)
	}
	return items, nil
}

// GetByCode retrieves an entity by code within the active tenant.
func (r *BaseScopedRepo[T]) GetByCode(ctx context.Context, code string) (T, error) {
	e := r.newFn()
	q, err := r.ScopedSelect(ctx)
	if err != nil {
		return e, err
	}
	q = q.Where(squirrel.Eq{"code": code}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound(r.entityName, code)
		}
		return e, fmt.Errorf("get by code: %w", err)
	}

	return e, nil
}

// GetForUpdate retrieves an entity by ID with a row lock. Must run inside
// a transaction.
func (r *BaseScopedRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	e := r.newFn()
	q, err := r.ScopedSelect(ctx)
	if err != nil {
		return e, err
	}
	q = q.Where(squirrel.Eq{"id": entityID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return e, fmt.Errorf("get for update: %w", err)
	}

	return e, nil
}

// FindOne executes a SELECT builder and scans a single entity.
func (r *BaseScopedRepo[T]) FindOne(ctx context.Context, q squirrel.SelectBuilder) (T, error) {
	e := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound(r.entityName, "matching query")
		}
		return e, fmt.Errorf("find one: %w", err)
	}

	return e, nil
}

// Exists checks if an entity exists within the active tenant.
func (r *BaseScopedRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return false, err
	}

	q := r.Builder().
		Select("1").
		From(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"tenant_id": tid}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	var one int
	err = querier.QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}

	return true, nil
}

// ExistsByCode checks if an entity with the given code exists within the
// active tenant.
func (r *BaseScopedRepo[T]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return false, err
	}

	q := r.Builder().
		Select("1").
		From(r.tableName).
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.Eq{"tenant_id": tid}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	var one int
	err = querier.QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by code: %w", err)
	}

	return true, nil
}

// List retrieves entities with filtering, counting and pagination.
func (r *BaseScopedRepo[T]) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q, err := r.ScopedSelect(ctx)
	if err != nil {
		return result, err
	}

	if !f.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}

	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}

	q, err = r.ApplyAdvancedFilters(q, f.AdvancedFilters)
	if err != nil {
		return result, err
	}

	// Count before pagination.
	countQ := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.ParseOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	items, err := r.SelectMany(ctx, q)
	if err != nil {
		return result, err
	}
	result.Items = items

	return result, nil
}

// ApplyAdvancedFilters appends arbitrary field conditions to a query.
// Fields are whitelisted against the repository's columns.
func (r *BaseScopedRepo[T]) ApplyAdvancedFilters(q squirrel.SelectBuilder, filters []filter.Item) (squirrel.SelectBuilder, error) {
	if len(filters) == 0 {
		return q, nil
	}

	validCols := make(map[string]bool, len(r.selectCols))
	for _, col := range r.selectCols {
		validCols[col] = true
	}

	for _, item := range filters {
		if !validCols[item.Field] {
			return q, apperror.NewValidation("invalid filter column").
				WithDetail("field", item.Field)
		}

		switch item.Operator {
		case filter.Equal:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.NotEqual:
			q = q.Where(squirrel.NotEq{item.Field: item.Value})
		case filter.LessOrEqual:
			q = q.Where(squirrel.LtOrEq{item.Field: item.Value})
		case filter.GreaterOrEqual:
			q = q.Where(squirrel.GtOrEq{item.Field: item.Value})
		case filter.InList:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.NotInList:
			q = q.Where(squirrel.NotEq{item.Field: item.Value})
		case filter.IsNull:
			q = q.Where(squirrel.Eq{item.Field: nil})
		case filter.IsNotNull:
			q = q.Where(squirrel.NotEq{item.Field: nil})
		case filter.Contains:
			val := fmt.Sprintf("%%%v%%", item.Value)
			q = q.Where(squirrel.ILike{item.Field: val})
		case filter.NotContains:
			val := fmt.Sprintf("%%%v%%", item.Value)
			q = q.Where(squirrel.NotILike{item.Field: val})
		default:
			return q, apperror.NewValidation("unsupported filter operator").
				WithDetail("operator", string(item.Operator))
		}
	}

	return q, nil
}

// ParseOrderBy validates an order-by expression against the repository's
// columns. Supports "-field" for descending order.
func (r *BaseScopedRepo[T]) ParseOrderBy(orderBy string) (string, error) {
	allowed := make(map[string]struct{}, len(r.selectCols)+2)
	for _, col := range r.selectCols {
		allowed[col] = struct{}{}
	}
	allowed["created_at"] = struct{}{}
	allowed["updated_at"] = struct{}{}

	if orderBy == "" {
		return "name ASC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").
			WithDetail("orderBy", orderBy).
			WithDetail("field", field)
	}

	return field + " " + direction, nil
}
