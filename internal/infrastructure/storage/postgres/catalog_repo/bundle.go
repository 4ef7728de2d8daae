package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/domain"
	"fakturo/internal/domain/product"
	"fakturo/internal/infrastructure/storage/postgres"
)

const (
	bundleTable     = "bundles"
	bundleItemTable = "bundle_items"
)

// BundleRepo implements product.BundleRepository. Bundles load with their
// component items.
type BundleRepo struct {
	*postgres.BaseScopedRepo[*product.Bundle]
}

// NewBundleRepo creates a new bundle repository.
func NewBundleRepo() *BundleRepo {
	return &BundleRepo{
		BaseScopedRepo: postgres.NewBaseScopedRepo[*product.Bundle](
			bundleTable,
			"bundle",
			postgres.ExtractDBColumns[product.Bundle](),
			func() *product.Bundle { return &product.Bundle{} },
		),
	}
}

// GetByID retrieves a bundle with its items.
func (r *BundleRepo) GetByID(ctx context.Context, bundleID id.ID) (*product.Bundle, error) {
	b, err := r.BaseScopedRepo.GetByID(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return b, nil
}

// GetByCode retrieves a bundle by code with its items.
func (r *BundleRepo) GetByCode(ctx context.Context, code string) (*product.Bundle, error) {
	b, err := r.BaseScopedRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return b, nil
}

// List retrieves bundles with their items loaded.
func (r *BundleRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*product.Bundle], error) {
	result, err := r.BaseScopedRepo.List(ctx, f)
	if err != nil {
		return result, err
	}
	for _, b := range result.Items {
		items, err := r.loadItems(ctx, b.ID)
		if err != nil {
			return result, err
		}
		b.Items = items
	}
	return result, nil
}

// ReplaceItems swaps the bundle's component list.
func (r *BundleRepo) ReplaceItems(ctx context.Context, bundleID id.ID, items []product.BundleItem) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	delQ := r.Builder().
		Delete(bundleItemTable).
		Where(squirrel.Eq{"bundle_id": bundleID}).
		Where(squirrel.Eq{"tenant_id": tid})

	sql, args, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete items: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete bundle items: %w", err)
	}

	if len(items) > 0 {
		insQ := r.Builder().
			Insert(bundleItemTable).
			Columns("id", "tenant_id", "bundle_id", "product_id", "quantity")
		for _, it := range items {
			itemID := it.ID
			if id.IsNil(itemID) {
				itemID = id.New()
			}
			insQ = insQ.Values(itemID, tid, bundleID, it.ProductID, it.Quantity)
		}

		sql, args, err := insQ.ToSql()
		if err != nil {
			return fmt.Errorf("build insert items: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert bundle items: %w", err)
		}
	}

	postgres.RecordWrite(ctx, bundleItemTable, tid)
	return nil
}

func (r *BundleRepo) loadItems(ctx context.Context, bundleID id.ID) ([]product.BundleItem, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.Builder().
		Select(postgres.ExtractDBColumns[product.BundleItem]()...).
		From(bundleItemTable).
		Where(squirrel.Eq{"bundle_id": bundleID}).
		Where(squirrel.Eq{"tenant_id": tid}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	var items []product.BundleItem
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select bundle items: %w", err)
	}
	return items, nil
}

var _ product.BundleRepository = (*BundleRepo)(nil)
