package catalog_repo

import (
	"context"
	"fmt"

	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/product"
	"fakturo/internal/infrastructure/storage/postgres"
)

const (
	productTable      = "products"
	priceHistoryTable = "product_price_history"
)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*postgres.BaseScopedRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo() *ProductRepo {
	return &ProductRepo{
		BaseScopedRepo: postgres.NewBaseScopedRepo[*product.Product](
			productTable,
			"product",
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// RecordPriceChange appends a price history row for the product.
func (r *ProductRepo) RecordPriceChange(ctx context.Context, productID id.ID, price types.Money) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}

	q := r.Builder().
		Insert(priceHistoryTable).
		Columns("id", "tenant_id", "product_id", "price").
		Values(id.New(), tid, productID, price)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build price history insert: %w", err)
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert price history: %w", err)
	}

	postgres.RecordWrite(ctx, priceHistoryTable, tid)
	return nil
}

var _ product.Repository = (*ProductRepo)(nil)
