// Package document_repo provides PostgreSQL implementations for document
// repositories (orders, delivery notes, invoices). All header queries run
// through BaseScopedRepo; line tables carry their own tenant_id and are
// always written together with the header inside one transaction.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/domain"
	"fakturo/internal/domain/order"
	"fakturo/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "orders"
	orderItemsTable = "order_items"
)

// OrderRepo implements order.Repository.
type OrderRepo struct {
	*postgres.BaseScopedRepo[*order.Order]
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo() *OrderRepo {
	return &OrderRepo{
		BaseScopedRepo: postgres.NewBaseScopedRepo[*order.Order](
			ordersTable,
			"order",
			postgres.ExtractDBColumns[order.Order](),
			func() *order.Order { return &order.Order{} },
		),
	}
}

// GetByNumber retrieves an order by its document number.
func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	q, err := r.ScopedSelect(ctx)
	if err != nil {
		return nil, err
	}
	q = q.Where(squirrel.Eq{"number": number}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	doc, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("order", number)
		}
		return nil, err
	}
	return doc, nil
}

// GetItems loads the order's lines.
func (r *OrderRepo) GetItems(ctx context.Context, docID id.ID) ([]order.Item, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.Builder().
		Select(postgres.ExtractDBColumns[order.Item]()...).
		From(orderItemsTable).
		Where(squirrel.Eq{"order_id": docID}).
		Where(squirrel.Eq{"tenant_id": tid}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []order.Item
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	return items, nil
}

// SaveItems replaces the order's lines.
func (r *OrderRepo) SaveItems(ctx context.Context, docID id.ID, items []order.Item) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + orderItemsTable + " WHERE order_id = $1 AND tenant_id = $2"
	if _, err := querier.Exec(ctx, deleteSQL, docID, tid); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) > 0 {
		q := r.Builder().
			Insert(orderItemsTable).
			Columns(
				"id", "tenant_id", "order_id", "product_id", "bundle_id",
				"is_manual", "manual_name", "quantity", "unit_price",
			)

		for _, it := range items {
			itemID := it.ID
			if id.IsNil(itemID) {
				itemID = id.New()
			}
			itemTenant := it.TenantID
			if id.IsNil(itemTenant) {
				itemTenant = tid
			}
			q = q.Values(
				itemID, itemTenant, docID, it.ProductID, it.BundleID,
				it.IsManual, it.ManualName, it.Quantity, it.UnitPrice,
			)
			postgres.RecordWrite(ctx, orderItemsTable, itemTenant)
		}

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert items: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
	}

	return nil
}

// List retrieves orders with document filtering.
func (r *OrderRepo) List(ctx context.Context, f order.ListFilter) (domain.ListResult[*order.Order], error) {
	result := domain.ListResult[*order.Order]{
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
	if f.PartnerID != nil {
		q = q.Where(squirrel.Eq{"partner_id": *f.PartnerID})
	}
	if f.Confirmed != nil {
		q = q.Where(squirrel.Eq{"confirmed": *f.Confirmed})
	}
	if f.Locked != nil {
		q = q.Where(squirrel.Eq{"locked": *f.Locked})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.DateTo})
	}
	if f.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + f.Search + "%"})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy := "date DESC"
	if f.OrderBy != "" {
		orderBy, err = r.ParseOrderBy(f.OrderBy)
		if err != nil {
			return result, err
		}
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

var _ order.Repository = (*OrderRepo)(nil)
