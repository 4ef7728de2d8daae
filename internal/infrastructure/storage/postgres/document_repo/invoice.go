package document_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/domain"
	"fakturo/internal/domain/invoice"
	"fakturo/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "invoices"
	invoiceItemsTable = "invoice_items"
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*postgres.BaseScopedRepo[*invoice.Invoice]
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo() *InvoiceRepo {
	return &InvoiceRepo{
		BaseScopedRepo: postgres.NewBaseScopedRepo[*invoice.Invoice](
			invoicesTable,
			"invoice",
			postgres.ExtractDBColumns[invoice.Invoice](),
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
	}
}

// GetByNumber retrieves an invoice by its number.
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
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
			return nil, apperror.NewNotFound("invoice", number)
		}
		return nil, err
	}
	return doc, nil
}

// GetItems loads the invoice's lines.
func (r *InvoiceRepo) GetItems(ctx context.Context, docID id.ID) ([]invoice.Item, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.Builder().
		Select(postgres.ExtractDBColumns[invoice.Item]()...).
		From(invoiceItemsTable).
		Where(squirrel.Eq{"invoice_id": docID}).
		Where(squirrel.Eq{"tenant_id": tid}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []invoice.Item
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get invoice items: %w", err)
	}
	return items, nil
}

// SaveItems replaces the invoice's lines.
func (r *InvoiceRepo) SaveItems(ctx context.Context, docID id.ID, items []invoice.Item) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + invoiceItemsTable + " WHERE invoice_id = $1 AND tenant_id = $2"
	if _, err := querier.Exec(ctx, deleteSQL, docID, tid); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) > 0 {
		q := r.Builder().
			Insert(invoiceItemsTable).
			Columns(
				"id", "tenant_id", "invoice_id", "source_delivery_id",
				"description", "quantity", "unit_price", "total",
				"vat_rate", "vat_amount", "total_with_vat", "is_manual",
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
				itemID, itemTenant, docID, it.SourceDeliveryID,
				it.Description, it.Quantity, it.UnitPrice, it.Total,
				it.VATRate, it.VATAmount, it.TotalWithVAT, it.IsManual,
			)
			postgres.RecordWrite(ctx, invoiceItemsTable, itemTenant)
		}

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert items: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert invoice items: %w", err)
		}
	}

	return nil
}

// LastNumberWithPrefix returns the highest invoice number starting with
// prefix, or "" when none exists.
func (r *InvoiceRepo) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return "", err
	}

	q := r.Builder().
		Select("number").
		From(invoicesTable).
		Where(squirrel.Eq{"tenant_id": tid}).
		Where(squirrel.Like{"number": prefix + "%"}).
		OrderBy("number DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var number string
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	err = querier.QueryRow(ctx, sql, args...).Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last number with prefix: %w", err)
	}
	return number, nil
}

// List retrieves invoices with document filtering.
func (r *InvoiceRepo) List(ctx context.Context, f invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	result := domain.ListResult[*invoice.Invoice]{
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
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
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

var _ invoice.Repository = (*InvoiceRepo)(nil)
