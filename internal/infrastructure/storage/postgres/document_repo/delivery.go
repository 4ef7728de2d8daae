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
	"fakturo/internal/domain/delivery"
	"fakturo/internal/infrastructure/storage/postgres"
)

const (
	deliveryNotesTable      = "delivery_notes"
	deliveryItemsTable      = "delivery_items"
	deliveryComponentsTable = "delivery_item_components"
	deliveryOrdersTable     = "delivery_note_orders"
)

// DeliveryRepo implements delivery.Repository.
type DeliveryRepo struct {
	*postgres.BaseScopedRepo[*delivery.Note]
}

// NewDeliveryRepo creates a new delivery note repository.
func NewDeliveryRepo() *DeliveryRepo {
	return &DeliveryRepo{
		BaseScopedRepo: postgres.NewBaseScopedRepo[*delivery.Note](
			deliveryNotesTable,
			"delivery note",
			postgres.ExtractDBColumns[delivery.Note](),
			func() *delivery.Note { return &delivery.Note{} },
		),
	}
}

// GetByNumber retrieves a note by its document number.
func (r *DeliveryRepo) GetByNumber(ctx context.Context, number string) (*delivery.Note, error) {
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
			return nil, apperror.NewNotFound("delivery note", number)
		}
		return nil, err
	}
	return doc, nil
}

// GetItems loads the note's lines with their bundle components.
func (r *DeliveryRepo) GetItems(ctx context.Context, docID id.ID) ([]delivery.Item, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.Builder().
		Select(postgres.ExtractDBColumns[delivery.Item]()...).
		From(deliveryItemsTable).
		Where(squirrel.Eq{"delivery_note_id": docID}).
		Where(squirrel.Eq{"tenant_id": tid}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []delivery.Item
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get delivery items: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	itemIDs := make([]id.ID, len(items))
	for i, it := range items {
		itemIDs[i] = it.ID
	}

	cq := r.Builder().
		Select(postgres.ExtractDBColumns[delivery.Component]()...).
		From(deliveryComponentsTable).
		Where(squirrel.Eq{"delivery_item_id": itemIDs}).
		Where(squirrel.Eq{"tenant_id": tid}).
		OrderBy("id")

	sql, args, err = cq.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build components query: %w", err)
	}

	var components []delivery.Component
	if err := pgxscan.Select(ctx, querier, &components, sql, args...); err != nil {
		return nil, fmt.Errorf("get item components: %w", err)
	}

	byItem := make(map[id.ID][]delivery.Component, len(items))
	for _, c := range components {
		byItem[c.ItemID] = append(byItem[c.ItemID], c)
	}
	for i := range items {
		items[i].Components = byItem[items[i].ID]
	}

	return items, nil
}

// SaveItems replaces the note's lines and their components.
func (r *DeliveryRepo) SaveItems(ctx context.Context, docID id.ID, items []delivery.Item) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	// Components cascade from items via FK, but we delete explicitly to
	// keep the write order deterministic.
	delComponentsSQL := "DELETE FROM " + deliveryComponentsTable +
		" WHERE delivery_item_id IN (SELECT id FROM " + deliveryItemsTable +
		" WHERE delivery_note_id = $1 AND tenant_id = $2)"
	if _, err := querier.Exec(ctx, delComponentsSQL, docID, tid); err != nil {
		return fmt.Errorf("delete existing components: %w", err)
	}

	delItemsSQL := "DELETE FROM " + deliveryItemsTable + " WHERE delivery_note_id = $1 AND tenant_id = $2"
	if _, err := querier.Exec(ctx, delItemsSQL, docID, tid); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) > 0 {
		itemQ := r.Builder().
			Insert(deliveryItemsTable).
			Columns(
				"id", "tenant_id", "delivery_note_id", "product_id", "bundle_id",
				"is_manual", "manual_name", "quantity", "unit_price", "line_total",
			)

		var componentRows [][]any
		for i := range items {
			it := &items[i]
			if id.IsNil(it.ID) {
				it.ID = id.New()
			}
			if id.IsNil(it.TenantID) {
				it.TenantID = tid
			}
			itemQ = itemQ.Values(
				it.ID, it.TenantID, docID, it.ProductID, it.BundleID,
				it.IsManual, it.ManualName, it.Quantity, it.UnitPrice, it.LineTotal,
			)
			postgres.RecordWrite(ctx, deliveryItemsTable, it.TenantID)
			for _, c := range it.Components {
				compID := c.ID
				if id.IsNil(compID) {
					compID = id.New()
				}
				componentRows = append(componentRows, []any{
					compID, it.TenantID, it.ID, c.ProductID, c.Quantity,
				})
			}
		}

		sql, args, err := itemQ.ToSql()
		if err != nil {
			return fmt.Errorf("build insert items: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert delivery items: %w", err)
		}

		if len(componentRows) > 0 {
			compQ := r.Builder().
				Insert(deliveryComponentsTable).
				Columns("id", "tenant_id", "delivery_item_id", "product_id", "quantity")
			for _, row := range componentRows {
				compQ = compQ.Values(row...)
			}

			sql, args, err := compQ.ToSql()
			if err != nil {
				return fmt.Errorf("build insert components: %w", err)
			}
			if _, err := querier.Exec(ctx, sql, args...); err != nil {
				return fmt.Errorf("insert item components: %w", err)
			}
		}
	}

	return nil
}

// LinkOrders records the source orders of a note.
func (r *DeliveryRepo) LinkOrders(ctx context.Context, docID id.ID, orderIDs []id.ID) error {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return err
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + deliveryOrdersTable + " WHERE delivery_note_id = $1 AND tenant_id = $2"
	if _, err := querier.Exec(ctx, deleteSQL, docID, tid); err != nil {
		return fmt.Errorf("delete existing order links: %w", err)
	}

	if len(orderIDs) > 0 {
		q := r.Builder().
			Insert(deliveryOrdersTable).
			Columns("id", "tenant_id", "delivery_note_id", "order_id")
		for _, oid := range orderIDs {
			q = q.Values(id.New(), tid, docID, oid)
		}

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert order links: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert order links: %w", err)
		}
	}

	postgres.RecordWrite(ctx, deliveryOrdersTable, tid)
	return nil
}

// GetOrderIDs returns the orders linked to a note.
func (r *DeliveryRepo) GetOrderIDs(ctx context.Context, docID id.ID) ([]id.ID, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.Builder().
		Select("order_id").
		From(deliveryOrdersTable).
		Where(squirrel.Eq{"delivery_note_id": docID}).
		Where(squirrel.Eq{"tenant_id": tid}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("get order ids: %w", err)
	}
	return ids, nil
}

// SelectUnbilledForUpdate locks and returns every unbilled note whose partner,
// directly or through a linked order, is in the given set. The FOR UPDATE
// lock serializes concurrent invoice runs over the same notes.
func (r *DeliveryRepo) SelectUnbilledForUpdate(ctx context.Context, partnerIDs []id.ID) ([]*delivery.Note, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return nil, err
	}
	if len(partnerIDs) == 0 {
		return nil, nil
	}

	// Notes may carry the partner directly or inherit it from linked
	// orders. EXISTS keeps the result set duplicate-free, and the lock
	// stays on delivery note rows only.
	linkedPartner := squirrel.Expr(
		"EXISTS (SELECT 1 FROM "+deliveryOrdersTable+" dno"+
			" JOIN "+ordersTable+" o ON o.id = dno.order_id AND o.tenant_id = dno.tenant_id"+
			" WHERE dno.delivery_note_id = dn.id AND dno.tenant_id = dn.tenant_id"+
			" AND o.partner_id = ANY(?))",
		partnerIDs,
	)

	q := r.Builder().
		Select(prefixColumns("dn", postgres.ExtractDBColumns[delivery.Note]())...).
		From(deliveryNotesTable + " dn").
		Where(squirrel.Eq{"dn.tenant_id": tid}).
		Where(squirrel.Eq{"dn.invoiced": false}).
		Where(squirrel.Eq{"dn.deletion_mark": false}).
		Where(squirrel.Or{
			squirrel.Eq{"dn.partner_id": partnerIDs},
			linkedPartner,
		}).
		OrderBy("dn.date ASC", "dn.id ASC").
		Suffix("FOR UPDATE OF dn")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var notes []*delivery.Note
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &notes, sql, args...); err != nil {
		return nil, fmt.Errorf("select unbilled notes: %w", err)
	}
	return notes, nil
}

// MarkInvoiced flips the invoiced flag on notes that are still unbilled and
// reports how many rows changed.
func (r *DeliveryRepo) MarkInvoiced(ctx context.Context, noteIDs []id.ID) (int64, error) {
	tid, err := tenant.RequireID(ctx)
	if err != nil {
		return 0, err
	}
	if len(noteIDs) == 0 {
		return 0, nil
	}

	q := r.Builder().
		Update(deliveryNotesTable).
		Set("invoiced", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": noteIDs}).
		Where(squirrel.Eq{"tenant_id": tid}).
		Where(squirrel.Eq{"invoiced": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("mark invoiced: %w", err)
	}

	postgres.RecordWrite(ctx, deliveryNotesTable, tid)
	return result.RowsAffected(), nil
}

// List retrieves delivery notes with document filtering.
func (r *DeliveryRepo) List(ctx context.Context, f delivery.ListFilter) (domain.ListResult[*delivery.Note], error) {
	result := domain.ListResult[*delivery.Note]{
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
	if f.OrderID != nil {
		q = q.Where(squirrel.Expr(
			"id IN (SELECT delivery_note_id FROM "+deliveryOrdersTable+" WHERE order_id = ?)",
			*f.OrderID,
		))
	}
	if f.Invoiced != nil {
		q = q.Where(squirrel.Eq{"invoiced": *f.Invoiced})
	}
	if f.Confirmed != nil {
		q = q.Where(squirrel.Eq{"confirmed": *f.Confirmed})
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

// prefixColumns qualifies column names with a table alias.
func prefixColumns(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

var _ delivery.Repository = (*DeliveryRepo)(nil)
