package delivery

import (
	"context"
	"fmt"
	"time"

	"fakturo/internal/core/apperror"
	appctx "fakturo/internal/core/context"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/core/tx"
	"fakturo/internal/domain"
	"fakturo/internal/domain/numbering"
	"fakturo/internal/domain/order"
	"fakturo/internal/domain/partner"
	"fakturo/internal/domain/product"
	"fakturo/pkg/logger"
)

// EntityType is the numbering config key for delivery notes.
const EntityType = "delivery_note"

// Service provides business operations for delivery notes.
// TxManager is optional; if nil it is obtained from context.
type Service struct {
	repo      Repository
	orders    order.Repository
	partners  partner.Repository
	bundles   product.BundleRepository
	numbering *numbering.Engine
	txManager tx.Manager
	auditor   domain.Auditor
}

// NewService creates a new delivery note service.
func NewService(
	repo Repository,
	orders order.Repository,
	partners partner.Repository,
	bundles product.BundleRepository,
	engine *numbering.Engine,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		orders:    orders,
		partners:  partners,
		bundles:   bundles,
		numbering: engine,
		txManager: txManager,
	}
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tenant.GetTxManager(ctx)
}

// SetAuditor enables audit trailing of delivery note mutations.
func (s *Service) SetAuditor(a domain.Auditor) {
	s.auditor = a
}

func (s *Service) recordAudit(ctx context.Context, docID id.ID, action string, changes map[string]any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.LogChange(ctx, EntityType, docID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "entity", EntityType, "id", docID, "error", err)
	}
}

// Create creates a delivery note. Bundle lines are expanded into their
// component products before persisting; the number is generated inside the
// transaction.
func (s *Service) Create(ctx context.Context, doc *Note) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	doc.StampCreated(appctx.GetUserID(ctx))

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.expandBundles(ctx, doc); err != nil {
			return err
		}
		if doc.Number == "" {
			code, err := s.partnerCode(ctx, doc.PartnerID)
			if err != nil {
				return err
			}
			number, ok, err := s.numbering.Generate(ctx, numbering.Request{
				EntityType:  EntityType,
				PartnerCode: code,
			})
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			if ok {
				doc.Number = number
			}
		}
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveItems(ctx, doc.ID, doc.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		if len(doc.OrderIDs) > 0 {
			if err := s.repo.LinkOrders(ctx, doc.ID, doc.OrderIDs); err != nil {
				return fmt.Errorf("link orders: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "delivery note created", "id", doc.ID, "number", doc.Number)
	s.recordAudit(ctx, doc.ID, domain.AuditCreate, map[string]any{
		"number": doc.Number,
		"items":  len(doc.Items),
	})
	return nil
}

// CreateFromOrders builds a delivery note from confirmed orders of one
// partner, copying their items and prices. The first order becomes the
// primary order.
func (s *Service) CreateFromOrders(ctx context.Context, orderIDs []id.ID) (*Note, error) {
	if len(orderIDs) == 0 {
		return nil, apperror.NewValidation("at least one order is required").
			WithDetail("field", "orderIds")
	}

	var doc *Note
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var partnerID id.ID
		doc = NewNote(nil)

		for i, oid := range orderIDs {
			o, err := s.orders.GetForUpdate(ctx, oid)
			if err != nil {
				return err
			}
			if !o.Confirmed {
				return apperror.NewBusinessRule("ORDER_NOT_CONFIRMED", "only confirmed orders can be delivered").
					WithDetail("orderId", oid.String())
			}
			if i == 0 {
				partnerID = o.PartnerID
				pid := o.PartnerID
				orderID := o.ID
				doc.PartnerID = &pid
				doc.PrimaryOrderID = &orderID
			} else if o.PartnerID != partnerID {
				return apperror.NewValidation("orders belong to different partners").
					WithDetail("orderId", oid.String())
			}

			items, err := s.orders.GetItems(ctx, oid)
			if err != nil {
				return fmt.Errorf("get order items: %w", err)
			}
			for _, oi := range items {
				doc.AddItem(Item{
					ProductID:  oi.ProductID,
					BundleID:   oi.BundleID,
					IsManual:   oi.IsManual,
					ManualName: oi.ManualName,
					Quantity:   oi.Quantity,
					UnitPrice:  oi.UnitPrice,
				})
			}
		}
		doc.OrderIDs = orderIDs

		if err := doc.Validate(ctx); err != nil {
			return err
		}
		doc.StampCreated(appctx.GetUserID(ctx))
		if err := s.expandBundles(ctx, doc); err != nil {
			return err
		}
		code, err := s.partnerCode(ctx, doc.PartnerID)
		if err != nil {
			return err
		}
		number, ok, err := s.numbering.Generate(ctx, numbering.Request{
			EntityType:  EntityType,
			PartnerCode: code,
		})
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		if ok {
			doc.Number = number
		}
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveItems(ctx, doc.ID, doc.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return s.repo.LinkOrders(ctx, doc.ID, orderIDs)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "delivery note created from orders",
		"id", doc.ID, "number", doc.Number, "orders", len(orderIDs))
	s.recordAudit(ctx, doc.ID, domain.AuditCreate, map[string]any{
		"number": doc.Number,
		"orders": len(orderIDs),
	})
	return doc, nil
}

// partnerCode resolves the partner's code for number patterns. Notes without
// a partner get an empty code, which the pattern renders as "0".
func (s *Service) partnerCode(ctx context.Context, partnerID *id.ID) (string, error) {
	if partnerID == nil {
		return "", nil
	}
	p, err := s.partners.GetByID(ctx, *partnerID)
	if err != nil {
		return "", fmt.Errorf("load partner: %w", err)
	}
	return p.Code, nil
}

// expandBundles fills component rows for every bundle line.
func (s *Service) expandBundles(ctx context.Context, doc *Note) error {
	for i := range doc.Items {
		item := &doc.Items[i]
		if item.BundleID == nil {
			continue
		}
		b, err := s.bundles.GetByID(ctx, *item.BundleID)
		if err != nil {
			return fmt.Errorf("load bundle %s: %w", item.BundleID, err)
		}
		ExpandBundle(item, b)
	}
	return nil
}

// GetByID retrieves a delivery note with items and order links.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Note, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items

	orderIDs, err := s.repo.GetOrderIDs(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get order links: %w", err)
	}
	doc.OrderIDs = orderIDs

	return doc, nil
}

// Update updates a delivery note. Invoiced or locked notes refuse changes.
func (s *Service) Update(ctx context.Context, doc *Note) error {
	if err := doc.CanModify(); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	doc.StampUpdated(appctx.GetUserID(ctx))

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.expandBundles(ctx, doc); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveItems(ctx, doc.ID, doc.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, doc.ID, domain.AuditUpdate, map[string]any{"items": len(doc.Items)})
	return nil
}

// Delete soft-deletes a delivery note. Invoiced or locked notes cannot be
// deleted.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if err := doc.CanModify(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, docID); err != nil {
		return err
	}

	s.recordAudit(ctx, docID, domain.AuditDelete, map[string]any{"number": doc.Number})
	return nil
}

// Confirm marks the note delivered, recording the actual delivery time.
func (s *Service) Confirm(ctx context.Context, docID id.ID, deliveredAt time.Time) error {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	var changed bool
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}
		if doc.Confirmed {
			return nil
		}
		doc.Confirmed = true
		doc.ActualDeliveryAt = &deliveredAt
		doc.StampUpdated(appctx.GetUserID(ctx))
		doc.Touch()
		changed = true
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return err
	}

	if changed {
		s.recordAudit(ctx, docID, domain.AuditStatus, map[string]any{
			"confirmed":   true,
			"deliveredAt": deliveredAt,
		})
	}
	return nil
}

// SetLocked locks or unlocks a delivery note. An admin override for
// correcting notes after confirmation.
func (s *Service) SetLocked(ctx context.Context, docID id.ID, locked bool) error {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	var changed bool
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Locked == locked {
			return nil
		}
		if locked {
			doc.Lock()
		} else {
			doc.Unlock()
		}
		doc.StampUpdated(appctx.GetUserID(ctx))
		doc.Touch()
		changed = true
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return err
	}

	if changed {
		s.recordAudit(ctx, docID, domain.AuditUpdate, map[string]any{"locked": locked})
	}
	return nil
}

// List retrieves delivery notes with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Note], error) {
	return s.repo.List(ctx, filter)
}
