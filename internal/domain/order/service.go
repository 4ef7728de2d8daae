package order

import (
	"context"
	"fmt"

	"fakturo/internal/core/apperror"
	appctx "fakturo/internal/core/context"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/core/tx"
	"fakturo/internal/domain"
	"fakturo/internal/domain/numbering"
	"fakturo/internal/domain/partner"
	"fakturo/pkg/logger"
)

// EntityType is the numbering config key for orders.
const EntityType = "order"

// Service provides business operations for order documents.
// TxManager is optional; if nil it is obtained from context.
type Service struct {
	repo      Repository
	partners  partner.Repository
	numbering *numbering.Engine
	txManager tx.Manager
	auditor   domain.Auditor
}

// NewService creates a new order service.
func NewService(repo Repository, partners partner.Repository, engine *numbering.Engine, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		partners:  partners,
		numbering: engine,
		txManager: txManager,
	}
}

// SetAuditor enables audit trailing of order mutations.
func (s *Service) SetAuditor(a domain.Auditor) {
	s.auditor = a
}

// recordAudit runs after the mutation commits; failures are logged, never
// propagated.
func (s *Service) recordAudit(ctx context.Context, docID id.ID, action string, changes map[string]any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.LogChange(ctx, EntityType, docID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "entity", EntityType, "id", docID, "error", err)
	}
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tenant.GetTxManager(ctx)
}

// Create creates a new order document. The number is generated inside the
// transaction so that a failed create never consumes a visible sequence gap
// under concurrent load.
func (s *Service) Create(ctx context.Context, doc *Order) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	doc.StampCreated(appctx.GetUserID(ctx))

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if doc.Number == "" {
			p, err := s.partners.GetByID(ctx, doc.PartnerID)
			if err != nil {
				return fmt.Errorf("load partner: %w", err)
			}
			number, ok, err := s.numbering.Generate(ctx, numbering.Request{
				EntityType:  EntityType,
				PartnerCode: p.Code,
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
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "order created", "id", doc.ID, "number", doc.Number)
	s.recordAudit(ctx, doc.ID, domain.AuditCreate, map[string]any{
		"number":  doc.Number,
		"partner": doc.PartnerID,
		"items":   len(doc.Items),
	})
	return nil
}

// GetByID retrieves an order with items.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Order, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items

	return doc, nil
}

// Update updates an order document. Locked orders refuse modification.
func (s *Service) Update(ctx context.Context, doc *Order) error {
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

// Delete soft-deletes an order. Locked orders cannot be deleted.
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

// Confirm marks the order ready for delivery.
func (s *Service) Confirm(ctx context.Context, docID id.ID) error {
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
		doc.StampUpdated(appctx.GetUserID(ctx))
		doc.Touch()
		changed = true
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return err
	}

	if changed {
		s.recordAudit(ctx, docID, domain.AuditStatus, map[string]any{"confirmed": true})
	}
	return nil
}

// SetLocked locks or unlocks an order. An admin override: unlocking
// reopens a completed order for modification.
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

// List retrieves orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}
