package invoice

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fakturo/internal/core/apperror"
	appctx "fakturo/internal/core/context"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/core/tx"
	"fakturo/internal/core/types"
	"fakturo/internal/domain"
	"fakturo/internal/domain/delivery"
	"fakturo/internal/domain/numbering"
	"fakturo/internal/domain/partner"
	"fakturo/internal/domain/product"
	"fakturo/internal/domain/settings"
	"fakturo/pkg/logger"
)

// EntityType is the numbering config key for invoices.
const EntityType = "invoice"

// fallbackLineName labels lines whose source item carries no product,
// bundle or manual name.
const fallbackLineName = "Položka"

// Service provides business operations for invoices, including the
// collective invoice run. TxManager is optional; if nil it is obtained
// from context.
type Service struct {
	repo       Repository
	partners   partner.Repository
	deliveries delivery.Repository
	products   product.Repository
	bundles    product.BundleRepository
	numbering  *numbering.Engine
	settings   *settings.Service
	txManager  tx.Manager
	auditor    domain.Auditor
	now        func() time.Time
}

// NewService creates a new invoice service.
func NewService(
	repo Repository,
	partners partner.Repository,
	deliveries delivery.Repository,
	products product.Repository,
	bundles product.BundleRepository,
	engine *numbering.Engine,
	settingsService *settings.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		partners:   partners,
		deliveries: deliveries,
		products:   products,
		bundles:    bundles,
		numbering:  engine,
		settings:   settingsService,
		txManager:  txManager,
		now:        time.Now,
	}
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tenant.GetTxManager(ctx)
}

// SetAuditor enables audit trailing of invoice mutations.
func (s *Service) SetAuditor(a domain.Auditor) {
	s.auditor = a
}

func (s *Service) recordAudit(ctx context.Context, invoiceID id.ID, action string, changes map[string]any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.LogChange(ctx, EntityType, invoiceID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "entity", EntityType, "id", invoiceID, "error", err)
	}
}

// BuildForPartner creates a collective invoice from every unbilled delivery
// note of the partner's billing group. The whole run is one transaction:
// the notes are row-locked, turned into invoice lines, marked invoiced and
// the invoice persisted, or nothing happens at all. Concurrent runs over
// the same partner serialize on the row locks, so each note is billed
// exactly once.
func (s *Service) BuildForPartner(ctx context.Context, partnerID id.ID) (*Invoice, error) {
	var inv *Invoice

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.partners.GetByID(ctx, partnerID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("partner", partnerID.String())
			}
			return err
		}

		scope, err := s.billingScope(ctx, p)
		if err != nil {
			return err
		}

		notes, err := s.deliveries.SelectUnbilledForUpdate(ctx, scope)
		if err != nil {
			return fmt.Errorf("select unbilled notes: %w", err)
		}
		if len(notes) == 0 {
			return apperror.NewNothingToInvoice(p.Name)
		}

		number, err := s.generateNumber(ctx, p)
		if err != nil {
			return err
		}

		defaultRate, err := s.settings.DefaultVATRate(ctx)
		if err != nil {
			return fmt.Errorf("load default vat rate: %w", err)
		}

		inv = NewInvoice(partnerID)
		inv.Number = number
		inv.StampCreated(appctx.GetUserID(ctx))

		noteIDs := make([]id.ID, 0, len(notes))
		for _, note := range notes {
			items, err := s.deliveries.GetItems(ctx, note.ID)
			if err != nil {
				return fmt.Errorf("get note items: %w", err)
			}
			for _, di := range items {
				line, err := s.buildLine(ctx, note, di, defaultRate)
				if err != nil {
					return err
				}
				inv.AddItem(line)
			}
			noteIDs = append(noteIDs, note.ID)
		}

		marked, err := s.deliveries.MarkInvoiced(ctx, noteIDs)
		if err != nil {
			return fmt.Errorf("mark notes invoiced: %w", err)
		}
		// The notes are locked, so a short count means a sibling run slipped
		// between select and update. Abort rather than double-bill.
		if marked != int64(len(noteIDs)) {
			return apperror.NewConcurrentModification("delivery_note", noteIDs)
		}

		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		return s.repo.SaveItems(ctx, inv.ID, inv.Items)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "collective invoice created",
		"id", inv.ID,
		"number", inv.Number,
		"partner_id", partnerID.String(),
		"lines", len(inv.Items),
		"total", inv.Total.String(),
	)
	s.recordAudit(ctx, inv.ID, domain.AuditInvoice, map[string]any{
		"number":  inv.Number,
		"partner": partnerID,
		"lines":   len(inv.Items),
		"total":   inv.Total.String(),
	})
	return inv, nil
}

// billingScope returns the partner ids billed together with p.
func (s *Service) billingScope(ctx context.Context, p *partner.Partner) ([]id.ID, error) {
	if !p.InGroup() {
		return []id.ID{p.ID}, nil
	}
	group, err := s.partners.ListByGroupCode(ctx, *p.GroupCode)
	if err != nil {
		return nil, fmt.Errorf("load billing group: %w", err)
	}
	ids := make([]id.ID, 0, len(group))
	for _, member := range group {
		ids = append(ids, member.ID)
	}
	return ids, nil
}

// buildLine converts one delivered item into an invoice line. The VAT rate
// comes from the product when it has one, otherwise the tenant's configured
// default applies.
func (s *Service) buildLine(ctx context.Context, note *delivery.Note, di delivery.Item, defaultRate types.Money) (Item, error) {
	lineTotal := di.Total()

	name := fallbackLineName
	vatRate := defaultRate
	switch {
	case di.ProductID != nil:
		prod, err := s.products.GetByID(ctx, *di.ProductID)
		if err != nil {
			return Item{}, fmt.Errorf("load product %s: %w", di.ProductID, err)
		}
		name = prod.Name
		vatRate = prod.VATRate
	case di.BundleID != nil:
		b, err := s.bundles.GetByID(ctx, *di.BundleID)
		if err != nil {
			return Item{}, fmt.Errorf("load bundle %s: %w", di.BundleID, err)
		}
		name = b.Name
	case di.ManualName != nil && *di.ManualName != "":
		name = *di.ManualName
	}

	description := fmt.Sprintf("Dodací list %s: %s (%dx)", note.DisplayNumber(), name, di.Quantity)

	line := NewItem(description, di.Quantity, di.UnitPrice, lineTotal, vatRate)
	noteID := note.ID
	line.SourceDeliveryID = &noteID
	return line, nil
}

// generateNumber produces the invoice number from the configured pattern,
// falling back to the built-in FV-YYYY-NNNN series when no pattern exists.
func (s *Service) generateNumber(ctx context.Context, p *partner.Partner) (string, error) {
	number, ok, err := s.numbering.Generate(ctx, numbering.Request{
		EntityType:  EntityType,
		PartnerCode: p.Code,
	})
	if err != nil {
		return "", fmt.Errorf("generate number: %w", err)
	}
	if ok {
		return number, nil
	}
	return s.fallbackNumber(ctx)
}

// fallbackNumber continues the FV-YYYY-NNNN series by scanning the highest
// existing number for the current year.
func (s *Service) fallbackNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("FV-%d-", s.now().Year())
	last, err := s.repo.LastNumberWithPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("last invoice number: %w", err)
	}

	seq := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// AddManualItem appends a free-form line to an existing invoice and updates
// its totals.
func (s *Service) AddManualItem(
	ctx context.Context,
	invoiceID id.ID,
	description string,
	quantity int64,
	unitPrice, vatRate types.Money,
) (*Invoice, error) {
	if description == "" {
		return nil, apperror.NewValidation("description is required").
			WithDetail("field", "description")
	}
	if quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	var inv *Invoice
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Locked {
			return apperror.NewDocumentLocked("invoice", inv.ID.String())
		}

		items, err := s.repo.GetItems(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}
		inv.Items = items

		line := NewItem(description, quantity, unitPrice, types.LineTotal(unitPrice, quantity), vatRate)
		line.IsManual = true
		inv.AddItem(line)
		inv.StampUpdated(appctx.GetUserID(ctx))

		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		return s.repo.SaveItems(ctx, inv.ID, inv.Items)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, inv.ID, domain.AuditUpdate, map[string]any{
		"manualItem": description,
		"total":      inv.Total.String(),
	})
	return inv, nil
}

// ChangeStatus moves an invoice to a new lifecycle state.
func (s *Service) ChangeStatus(ctx context.Context, invoiceID id.ID, to Status) error {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := inv.ChangeStatus(to); err != nil {
			return err
		}
		inv.StampUpdated(appctx.GetUserID(ctx))
		return s.repo.Update(ctx, inv)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, invoiceID, domain.AuditStatus, map[string]any{"status": string(to)})
	return nil
}

// ForceStatus sets the status regardless of direction. The route is
// admin-only; ordinary status changes go through ChangeStatus.
func (s *Service) ForceStatus(ctx context.Context, invoiceID id.ID, to Status) error {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := inv.ForceStatus(to); err != nil {
			return err
		}
		inv.StampUpdated(appctx.GetUserID(ctx))
		return s.repo.Update(ctx, inv)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, invoiceID, domain.AuditStatus, map[string]any{
		"status": string(to),
		"forced": true,
	})
	return nil
}

// GetByID retrieves an invoice with items.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	inv.Items = items

	return inv, nil
}

// Delete soft-deletes an invoice. Locked invoices cannot be deleted.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	inv, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if inv.Locked {
		return apperror.NewDocumentLocked("invoice", inv.ID.String())
	}
	if err := s.repo.Delete(ctx, docID); err != nil {
		return err
	}

	s.recordAudit(ctx, docID, domain.AuditDelete, map[string]any{"number": inv.Number})
	return nil
}

// SetLocked locks or unlocks an invoice. An admin override: unlocking
// reopens the invoice for manual corrections.
func (s *Service) SetLocked(ctx context.Context, invoiceID id.ID, locked bool) error {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	var changed bool
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Locked == locked {
			return nil
		}
		if locked {
			inv.Lock()
		} else {
			inv.Unlock()
		}
		inv.StampUpdated(appctx.GetUserID(ctx))
		inv.Touch()
		changed = true
		return s.repo.Update(ctx, inv)
	})
	if err != nil {
		return err
	}

	if changed {
		s.recordAudit(ctx, invoiceID, domain.AuditUpdate, map[string]any{"locked": locked})
	}
	return nil
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}
