package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/domain"
	"fakturo/internal/domain/invoice"
	"fakturo/internal/domain/settings"
	"fakturo/internal/infrastructure/http/v1/dto"
	"fakturo/pkg/logger"
)

// InvoiceHandler handles HTTP requests for invoice documents.
type InvoiceHandler struct {
	*BaseHandler
	service  *invoice.Service
	settings *settings.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service, settingsService *settings.Service) *InvoiceHandler {
	return &InvoiceHandler{
		BaseHandler: base,
		service:     service,
		settings:    settingsService,
	}
}

// currency resolves the tenant currency for response bodies. A failed read
// falls back rather than failing the request.
func (h *InvoiceHandler) currency(ctx context.Context) string {
	cur, err := h.settings.Currency(ctx)
	if err != nil {
		logger.Warn(ctx, "load currency setting failed", "error", err)
		return settings.FallbackCurrency
	}
	return cur
}

// respond renders an invoice with the tenant currency attached.
func (h *InvoiceHandler) respond(ctx context.Context, inv *invoice.Invoice) *dto.InvoiceResponse {
	resp := dto.FromInvoice(inv)
	resp.Currency = h.currency(ctx)
	return resp
}

// Aggregate handles POST /invoices/aggregate - the collective invoice run.
// A concurrent run over the same billing group aborts on the row locks; one
// retry covers the common case of two operators clicking at once, since the
// second run usually finds nothing left to invoice and reports that cleanly.
func (h *InvoiceHandler) Aggregate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AggregateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	partnerID, err := id.Parse(req.PartnerID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid partner id").WithDetail("value", req.PartnerID))
		return
	}

	inv, err := h.service.BuildForPartner(ctx, partnerID)
	if apperror.IsConcurrentModification(err) {
		logger.Warn(ctx, "invoice run lost a lock race, retrying once",
			"partner_id", partnerID.String(),
		)
		inv, err = h.service.BuildForPartner(ctx, partnerID)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.respond(ctx, inv))
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	inv, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.respond(ctx, inv))
}

// AddManualItem handles POST /invoices/:id/items.
func (h *InvoiceHandler) AddManualItem(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.AddManualItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	inv, err := h.service.AddManualItem(ctx, docID, req.Description, req.Quantity, req.UnitPrice, req.VATRate)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.respond(ctx, inv))
}

// ChangeStatus handles POST /invoices/:id/status.
func (h *InvoiceHandler) ChangeStatus(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ChangeInvoiceStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ChangeStatus(ctx, docID, req.Status); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "invoice status updated")
}

// ForceStatus handles POST /invoices/:id/status/force. Registered behind the
// admin permission; this is the only way to move an invoice backward.
func (h *InvoiceHandler) ForceStatus(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ChangeInvoiceStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ForceStatus(ctx, docID, req.Status); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "invoice status updated")
}

// Delete handles DELETE /invoices/:id.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, docID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := invoice.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.Query("orderBy")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if partnerID := c.Query("partnerId"); partnerID != "" {
		if parsed, err := id.Parse(partnerID); err == nil {
			filter.PartnerID = &parsed
		}
	}

	if status := c.Query("status"); status != "" {
		s := invoice.Status(status)
		if !invoice.ValidStatus(s) {
			h.Error(c, apperror.NewValidation("invalid status").WithDetail("value", status))
			return
		}
		filter.Status = &s
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}

	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	currency := h.currency(ctx)
	items := make([]*dto.InvoiceResponse, len(result.Items))
	for i, inv := range result.Items {
		items[i] = dto.FromInvoice(inv)
		items[i].Currency = currency
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Lock handles POST /invoices/:id/lock.
func (h *InvoiceHandler) Lock(c *gin.Context) {
	h.setLocked(c, true)
}

// Unlock handles POST /invoices/:id/unlock. Reopens the invoice for
// manual corrections.
func (h *InvoiceHandler) Unlock(c *gin.Context) {
	h.setLocked(c, false)
}

func (h *InvoiceHandler) setLocked(c *gin.Context, locked bool) {
	ctx := c.Request.Context()

	invoiceID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.SetLocked(ctx, invoiceID, locked); err != nil {
		h.Error(c, err)
		return
	}

	inv, err := h.service.GetByID(ctx, invoiceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, h.respond(ctx, inv))
}

// RegisterRoutes registers invoice routes.
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/aggregate", h.Aggregate)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/items", h.AddManualItem)
	rg.POST("/:id/status", h.ChangeStatus)
	rg.DELETE("/:id", h.Delete)
}
