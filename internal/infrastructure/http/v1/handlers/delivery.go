package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/domain"
	"fakturo/internal/domain/delivery"
	"fakturo/internal/infrastructure/http/v1/dto"
)

// DeliveryHandler handles HTTP requests for delivery note documents.
type DeliveryHandler struct {
	*BaseHandler
	service *delivery.Service
}

// NewDeliveryHandler creates a new delivery note handler.
func NewDeliveryHandler(base *BaseHandler, service *delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /delivery-notes.
func (h *DeliveryHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateDeliveryNoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromDeliveryNote(doc))
}

// CreateFromOrders handles POST /delivery-notes/from-orders. The note pulls
// its lines from the confirmed source orders and links them.
func (h *DeliveryHandler) CreateFromOrders(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateFromOrdersRequest
	if !h.BindJSON(c, &req) {
		return
	}

	orderIDs, err := req.ParsedOrderIDs()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.CreateFromOrders(ctx, orderIDs)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromDeliveryNote(doc))
}

// Get handles GET /delivery-notes/:id.
func (h *DeliveryHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromDeliveryNote(doc))
}

// Update handles PUT /delivery-notes/:id.
func (h *DeliveryHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateDeliveryNoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(doc); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromDeliveryNote(doc))
}

// Delete handles DELETE /delivery-notes/:id.
func (h *DeliveryHandler) Delete(c *gin.Context) {
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

// Confirm handles POST /delivery-notes/:id/confirm.
func (h *DeliveryHandler) Confirm(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	// Body is optional; an empty POST confirms with the current time.
	var req dto.ConfirmDeliveryRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	deliveredAt := time.Now().UTC()
	if req.DeliveredAt != nil {
		deliveredAt = *req.DeliveredAt
	}

	if err := h.service.Confirm(ctx, docID, deliveredAt); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "delivery note confirmed")
}

// List handles GET /delivery-notes.
func (h *DeliveryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := delivery.ListFilter{
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

	if orderID := c.Query("orderId"); orderID != "" {
		if parsed, err := id.Parse(orderID); err == nil {
			filter.OrderID = &parsed
		}
	}

	if invoiced := c.Query("invoiced"); invoiced != "" {
		val := invoiced == "true"
		filter.Invoiced = &val
	}

	if confirmed := c.Query("confirmed"); confirmed != "" {
		val := confirmed == "true"
		filter.Confirmed = &val
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

	items := make([]*dto.DeliveryNoteResponse, len(result.Items))
	for i, doc := range result.Items {
		items[i] = dto.FromDeliveryNote(doc)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Lock handles POST /delivery-notes/:id/lock.
func (h *DeliveryHandler) Lock(c *gin.Context) {
	h.setLocked(c, true)
}

// Unlock handles POST /delivery-notes/:id/unlock. Reopens a confirmed note.
func (h *DeliveryHandler) Unlock(c *gin.Context) {
	h.setLocked(c, false)
}

func (h *DeliveryHandler) setLocked(c *gin.Context, locked bool) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.SetLocked(ctx, docID, locked); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromDeliveryNote(doc))
}

// RegisterRoutes registers delivery note routes.
func (h *DeliveryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/from-orders", h.CreateFromOrders)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/confirm", h.Confirm)
}
