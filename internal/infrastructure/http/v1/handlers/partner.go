package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/domain/partner"
	"fakturo/internal/infrastructure/http/v1/dto"
)

// PartnerHandler handles HTTP requests for the partner catalog.
type PartnerHandler struct {
	*CatalogHandler[*partner.Partner, dto.CreatePartnerRequest, dto.UpdatePartnerRequest]
	service *partner.Service
}

// NewPartnerHandler creates a new partner handler.
func NewPartnerHandler(base *BaseHandler, service *partner.Service) *PartnerHandler {
	cfg := CatalogHandlerConfig[*partner.Partner, dto.CreatePartnerRequest, dto.UpdatePartnerRequest]{
		Service:    service.CatalogService,
		EntityName: "partner",
		MapCreateDTO: func(req dto.CreatePartnerRequest) (*partner.Partner, error) {
			return req.ToEntity(), nil
		},
		MapUpdateDTO: func(req dto.UpdatePartnerRequest, existing *partner.Partner) (*partner.Partner, error) {
			req.ApplyTo(existing)
			return existing, nil
		},
		MapToDTO: func(p *partner.Partner) any {
			return dto.FromPartner(p)
		},
	}

	return &PartnerHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
		service:        service,
	}
}

// FindByICO handles GET /partners/by-ico/:ico.
func (h *PartnerHandler) FindByICO(c *gin.Context) {
	ctx := c.Request.Context()

	ico := c.Param("ico")
	if ico == "" {
		h.Error(c, apperror.NewValidation("ico is required"))
		return
	}

	p, err := h.service.FindByICO(ctx, ico)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromPartner(p))
}

// BillingGroup handles GET /partners/:id/billing-group. It returns the
// partners invoiced together with the given one.
func (h *PartnerHandler) BillingGroup(c *gin.Context) {
	ctx := c.Request.Context()

	partnerID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	group, err := h.service.BillingGroup(ctx, partnerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.PartnerResponse, len(group))
	for i, p := range group {
		items[i] = dto.FromPartner(p)
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
