package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/domain/product"
	"fakturo/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler = CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	cfg := CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
		Service:    service.CatalogService,
		EntityName: "product",
		MapCreateDTO: func(req dto.CreateProductRequest) (*product.Product, error) {
			return req.ToEntity(), nil
		},
		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) (*product.Product, error) {
			req.ApplyTo(existing)
			return existing, nil
		},
		MapToDTO: func(p *product.Product) any {
			return dto.FromProduct(p)
		},
	}

	return NewCatalogHandler(base, cfg)
}

// BundleHandler handles HTTP requests for the bundle catalog.
type BundleHandler struct {
	*CatalogHandler[*product.Bundle, dto.CreateBundleRequest, dto.UpdateBundleRequest]
	service *product.BundleService
}

// NewBundleHandler creates a new bundle handler.
func NewBundleHandler(base *BaseHandler, service *product.BundleService) *BundleHandler {
	cfg := CatalogHandlerConfig[*product.Bundle, dto.CreateBundleRequest, dto.UpdateBundleRequest]{
		Service:    service.CatalogService,
		EntityName: "bundle",
		MapCreateDTO: func(req dto.CreateBundleRequest) (*product.Bundle, error) {
			b, ok := req.ToEntity()
			if !ok {
				return nil, apperror.NewValidation("invalid product id in bundle items")
			}
			return b, nil
		},
		MapUpdateDTO: func(req dto.UpdateBundleRequest, existing *product.Bundle) (*product.Bundle, error) {
			if !req.ApplyTo(existing) {
				return nil, apperror.NewValidation("invalid product id in bundle items")
			}
			return existing, nil
		},
		MapToDTO: func(b *product.Bundle) any {
			return dto.FromBundle(b)
		},
	}

	return &BundleHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
		service:        service,
	}
}

// SetItems handles PUT /bundles/:id/items - replace the component list.
func (h *BundleHandler) SetItems(c *gin.Context) {
	ctx := c.Request.Context()

	bundleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req struct {
		Items []dto.BundleItemRequest `json:"items" binding:"required"`
	}
	if !h.BindJSON(c, &req) {
		return
	}

	items := make([]product.BundleItem, 0, len(req.Items))
	for _, line := range req.Items {
		bi, ok := line.ToEntity()
		if !ok {
			h.Error(c, apperror.NewValidation("invalid product id in bundle items"))
			return
		}
		items = append(items, bi)
	}

	b, err := h.service.GetByID(ctx, bundleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.SetItems(ctx, b, items); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromBundle(b))
}
