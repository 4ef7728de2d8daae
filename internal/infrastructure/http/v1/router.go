// Package v1 wires the HTTP API: routing, middleware and handlers.
package v1

import (
	"github.com/gin-gonic/gin"

	"fakturo/internal/core/tenant"
	"fakturo/internal/domain/auth"
	"fakturo/internal/domain/delivery"
	"fakturo/internal/domain/invoice"
	"fakturo/internal/domain/numbering"
	"fakturo/internal/domain/order"
	"fakturo/internal/domain/partner"
	"fakturo/internal/domain/product"
	"fakturo/internal/domain/settings"
	"fakturo/internal/infrastructure/http/v1/handlers"
	"fakturo/internal/infrastructure/http/v1/middleware"
	"fakturo/internal/infrastructure/storage/postgres"
	"fakturo/internal/infrastructure/storage/postgres/auth_repo"
	"fakturo/internal/infrastructure/storage/postgres/catalog_repo"
	"fakturo/internal/infrastructure/storage/postgres/document_repo"
	"fakturo/pkg/logger"
)

// RouterConfig holds everything the router needs to assemble the API.
type RouterConfig struct {
	Pool      *postgres.Pool
	TxManager *postgres.TxManager
	Logger    *logger.Logger
	JWTConfig auth.JWTConfig
	Version   string
}

// NewRouter builds the gin engine with all routes registered.
//
// Middleware order matters: recovery first, then trace and request logging,
// then error rendering. Authentication runs before tenant resolution because
// the membership check needs the authenticated user.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	// Repositories. All tenant-scoped repos read the querier and tenant
	// from the request context, so they carry no connection state.
	partnerRepo := catalog_repo.NewPartnerRepo()
	productRepo := catalog_repo.NewProductRepo()
	bundleRepo := catalog_repo.NewBundleRepo()
	orderRepo := document_repo.NewOrderRepo()
	deliveryRepo := document_repo.NewDeliveryRepo()
	invoiceRepo := document_repo.NewInvoiceRepo()

	// Numbering.
	numberingConfigs := postgres.NewNumberingConfigRepo()
	sequenceStore := postgres.NewSequenceStore()
	numberingEngine := numbering.NewEngine(numberingConfigs, sequenceStore)

	// Domain services.
	partnerService := partner.NewService(partnerRepo)
	productService := product.NewService(productRepo, numberingEngine)
	bundleService := product.NewBundleService(bundleRepo, numberingEngine)
	orderService := order.NewService(orderRepo, partnerRepo, numberingEngine, cfg.TxManager)
	deliveryService := delivery.NewService(deliveryRepo, orderRepo, partnerRepo, bundleRepo, numberingEngine, cfg.TxManager)
	settingsService := settings.NewService(postgres.NewSettingsRepo())
	invoiceService := invoice.NewService(invoiceRepo, partnerRepo, deliveryRepo, productRepo, bundleRepo, numberingEngine, settingsService, cfg.TxManager)

	tenantService := tenant.NewService(tenant.NewPostgresRegistry(cfg.Pool.Unwrap()))

	jwtService := auth.NewJWTService(cfg.JWTConfig)
	authService := auth.NewService(
		auth_repo.NewUserRepo(),
		auth_repo.NewTokenRepo(),
		cfg.TxManager,
		jwtService,
		auth.DefaultServiceConfig(),
	)

	auditService, err := postgres.NewAuditService(cfg.TxManager)
	if err != nil {
		return nil, err
	}

	// Document mutations write an audit trail; catalog services get the
	// same via lifecycle hooks.
	orderService.SetAuditor(auditService)
	deliveryService.SetAuditor(auditService)
	invoiceService.SetAuditor(auditService)
	registerCatalogAudit(partnerService.Hooks(), auditService, "partner")
	registerCatalogAudit(productService.Hooks(), auditService, "product")
	registerCatalogAudit(bundleService.Hooks(), auditService, "bundle")

	// Health endpoints are unauthenticated.
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	healthHandler.RegisterRoutes(router.Group("/health"))

	api := router.Group("/api/v1")

	// Auth: login and refresh are public, the rest needs a valid token.
	// None of these routes are tenant-scoped because users are global.
	authHandler := handlers.NewAuthHandler(base, authService)
	authPublic := api.Group("/auth")
	authProtected := api.Group("/auth")
	authProtected.Use(middleware.Auth(jwtService))
	authAdmin := api.Group("/auth")
	authAdmin.Use(middleware.Auth(jwtService))
	authAdmin.Use(middleware.RequirePermission(auth.PermManageAll))
	authHandler.RegisterRoutes(authPublic, authProtected, authAdmin)

	// Tenant administration sits outside the tenant-scoped group.
	tenantAdmin := api.Group("/tenants")
	tenantAdmin.Use(middleware.Auth(jwtService))
	tenantAdmin.Use(middleware.RequirePermission(auth.PermManageAll))
	handlers.NewTenantHandler(base, tenantService).RegisterRoutes(tenantAdmin)

	// Everything below requires a token and a resolved tenant.
	protected := api.Group("")
	protected.Use(middleware.Auth(jwtService))
	protected.Use(middleware.Tenant(tenantService, cfg.TxManager))

	partnerHandler := handlers.NewPartnerHandler(base, partnerService)
	partners := protected.Group("/partners")
	RegisterCatalogRoutes(partners, partnerHandler, auth.PermManagePartners)
	partners.GET("/by-ico/:ico", partnerHandler.FindByICO)
	partners.GET("/:id/billing-group", partnerHandler.BillingGroup)

	RegisterCatalogRoutes(protected.Group("/products"), handlers.NewProductHandler(base, productService), auth.PermManagePartners)

	bundleHandler := handlers.NewBundleHandler(base, bundleService)
	bundles := protected.Group("/bundles")
	RegisterCatalogRoutes(bundles, bundleHandler, auth.PermManagePartners)
	bundles.PUT("/:id/items", middleware.RequirePermission(auth.PermManagePartners), bundleHandler.SetItems)

	// Lock overrides are admin-only on all three document types.
	adminOnly := middleware.RequirePermission(auth.PermManageAll)

	orderHandler := handlers.NewOrderHandler(base, orderService)
	orders := protected.Group("/orders")
	orders.Use(middleware.RequirePermission(auth.PermManageOrders))
	orderHandler.RegisterRoutes(orders)
	orders.POST("/:id/lock", adminOnly, orderHandler.Lock)
	orders.POST("/:id/unlock", adminOnly, orderHandler.Unlock)

	deliveryHandler := handlers.NewDeliveryHandler(base, deliveryService)
	deliveries := protected.Group("/delivery-notes")
	deliveries.Use(middleware.RequirePermission(auth.PermManageDelivery))
	deliveryHandler.RegisterRoutes(deliveries)
	deliveries.POST("/:id/lock", adminOnly, deliveryHandler.Lock)
	deliveries.POST("/:id/unlock", adminOnly, deliveryHandler.Unlock)

	invoiceHandler := handlers.NewInvoiceHandler(base, invoiceService, settingsService)
	invoices := protected.Group("/invoices")
	invoices.Use(middleware.RequirePermission(auth.PermManageInvoices))
	invoiceHandler.RegisterRoutes(invoices)
	invoices.POST("/:id/lock", adminOnly, invoiceHandler.Lock)
	invoices.POST("/:id/unlock", adminOnly, invoiceHandler.Unlock)
	invoices.POST("/:id/status/force", adminOnly, invoiceHandler.ForceStatus)

	numberingAdmin := protected.Group("/numbering")
	numberingAdmin.Use(middleware.RequirePermission(auth.PermManageAll))
	handlers.NewNumberingHandler(base, numberingConfigs, sequenceStore, numberingEngine).RegisterRoutes(numberingAdmin)

	settingsAdmin := protected.Group("/settings")
	settingsAdmin.Use(middleware.RequirePermission(auth.PermManageAll))
	handlers.NewSettingsHandler(base, settingsService).RegisterRoutes(settingsAdmin)

	audit := protected.Group("/audit")
	audit.Use(middleware.RequirePermission(auth.PermManageAll))
	handlers.NewAuditHandler(base, auditService).RegisterRoutes(audit)

	return router, nil
}
