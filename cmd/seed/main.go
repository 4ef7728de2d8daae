// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/entity"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/auth"
	"fakturo/internal/domain/delivery"
	"fakturo/internal/domain/invoice"
	"fakturo/internal/domain/numbering"
	"fakturo/internal/domain/order"
	"fakturo/internal/domain/partner"
	"fakturo/internal/domain/product"
	"fakturo/internal/infrastructure/storage/postgres"
	"fakturo/internal/infrastructure/storage/postgres/auth_repo"
	"fakturo/internal/infrastructure/storage/postgres/catalog_repo"
	"fakturo/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	ctx = tenant.WithTxManager(ctx, txManager)

	tenantService := tenant.NewService(tenant.NewPostgresRegistry(pool.Unwrap()))

	t, err := seedTenant(ctx, tenantService, log)
	if err != nil {
		log.Fatalw("failed to seed tenant", "error", err)
	}

	adminID, err := seedAdminUser(ctx, pool, txManager, t.ID, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}
	_ = adminID

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		// Demo data is tenant-scoped, so the context carries the tenant.
		ctx = tenant.WithTenant(ctx, t)
		if err := seedDemoData(ctx, txManager, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedTenant(ctx context.Context, svc *tenant.Service, log *logger.Logger) (*tenant.Tenant, error) {
	slug := os.Getenv("TENANT_SLUG")
	if slug == "" {
		slug = "demo"
	}
	name := os.Getenv("TENANT_NAME")
	if name == "" {
		name = "Demo Tenant"
	}

	t, err := svc.Provision(ctx, tenant.CreateTenantInput{Name: name, Slug: slug})
	if err == nil {
		log.Infow("tenant created", "slug", slug, "tenant_id", t.ID)
		return t, nil
	}

	if existing, getErr := svc.GetBySlug(ctx, slug); getErr == nil {
		log.Infow("tenant already exists", "slug", slug, "tenant_id", existing.ID)
		return existing, nil
	}

	return nil, err
}

func seedAdminUser(
	ctx context.Context,
	pool *postgres.Pool,
	txManager *postgres.TxManager,
	tenantID id.ID,
	log *logger.Logger,
) (id.ID, error) {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "Admin123!"
	}

	userRepo := auth_repo.NewUserRepo()
	authService := auth.NewService(
		userRepo,
		auth_repo.NewTokenRepo(),
		txManager,
		nil, // token generation is not needed for seeding
		auth.DefaultServiceConfig(),
	)

	user, err := authService.CreateUser(ctx, auth.CreateUserRequest{
		Username:  username,
		Password:  password,
		Role:      auth.RoleAdmin,
		TenantIDs: []id.ID{tenantID},
	})
	if err != nil {
		if apperror.IsAppError(err) {
			if existing, getErr := userRepo.GetByUsername(ctx, username); getErr == nil {
				log.Infow("admin user already exists", "username", username, "user_id", existing.ID)
				return existing.ID, nil
			}
		}
		return id.Nil(), err
	}

	// CreateUser never grants superadmin; the seeded admin gets it directly.
	_, err = pool.Exec(ctx, `UPDATE users SET is_superadmin = true WHERE id = $1`, user.ID)
	if err != nil {
		return id.Nil(), fmt.Errorf("mark superadmin: %w", err)
	}

	log.Infow("admin user created", "username", username, "user_id", user.ID)
	return user.ID, nil
}

func seedDemoData(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	log.Info("seeding demo data...")

	partnerService := partner.NewService(catalog_repo.NewPartnerRepo())
	numberingEngine := numbering.NewEngine(postgres.NewNumberingConfigRepo(), postgres.NewSequenceStore())
	productService := product.NewService(catalog_repo.NewProductRepo(), numberingEngine)

	// 1. Partners. The first two share a billing group so collective
	// invoicing has something to aggregate.
	groupNorth := "SKUPINA-SEVER"
	partners := []*partner.Partner{
		partnerWith("P-001", "Pekáreň Havran s.r.o.", &groupNorth, "11223344"),
		partnerWith("P-002", "Potraviny Lipa", &groupNorth, "22334455"),
		partnerWith("P-003", "Hotel Zlatý Jeleň a.s.", nil, "33445566"),
	}

	for _, p := range partners {
		if err := partnerService.Create(ctx, p); err != nil {
			if apperror.IsAppError(err) {
				log.Infow("partner already exists, skipping", "code", p.Code)
				continue
			}
			return fmt.Errorf("seed partner %s: %w", p.Code, err)
		}
	}

	// 2. Products.
	type productSeed struct {
		code    string
		name    string
		price   string
		vatRate string
		service bool
	}

	products := []productSeed{
		{"PR-001", "Rozvoz pečiva", "15.00", "20", true},
		{"PR-002", "Chlieb pšeničný 1kg", "2.10", "10", false},
		{"PR-003", "Rožok 40g", "0.12", "10", false},
		{"PR-004", "Donášková služba expres", "25.00", "20", true},
	}

	for _, ps := range products {
		p := product.NewProduct(ps.code, ps.name, types.MustMoney(ps.price))
		p.VATRate = types.MustMoney(ps.vatRate)
		p.IsService = ps.service
		if err := productService.Create(ctx, p); err != nil {
			if apperror.IsAppError(err) {
				log.Infow("product already exists, skipping", "code", ps.code)
				continue
			}
			return fmt.Errorf("seed product %s: %w", ps.code, err)
		}
	}

	// 3. Numbering patterns.
	configRepo := postgres.NewNumberingConfigRepo()
	patterns := map[string]string{
		order.EntityType:         "OBJ[YY][MM]-[CCCC]",
		invoice.EntityType:       "FV[YYYY]-[CCCC]",
		delivery.EntityType:      "DL[YYYY]-[CCCCC]",
		product.EntityType:       "PR[TYPE]-[CCC]",
		product.BundleEntityType: "BAL-[CCC]",
	}

	err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for entityType, pattern := range patterns {
			cfg := &numbering.Config{
				BaseEntity: entity.NewBaseEntity(),
				EntityType: entityType,
				Pattern:    pattern,
			}
			if err := cfg.Validate(ctx); err != nil {
				return err
			}
			if err := configRepo.Upsert(ctx, cfg); err != nil {
				return fmt.Errorf("seed numbering config %s: %w", entityType, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("demo data seeded successfully")
	return nil
}

func partnerWith(code, name string, groupCode *string, ico string) *partner.Partner {
	p := partner.NewPartner(code, name)
	p.GroupCode = groupCode
	p.ICO = &ico
	return p
}

