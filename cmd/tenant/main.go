// Package main provides CLI for tenant management.
// Usage: tenant create --slug acme --name "ACME s.r.o."
//        tenant list [--all]
//        tenant deactivate <tenant-id>
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/infrastructure/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "create":
		createTenant(ctx)
	case "list":
		listTenants(ctx)
	case "activate":
		setActive(ctx, true)
	case "deactivate":
		setActive(ctx, false)
	case "reset-sequences":
		resetSequences(ctx)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Fakturo Tenant Management CLI

Usage:
  tenant <command> [options]

Commands:
  create      Create a new tenant
  list        List active tenants (--all includes deactivated)
  activate    Activate a deactivated tenant
  deactivate  Deactivate a tenant
  reset-sequences  Reset numbering counters for a tenant and entity type
  help        Show this help

Environment Variables:
  DATABASE_URL    Connection string for the shared database (required)

Examples:
  tenant create --slug acme --name "ACME s.r.o."
  tenant list --all
  tenant deactivate <tenant-uuid>
  tenant reset-sequences <tenant-uuid> delivery_note`)
}

func getService(ctx context.Context) (*tenant.Service, *pgxpool.Pool) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("Error: DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	return tenant.NewService(tenant.NewPostgresRegistry(pool)), pool
}

func createTenant(ctx context.Context) {
	var slug, name string

	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--slug":
			if i+1 < len(os.Args) {
				slug = os.Args[i+1]
				i++
			}
		case "--name":
			if i+1 < len(os.Args) {
				name = os.Args[i+1]
				i++
			}
		}
	}

	if slug == "" || name == "" {
		fmt.Println("Error: --slug and --name are required")
		fmt.Println("Usage: tenant create --slug <slug> --name <name>")
		os.Exit(1)
	}

	svc, pool := getService(ctx)
	defer pool.Close()

	t, err := svc.Provision(ctx, tenant.CreateTenantInput{
		Name: name,
		Slug: slug,
	})
	if err != nil {
		fmt.Printf("Error creating tenant: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n✓ Tenant '%s' created successfully!\n", slug)
	fmt.Printf("  Tenant ID: %s\n", t.ID)
	fmt.Printf("  Status: active\n")
}

func listTenants(ctx context.Context) {
	includeInactive := false
	for _, arg := range os.Args[2:] {
		if arg == "--all" {
			includeInactive = true
		}
	}

	svc, pool := getService(ctx)
	defer pool.Close()

	tenants, err := svc.List(ctx, includeInactive)
	if err != nil {
		fmt.Printf("Error listing tenants: %v\n", err)
		os.Exit(1)
	}

	if len(tenants) == 0 {
		fmt.Println("No tenants found")
		return
	}

	fmt.Printf("%-36s %-20s %-30s %-10s\n", "TENANT_ID", "SLUG", "NAME", "STATUS")
	fmt.Println(strings.Repeat("-", 100))

	for _, t := range tenants {
		status := "active"
		if !t.IsActive {
			status = "inactive"
		}
		fmt.Printf("%-36s %-20s %-30s %-10s\n",
			t.ID.String(),
			truncate(t.Slug, 20),
			truncate(t.Name, 30),
			status,
		)
	}
}

func setActive(ctx context.Context, active bool) {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: tenant %s <tenant-uuid>\n", os.Args[1])
		os.Exit(1)
	}

	tenantID, err := id.Parse(os.Args[2])
	if err != nil {
		fmt.Printf("Error: invalid tenant id %q\n", os.Args[2])
		os.Exit(1)
	}

	svc, pool := getService(ctx)
	defer pool.Close()

	if active {
		err = svc.Activate(ctx, tenantID)
	} else {
		err = svc.Deactivate(ctx, tenantID)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if active {
		fmt.Printf("✓ Tenant '%s' activated\n", tenantID)
	} else {
		fmt.Printf("✓ Tenant '%s' deactivated\n", tenantID)
	}
}

func resetSequences(ctx context.Context) {
	if len(os.Args) < 4 {
		fmt.Println("Usage: tenant reset-sequences <tenant-uuid> <entity-type>")
		os.Exit(1)
	}

	tenantID, err := id.Parse(os.Args[2])
	if err != nil {
		fmt.Printf("Error: invalid tenant id %q\n", os.Args[2])
		os.Exit(1)
	}
	entityType := os.Args[3]

	svc, pool := getService(ctx)
	defer pool.Close()

	t, err := svc.Get(ctx, tenantID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	txManager := postgres.NewTxManagerFromRawPool(pool)
	ctx = tenant.WithTxManager(ctx, txManager)
	ctx = tenant.WithTenant(ctx, t)

	store := postgres.NewSequenceStore()
	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return store.Reset(ctx, entityType)
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Sequences for %q reset on tenant '%s'\n", entityType, t.Slug)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
