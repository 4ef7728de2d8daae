package product

import (
	"context"

	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
	"fakturo/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// RecordPriceChange appends a price history row for the product.
	RecordPriceChange(ctx context.Context, productID id.ID, price types.Money) error
}

// BundleRepository defines the interface for Bundle persistence.
// Bundles load with their items.
type BundleRepository interface {
	domain.CatalogRepository[*Bundle]

	// ReplaceItems swaps the bundle's component list.
	ReplaceItems(ctx context.Context, bundleID id.ID, items []BundleItem) error
}
