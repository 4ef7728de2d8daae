package partner

import (
	"context"

	"fakturo/internal/domain"
)

// Repository defines the interface for Partner persistence.
type Repository interface {
	domain.CatalogRepository[*Partner]

	// FindByICO retrieves a partner by registration number (unique within tenant).
	FindByICO(ctx context.Context, ico string) (*Partner, error)

	// ListByGroupCode retrieves all active partners sharing a billing group.
	ListByGroupCode(ctx context.Context, groupCode string) ([]*Partner, error)
}
