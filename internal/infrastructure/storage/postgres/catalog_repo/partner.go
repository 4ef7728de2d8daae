// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories. All queries run through BaseScopedRepo, so every statement
// carries the active tenant's predicate.
package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"fakturo/internal/core/apperror"
	"fakturo/internal/domain/partner"
	"fakturo/internal/infrastructure/storage/postgres"
)

const partnerTable = "partners"

// PartnerRepo implements partner.Repository.
type PartnerRepo struct {
	*postgres.BaseScopedRepo[*partner.Partner]
}

// NewPartnerRepo creates a new partner repository.
func NewPartnerRepo() *PartnerRepo {
	return &PartnerRepo{
		BaseScopedRepo: postgres.NewBaseScopedRepo[*partner.Partner](
			partnerTable,
			"partner",
			postgres.ExtractDBColumns[partner.Partner](),
			func() *partner.Partner { return &partner.Partner{} },
		),
	}
}

// FindByICO retrieves a partner by registration number.
func (r *PartnerRepo) FindByICO(ctx context.Context, ico string) (*partner.Partner, error) {
	q, err := r.ScopedSelect(ctx)
	if err != nil {
		return nil, err
	}
	q = q.Where(squirrel.Eq{"ico": ico}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	p, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("partner", ico)
		}
		return nil, err
	}
	return p, nil
}

// ListByGroupCode retrieves all active partners sharing a billing group.
func (r *PartnerRepo) ListByGroupCode(ctx context.Context, groupCode string) ([]*partner.Partner, error) {
	q, err := r.ScopedSelect(ctx)
	if err != nil {
		return nil, err
	}
	q = q.Where(squirrel.Eq{"group_code": groupCode}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("name ASC")

	return r.SelectMany(ctx, q)
}

var _ partner.Repository = (*PartnerRepo)(nil)
