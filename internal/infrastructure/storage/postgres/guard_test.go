package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
)

func tenantCtx(t *testing.T, tenantID id.ID) context.Context {
	t.Helper()
	return tenant.WithTenant(context.Background(), &tenant.Tenant{
		ID:       tenantID,
		Name:     "Test",
		Slug:     "test",
		IsActive: true,
	})
}

func TestWriteLogValidate(t *testing.T) {
	active := id.New()
	other := id.New()

	t.Run("empty log passes", func(t *testing.T) {
		log := NewWriteLog()
		require.NoError(t, log.Validate(tenantCtx(t, active)))
	})

	t.Run("matching writes pass", func(t *testing.T) {
		log := NewWriteLog()
		log.Record("orders", active)
		log.Record("order_items", active)
		require.NoError(t, log.Validate(tenantCtx(t, active)))
	})

	t.Run("mismatch fails with isolation violation", func(t *testing.T) {
		log := NewWriteLog()
		log.Record("orders", active)
		log.Record("invoices", other)

		err := log.Validate(tenantCtx(t, active))
		require.Error(t, err)
		assert.True(t, apperror.IsTenantIsolation(err))
	})

	t.Run("nil row tenant is tolerated", func(t *testing.T) {
		log := NewWriteLog()
		log.Record("orders", id.Nil())
		require.NoError(t, log.Validate(tenantCtx(t, active)))
	})

	t.Run("no active tenant skips validation", func(t *testing.T) {
		log := NewWriteLog()
		log.Record("orders", other)
		require.NoError(t, log.Validate(context.Background()))
	})
}

type scopedRow struct {
	tenantID id.ID
}

func (r *scopedRow) GetTenantID() id.ID    { return r.tenantID }
func (r *scopedRow) SetTenantID(tid id.ID) { r.tenantID = tid }

// A row stamped for the wrong tenant must keep its own marker through the
// repository so the write log sees the mismatch at commit, instead of being
// silently restamped to the active tenant.
func TestStampTenantPreservesRowMarker(t *testing.T) {
	active := id.New()
	other := id.New()
	repo := NewBaseScopedRepo[*scopedRow]("orders", "order", []string{"id"}, func() *scopedRow { return &scopedRow{} })
	ctx := tenantCtx(t, active)

	t.Run("nil marker is stamped with active tenant", func(t *testing.T) {
		row := &scopedRow{}
		tid, err := repo.stampTenant(ctx, row)
		require.NoError(t, err)
		assert.Equal(t, active, tid)
		assert.Equal(t, active, row.GetTenantID())
	})

	t.Run("foreign marker survives and fails commit validation", func(t *testing.T) {
		row := &scopedRow{tenantID: other}
		_, err := repo.stampTenant(ctx, row)
		require.NoError(t, err)
		assert.Equal(t, other, row.GetTenantID())

		log := NewWriteLog()
		log.Record("orders", row.GetTenantID())
		err = log.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.IsTenantIsolation(err))
	})

	t.Run("no active tenant refuses the write", func(t *testing.T) {
		row := &scopedRow{}
		_, err := repo.stampTenant(context.Background(), row)
		require.Error(t, err)
	})
}
