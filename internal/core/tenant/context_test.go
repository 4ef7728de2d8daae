package tenant

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
)

type scopedRow struct {
	tenantID id.ID
}

func (r *scopedRow) GetTenantID() id.ID    { return r.tenantID }
func (r *scopedRow) SetTenantID(tid id.ID) { r.tenantID = tid }

func activeCtx(tid id.ID) context.Context {
	return WithTenant(context.Background(), &Tenant{ID: tid, Name: "Test", Slug: "test", IsActive: true})
}

func TestCurrentID(t *testing.T) {
	assert.True(t, id.IsNil(CurrentID(context.Background())))

	tid := id.New()
	assert.Equal(t, tid, CurrentID(activeCtx(tid)))
}

func TestRequireID(t *testing.T) {
	_, err := RequireID(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsAppError(err))

	tid := id.New()
	got, err := RequireID(activeCtx(tid))
	require.NoError(t, err)
	assert.Equal(t, tid, got)
}

func TestStamp(t *testing.T) {
	tid := id.New()
	ctx := activeCtx(tid)

	t.Run("stamps fresh row", func(t *testing.T) {
		row := &scopedRow{}
		require.NoError(t, Stamp(ctx, row))
		assert.Equal(t, tid, row.tenantID)
	})

	t.Run("restamping same tenant is idempotent", func(t *testing.T) {
		row := &scopedRow{tenantID: tid}
		require.NoError(t, Stamp(ctx, row))
		assert.Equal(t, tid, row.tenantID)
	})

	t.Run("refuses foreign tenant", func(t *testing.T) {
		other := id.New()
		row := &scopedRow{tenantID: other}
		err := Stamp(ctx, row)
		require.Error(t, err)
		assert.True(t, apperror.IsTenantIsolation(err))
		assert.Equal(t, other, row.tenantID)
	})

	t.Run("fails without active tenant", func(t *testing.T) {
		row := &scopedRow{}
		require.Error(t, Stamp(context.Background(), row))
	})
}

func TestCreateTenantInputValidate(t *testing.T) {
	t.Run("normalizes slug", func(t *testing.T) {
		in := CreateTenantInput{Name: "ACME", Slug: "  ACME-Corp "}
		require.NoError(t, in.Validate())
		assert.Equal(t, "acme-corp", in.Slug)
	})

	t.Run("requires name", func(t *testing.T) {
		in := CreateTenantInput{Slug: "acme"}
		assert.ErrorIs(t, in.Validate(), ErrNameRequired)
	})

	t.Run("requires slug", func(t *testing.T) {
		in := CreateTenantInput{Name: "ACME"}
		assert.ErrorIs(t, in.Validate(), ErrSlugRequired)
	})

	t.Run("rejects long slug", func(t *testing.T) {
		in := CreateTenantInput{Name: "ACME", Slug: strings.Repeat("a", 61)}
		assert.ErrorIs(t, in.Validate(), ErrSlugTooLong)
	})
}
