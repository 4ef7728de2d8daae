package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
)

type fakeRegistry struct {
	bySlug map[string]*Tenant
	byID   map[id.ID]*Tenant
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		bySlug: map[string]*Tenant{},
		byID:   map[id.ID]*Tenant{},
	}
}

func (f *fakeRegistry) GetByID(_ context.Context, tenantID id.ID) (*Tenant, error) {
	t, ok := f.byID[tenantID]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

func (f *fakeRegistry) GetBySlug(_ context.Context, slug string) (*Tenant, error) {
	t, ok := f.bySlug[slug]
	if !ok {
		return nil, ErrTenantNotFound
	}
	return t, nil
}

func (f *fakeRegistry) ListActive(_ context.Context) ([]*Tenant, error) {
	var out []*Tenant
	for _, t := range f.byID {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRegistry) ListAll(_ context.Context) ([]*Tenant, error) {
	out := make([]*Tenant, 0, len(f.byID))
	for _, t := range f.byID {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRegistry) Create(_ context.Context, t *Tenant) error {
	f.bySlug[t.Slug] = t
	f.byID[t.ID] = t
	return nil
}

func (f *fakeRegistry) Update(_ context.Context, t *Tenant) error {
	f.bySlug[t.Slug] = t
	f.byID[t.ID] = t
	return nil
}

func (f *fakeRegistry) SetActive(_ context.Context, tenantID id.ID, active bool) error {
	t, ok := f.byID[tenantID]
	if !ok {
		return ErrTenantNotFound
	}
	t.IsActive = active
	return nil
}

func TestProvision(t *testing.T) {
	svc := NewService(newFakeRegistry())
	ctx := context.Background()

	created, err := svc.Provision(ctx, CreateTenantInput{Name: "ACME s.r.o.", Slug: "ACME"})
	require.NoError(t, err)
	assert.Equal(t, "acme", created.Slug)
	assert.True(t, created.IsActive)
	assert.False(t, id.IsNil(created.ID))

	// Same slug again conflicts.
	_, err = svc.Provision(ctx, CreateTenantInput{Name: "Other", Slug: "acme"})
	require.Error(t, err)
	assert.True(t, apperror.IsAppError(err))
}

func TestProvisionValidatesInput(t *testing.T) {
	svc := NewService(newFakeRegistry())

	_, err := svc.Provision(context.Background(), CreateTenantInput{Slug: "acme"})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Provision(context.Background(), CreateTenantInput{Name: "ACME"})
	assert.ErrorIs(t, err, ErrSlugRequired)
}

func TestResolve(t *testing.T) {
	reg := newFakeRegistry()
	svc := NewService(reg)
	ctx := context.Background()

	created, err := svc.Provision(ctx, CreateTenantInput{Name: "ACME", Slug: "acme"})
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	require.NoError(t, svc.Deactivate(ctx, created.ID))
	_, err = svc.Resolve(ctx, created.ID)
	assert.ErrorIs(t, err, ErrTenantNotActive)

	require.NoError(t, svc.Activate(ctx, created.ID))
	_, err = svc.Resolve(ctx, created.ID)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, id.New())
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestList(t *testing.T) {
	reg := newFakeRegistry()
	svc := NewService(reg)
	ctx := context.Background()

	a, err := svc.Provision(ctx, CreateTenantInput{Name: "A", Slug: "a"})
	require.NoError(t, err)
	_, err = svc.Provision(ctx, CreateTenantInput{Name: "B", Slug: "b"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, a.ID))

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
