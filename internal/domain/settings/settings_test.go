package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakturo/internal/core/types"
)

type mapRepo struct {
	values map[string]string
}

func (m *mapRepo) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapRepo) Set(_ context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func (m *mapRepo) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func (m *mapRepo) List(_ context.Context) ([]Setting, error) {
	return nil, nil
}

func TestDefaultVATRate(t *testing.T) {
	ctx := context.Background()

	t.Run("unset falls back to 20", func(t *testing.T) {
		svc := NewService(&mapRepo{values: map[string]string{}})
		rate, err := svc.DefaultVATRate(ctx)
		require.NoError(t, err)
		assert.True(t, rate.Equal(types.MustMoney("20")))
	})

	t.Run("configured rate wins", func(t *testing.T) {
		svc := NewService(&mapRepo{values: map[string]string{KeyDefaultVATRate: "10"}})
		rate, err := svc.DefaultVATRate(ctx)
		require.NoError(t, err)
		assert.True(t, rate.Equal(types.MustMoney("10")))
	})

	t.Run("garbage and negative values fall back", func(t *testing.T) {
		for _, v := range []string{"abc", "-5"} {
			svc := NewService(&mapRepo{values: map[string]string{KeyDefaultVATRate: v}})
			rate, err := svc.DefaultVATRate(ctx)
			require.NoError(t, err)
			assert.True(t, rate.Equal(types.MustMoney("20")), "value %q", v)
		}
	})
}

func TestCurrency(t *testing.T) {
	ctx := context.Background()

	svc := NewService(&mapRepo{values: map[string]string{}})
	cur, err := svc.Currency(ctx)
	require.NoError(t, err)
	assert.Equal(t, FallbackCurrency, cur)

	svc = NewService(&mapRepo{values: map[string]string{KeyCurrency: "CZK"}})
	cur, err = svc.Currency(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CZK", cur)
}
