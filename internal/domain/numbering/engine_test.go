package numbering

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigRepo struct {
	configs map[string]*Config
}

func (r *fakeConfigRepo) FindByEntityType(_ context.Context, entityType string) (*Config, error) {
	return r.configs[entityType], nil
}

func (r *fakeConfigRepo) Upsert(_ context.Context, cfg *Config) error {
	r.configs[cfg.EntityType] = cfg
	return nil
}

func (r *fakeConfigRepo) List(_ context.Context) ([]*Config, error) {
	out := make([]*Config, 0, len(r.configs))
	for _, c := range r.configs {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeConfigRepo) Delete(_ context.Context, entityType string) error {
	delete(r.configs, entityType)
	return nil
}

type fakeSequenceStore struct {
	counters map[string]int64
	calls    []string
}

func (s *fakeSequenceStore) NextValue(_ context.Context, entityType, scopeKey string) (int64, error) {
	key := entityType + "|" + scopeKey
	s.counters[key]++
	s.calls = append(s.calls, key)
	return s.counters[key], nil
}

func (s *fakeSequenceStore) Reset(_ context.Context, entityType string) error {
	for key := range s.counters {
		if len(key) > len(entityType) && key[:len(entityType)+1] == entityType+"|" {
			s.counters[key] = 0
		}
	}
	return nil
}

func newTestEngine(patterns map[string]string, at time.Time) (*Engine, *fakeSequenceStore) {
	configs := &fakeConfigRepo{configs: map[string]*Config{}}
	for entityType, pattern := range patterns {
		configs.configs[entityType] = &Config{EntityType: entityType, Pattern: pattern}
	}
	seqs := &fakeSequenceStore{counters: map[string]int64{}}
	e := NewEngine(configs, seqs)
	e.now = func() time.Time { return at }
	return e, seqs
}

func TestEngineGenerate(t *testing.T) {
	ctx := context.Background()
	jan := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)

	t.Run("counter increments within scope", func(t *testing.T) {
		e, _ := newTestEngine(map[string]string{"delivery_note": "DL[YY][MM]-[CCCC]"}, jan)

		n1, ok, err := e.Generate(ctx, Request{EntityType: "delivery_note"})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "DL2601-0001", n1)

		n2, _, err := e.Generate(ctx, Request{EntityType: "delivery_note"})
		require.NoError(t, err)
		assert.Equal(t, "DL2601-0002", n2)
	})

	t.Run("new month starts a new scope", func(t *testing.T) {
		e, seqs := newTestEngine(map[string]string{"delivery_note": "DL[YY][MM]-[CCCC]"}, jan)

		n1, _, err := e.Generate(ctx, Request{EntityType: "delivery_note"})
		require.NoError(t, err)
		assert.Equal(t, "DL2601-0001", n1)

		e.now = func() time.Time { return time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC) }
		n2, _, err := e.Generate(ctx, Request{EntityType: "delivery_note"})
		require.NoError(t, err)
		assert.Equal(t, "DL2602-0001", n2)

		// Both scopes kept independent counters.
		assert.Equal(t, int64(1), seqs.counters["delivery_note|26-01"])
		assert.Equal(t, int64(1), seqs.counters["delivery_note|26-02"])
	})

	t.Run("partner and type tags join the scope key", func(t *testing.T) {
		e, seqs := newTestEngine(map[string]string{"invoice": "F[YYYY]-[PARTNER]-[TYPE][CCC]"}, jan)

		n, ok, err := e.Generate(ctx, Request{
			EntityType:  "invoice",
			PartnerCode: "ACME",
			DocType:     TypeService,
		})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "F2026-ACME-S001", n)
		assert.Equal(t, []string{"invoice|2026-ACME-S"}, seqs.calls)
	})

	t.Run("missing partner renders as zero", func(t *testing.T) {
		e, _ := newTestEngine(map[string]string{"invoice": "[PARTNER]/[CC]"}, jan)

		n, _, err := e.Generate(ctx, Request{EntityType: "invoice"})
		require.NoError(t, err)
		assert.Equal(t, "0/01", n)
	})

	t.Run("no counter tag means no sequence call", func(t *testing.T) {
		e, seqs := newTestEngine(map[string]string{"invoice": "INV-[YYYY][MM]"}, jan)

		n, ok, err := e.Generate(ctx, Request{EntityType: "invoice"})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "INV-202601", n)
		assert.Empty(t, seqs.calls)
	})

	t.Run("counter wider than pad width is not truncated", func(t *testing.T) {
		e, seqs := newTestEngine(map[string]string{"invoice": "I[CC]"}, jan)
		seqs.counters["invoice|"] = 150

		n, _, err := e.Generate(ctx, Request{EntityType: "invoice"})
		require.NoError(t, err)
		assert.Equal(t, "I151", n)
	})

	t.Run("unknown tag survives verbatim", func(t *testing.T) {
		e, _ := newTestEngine(map[string]string{"invoice": "[FOO]-[CC]"}, jan)

		n, _, err := e.Generate(ctx, Request{EntityType: "invoice"})
		require.NoError(t, err)
		assert.Equal(t, "[FOO]-01", n)
	})

	t.Run("extra counter tags render verbatim", func(t *testing.T) {
		// A [CC]-[CCC] pattern never passes Config.Validate, but a config
		// written straight into the store must still render every segment.
		e, seqs := newTestEngine(map[string]string{"invoice": "I[CC]-[CCC]"}, jan)

		n, _, err := e.Generate(ctx, Request{EntityType: "invoice"})
		require.NoError(t, err)
		assert.Equal(t, "I01-[CCC]", n)
		assert.Equal(t, []string{"invoice|"}, seqs.calls)

		assert.Equal(t, "I01-[CCC]", e.Preview("I[CC]-[CCC]", Request{}))
	})

	t.Run("absent config reports not configured", func(t *testing.T) {
		e, _ := newTestEngine(nil, jan)

		n, ok, err := e.Generate(ctx, Request{EntityType: "invoice"})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, n)
	})
}

func TestConfigValidate(t *testing.T) {
	ctx := context.Background()

	valid := &Config{EntityType: "invoice", Pattern: "F[YYYY]-[CCCC]"}
	assert.NoError(t, valid.Validate(ctx))

	assert.Error(t, (&Config{Pattern: "F[CCCC]"}).Validate(ctx))
	assert.Error(t, (&Config{EntityType: "invoice"}).Validate(ctx))
	assert.Error(t, (&Config{EntityType: "invoice", Pattern: "[CC]-[CCC]"}).Validate(ctx))
}
