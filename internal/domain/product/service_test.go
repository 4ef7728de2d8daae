package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/numbering"
)

// --- Fakes ---

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProductRepo struct {
	Repository
	created []*Product
}

func (f *fakeProductRepo) Create(_ context.Context, p *Product) error {
	f.created = append(f.created, p)
	return nil
}

type fakeBundleRepo struct {
	BundleRepository
	created []*Bundle
}

func (f *fakeBundleRepo) Create(_ context.Context, b *Bundle) error {
	f.created = append(f.created, b)
	return nil
}

type patternConfigRepo struct {
	pattern string
}

func (r patternConfigRepo) FindByEntityType(_ context.Context, entityType string) (*numbering.Config, error) {
	return &numbering.Config{EntityType: entityType, Pattern: r.pattern}, nil
}
func (patternConfigRepo) Upsert(context.Context, *numbering.Config) error { return nil }
func (patternConfigRepo) List(context.Context) ([]*numbering.Config, error) {
	return nil, nil
}
func (patternConfigRepo) Delete(context.Context, string) error { return nil }

type memSequenceStore struct {
	counters map[string]int64
}

func (m *memSequenceStore) NextValue(_ context.Context, entityType, scopeKey string) (int64, error) {
	if m.counters == nil {
		m.counters = map[string]int64{}
	}
	key := entityType + "|" + scopeKey
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memSequenceStore) Reset(context.Context, string) error { return nil }

func testCtx() context.Context {
	return tenant.WithTxManager(context.Background(), noopTxManager{})
}

// Goods and services resolve [TYPE] differently, so each runs its own
// counter.
func TestCreateNumbersProductsPerType(t *testing.T) {
	seqs := &memSequenceStore{}
	engine := numbering.NewEngine(patternConfigRepo{pattern: "PR[TYPE]-[CCC]"}, seqs)
	svc := NewService(&fakeProductRepo{}, engine)

	goods1 := NewProduct("PR-001", "Rohlík", types.MustMoney("0.15"))
	goods1.IsService = false
	require.NoError(t, svc.Create(testCtx(), goods1))
	goods2 := NewProduct("PR-002", "Chlieb", types.MustMoney("1.20"))
	goods2.IsService = false
	require.NoError(t, svc.Create(testCtx(), goods2))

	service1 := NewProduct("PR-003", "Doprava", types.MustMoney("5.00"))
	service1.IsService = true
	require.NoError(t, svc.Create(testCtx(), service1))

	assert.Equal(t, "PRT-001", goods1.Number)
	assert.Equal(t, "PRT-002", goods2.Number)
	assert.Equal(t, "PRS-001", service1.Number)
	assert.Len(t, seqs.counters, 2)
}

func TestCreateKeepsExplicitProductNumber(t *testing.T) {
	seqs := &memSequenceStore{}
	engine := numbering.NewEngine(patternConfigRepo{pattern: "PR[TYPE]-[CCC]"}, seqs)
	repo := &fakeProductRepo{}
	svc := NewService(repo, engine)

	p := NewProduct("PR-009", "Vianočka", types.MustMoney("2.50"))
	p.Number = "LEGACY-42"
	require.NoError(t, svc.Create(testCtx(), p))

	assert.Equal(t, "LEGACY-42", p.Number)
	assert.Empty(t, seqs.counters)
	assert.Len(t, repo.created, 1)
}

// A tenant without a product pattern still creates products; the number
// stays empty.
func TestCreateWithoutPatternLeavesNumberEmpty(t *testing.T) {
	engine := numbering.NewEngine(nilConfigRepo{}, &memSequenceStore{})
	svc := NewService(&fakeProductRepo{}, engine)

	p := NewProduct("PR-001", "Rohlík", types.MustMoney("0.15"))
	require.NoError(t, svc.Create(testCtx(), p))

	assert.Empty(t, p.Number)
}

type nilConfigRepo struct{}

func (nilConfigRepo) FindByEntityType(context.Context, string) (*numbering.Config, error) {
	return nil, nil
}
func (nilConfigRepo) Upsert(context.Context, *numbering.Config) error { return nil }
func (nilConfigRepo) List(context.Context) ([]*numbering.Config, error) {
	return nil, nil
}
func (nilConfigRepo) Delete(context.Context, string) error { return nil }

func TestCreateNumbersBundles(t *testing.T) {
	seqs := &memSequenceStore{}
	engine := numbering.NewEngine(patternConfigRepo{pattern: "BAL-[CCC]"}, seqs)
	svc := NewBundleService(&fakeBundleRepo{}, engine)

	b1 := NewBundle("BAL-001", "Raňajkový balíček", types.MustMoney("5.00"))
	b1.Items = []BundleItem{{ProductID: id.New(), Quantity: 2}}
	require.NoError(t, svc.Create(testCtx(), b1))
	b2 := NewBundle("BAL-002", "Obedový balíček", types.MustMoney("9.00"))
	b2.Items = []BundleItem{{ProductID: id.New(), Quantity: 1}}
	require.NoError(t, svc.Create(testCtx(), b2))

	assert.Equal(t, "BAL-001", b1.Number)
	assert.Equal(t, "BAL-002", b2.Number)
}
