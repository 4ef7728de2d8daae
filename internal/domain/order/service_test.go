package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/entity"
	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/numbering"
	"fakturo/internal/domain/partner"
)

// --- Fakes ---

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeOrderRepo struct {
	Repository
	created []*Order
	items   map[id.ID][]Item
}

func (f *fakeOrderRepo) Create(_ context.Context, doc *Order) error {
	f.created = append(f.created, doc)
	return nil
}

func (f *fakeOrderRepo) SaveItems(_ context.Context, docID id.ID, items []Item) error {
	if f.items == nil {
		f.items = make(map[id.ID][]Item)
	}
	f.items[docID] = items
	return nil
}

type fakePartnerRepo struct {
	partner.Repository
	partners map[id.ID]*partner.Partner
}

func (f *fakePartnerRepo) GetByID(_ context.Context, pid id.ID) (*partner.Partner, error) {
	p, ok := f.partners[pid]
	if !ok {
		return nil, apperror.NewNotFound("partner", pid.String())
	}
	return p, nil
}

func partnerWithCode(pid id.ID, code string) *partner.Partner {
	p := &partner.Partner{Catalog: entity.NewCatalog(code, "Partner "+code)}
	p.ID = pid
	return p
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

func newDraftOrder(partnerID id.ID) *Order {
	doc := NewOrder(partnerID)
	name := "Rohlík"
	doc.AddItem(Item{IsManual: true, ManualName: &name, Quantity: 10, UnitPrice: types.MustMoney("0.15")})
	return doc
}

// Each partner runs its own counter when the pattern carries [PARTNER].
func TestCreateNumbersPerPartnerScope(t *testing.T) {
	pidA := id.New()
	pidB := id.New()
	partners := &fakePartnerRepo{partners: map[id.ID]*partner.Partner{
		pidA: partnerWithCode(pidA, "7"),
		pidB: partnerWithCode(pidB, "42"),
	}}
	seqs := &memSequenceStore{}
	engine := numbering.NewEngine(patternConfigRepo{pattern: "OBJ[PARTNER]/[CC]"}, seqs)
	svc := NewService(&fakeOrderRepo{}, partners, engine, noopTxManager{})

	a1 := newDraftOrder(pidA)
	require.NoError(t, svc.Create(context.Background(), a1))
	a2 := newDraftOrder(pidA)
	require.NoError(t, svc.Create(context.Background(), a2))
	b1 := newDraftOrder(pidB)
	require.NoError(t, svc.Create(context.Background(), b1))

	assert.Equal(t, "OBJ7/01", a1.Number)
	assert.Equal(t, "OBJ7/02", a2.Number)
	assert.Equal(t, "OBJ42/01", b1.Number)
	assert.Len(t, seqs.counters, 2)
}

func TestCreateFailsForUnknownPartner(t *testing.T) {
	engine := numbering.NewEngine(patternConfigRepo{pattern: "OBJ[PARTNER]/[CC]"}, &memSequenceStore{})
	svc := NewService(&fakeOrderRepo{}, &fakePartnerRepo{}, engine, noopTxManager{})

	err := svc.Create(context.Background(), newDraftOrder(id.New()))
	require.Error(t, err)
}

func TestCreateKeepsExplicitNumber(t *testing.T) {
	repo := &fakeOrderRepo{}
	seqs := &memSequenceStore{}
	engine := numbering.NewEngine(patternConfigRepo{pattern: "OBJ[PARTNER]/[CC]"}, seqs)
	svc := NewService(repo, &fakePartnerRepo{}, engine, noopTxManager{})

	doc := newDraftOrder(id.New())
	doc.Number = "OBJ-MANUAL-1"
	require.NoError(t, svc.Create(context.Background(), doc))

	assert.Equal(t, "OBJ-MANUAL-1", doc.Number)
	assert.Empty(t, seqs.counters)
	require.Len(t, repo.created, 1)
}
