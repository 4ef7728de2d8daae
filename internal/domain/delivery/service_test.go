package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/entity"
	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/numbering"
	"fakturo/internal/domain/order"
	"fakturo/internal/domain/partner"
	"fakturo/internal/domain/product"
)

// --- Fakes ---

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeOrderRepo struct {
	order.Repository
	orders map[id.ID]*order.Order
	items  map[id.ID][]order.Item
}

func (f *fakeOrderRepo) GetForUpdate(_ context.Context, oid id.ID) (*order.Order, error) {
	o, ok := f.orders[oid]
	if !ok {
		return nil, apperror.NewNotFound("order", oid.String())
	}
	return o, nil
}

func (f *fakeOrderRepo) GetItems(_ context.Context, oid id.ID) ([]order.Item, error) {
	return f.items[oid], nil
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

type fakeBundleRepo struct {
	product.BundleRepository
	bundles map[id.ID]*product.Bundle
}

func (f *fakeBundleRepo) GetByID(_ context.Context, bid id.ID) (*product.Bundle, error) {
	b, ok := f.bundles[bid]
	if !ok {
		return nil, apperror.NewNotFound("bundle", bid.String())
	}
	return b, nil
}

type fakeNoteRepo struct {
	Repository
	created *Note
	items   []Item
	links   []id.ID
}

func (f *fakeNoteRepo) Create(_ context.Context, doc *Note) error {
	f.created = doc
	return nil
}

func (f *fakeNoteRepo) SaveItems(_ context.Context, _ id.ID, items []Item) error {
	f.items = items
	return nil
}

func (f *fakeNoteRepo) LinkOrders(_ context.Context, _ id.ID, orderIDs []id.ID) error {
	f.links = orderIDs
	return nil
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

type nilSequenceStore struct{}

func (nilSequenceStore) NextValue(context.Context, string, string) (int64, error) { return 0, nil }
func (nilSequenceStore) Reset(context.Context, string) error                      { return nil }

func newConfirmedOrder(partnerID id.ID) *order.Order {
	o := order.NewOrder(partnerID)
	o.Confirmed = true
	return o
}

func TestCreateFromOrders(t *testing.T) {
	partnerID := id.New()

	o1 := newConfirmedOrder(partnerID)
	o2 := newConfirmedOrder(partnerID)

	productID := id.New()
	orders := &fakeOrderRepo{
		orders: map[id.ID]*order.Order{o1.ID: o1, o2.ID: o2},
		items: map[id.ID][]order.Item{
			o1.ID: {
				{ProductID: &productID, Quantity: 3, UnitPrice: types.MustMoney("2.10")},
			},
			o2.ID: {
				{ProductID: &productID, Quantity: 2, UnitPrice: types.MustMoney("2.10")},
			},
		},
	}
	notes := &fakeNoteRepo{}
	partners := &fakePartnerRepo{partners: map[id.ID]*partner.Partner{partnerID: partnerWithCode(partnerID, "7")}}
	engine := numbering.NewEngine(nilConfigRepo{}, nilSequenceStore{})
	svc := NewService(notes, orders, partners, &fakeBundleRepo{}, engine, noopTxManager{})

	doc, err := svc.CreateFromOrders(context.Background(), []id.ID{o1.ID, o2.ID})
	require.NoError(t, err)

	require.NotNil(t, doc.PartnerID)
	assert.Equal(t, partnerID, *doc.PartnerID)
	require.NotNil(t, doc.PrimaryOrderID)
	assert.Equal(t, o1.ID, *doc.PrimaryOrderID)

	require.Len(t, doc.Items, 2)
	assert.True(t, doc.Items[0].LineTotal.Equal(types.MustMoney("6.30")))
	assert.True(t, doc.Items[1].LineTotal.Equal(types.MustMoney("4.20")))

	assert.Equal(t, []id.ID{o1.ID, o2.ID}, notes.links)
	require.NotNil(t, notes.created)
}

func TestCreateFromOrdersRejectsUnconfirmed(t *testing.T) {
	partnerID := id.New()
	o := order.NewOrder(partnerID)

	orders := &fakeOrderRepo{orders: map[id.ID]*order.Order{o.ID: o}}
	engine := numbering.NewEngine(nilConfigRepo{}, nilSequenceStore{})
	svc := NewService(&fakeNoteRepo{}, orders, &fakePartnerRepo{}, &fakeBundleRepo{}, engine, noopTxManager{})

	_, err := svc.CreateFromOrders(context.Background(), []id.ID{o.ID})
	require.Error(t, err)
	assert.True(t, apperror.IsAppError(err))
}

func TestCreateFromOrdersRejectsMixedPartners(t *testing.T) {
	o1 := newConfirmedOrder(id.New())
	o2 := newConfirmedOrder(id.New())

	orders := &fakeOrderRepo{orders: map[id.ID]*order.Order{o1.ID: o1, o2.ID: o2}}
	engine := numbering.NewEngine(nilConfigRepo{}, nilSequenceStore{})
	svc := NewService(&fakeNoteRepo{}, orders, &fakePartnerRepo{}, &fakeBundleRepo{}, engine, noopTxManager{})

	_, err := svc.CreateFromOrders(context.Background(), []id.ID{o1.ID, o2.ID})
	require.Error(t, err)
	assert.True(t, apperror.IsAppError(err))
}

func TestCreateFromOrdersRequiresOrders(t *testing.T) {
	engine := numbering.NewEngine(nilConfigRepo{}, nilSequenceStore{})
	svc := NewService(&fakeNoteRepo{}, &fakeOrderRepo{}, &fakePartnerRepo{}, &fakeBundleRepo{}, engine, noopTxManager{})

	_, err := svc.CreateFromOrders(context.Background(), nil)
	require.Error(t, err)
}

func TestCreateExpandsBundles(t *testing.T) {
	partnerID := id.New()
	compA := id.New()
	compB := id.New()

	bundle := &product.Bundle{
		Catalog: entity.NewCatalog("B-001", "Raňajkový balík"),
		Items: []product.BundleItem{
			{ProductID: compA, Quantity: 2},
			{ProductID: compB, Quantity: 1},
		},
	}

	notes := &fakeNoteRepo{}
	partners := &fakePartnerRepo{partners: map[id.ID]*partner.Partner{partnerID: partnerWithCode(partnerID, "12")}}
	bundles := &fakeBundleRepo{bundles: map[id.ID]*product.Bundle{bundle.ID: bundle}}
	engine := numbering.NewEngine(nilConfigRepo{}, nilSequenceStore{})
	svc := NewService(notes, &fakeOrderRepo{}, partners, bundles, engine, noopTxManager{})

	doc := NewNote(&partnerID)
	bid := bundle.ID
	doc.AddItem(Item{BundleID: &bid, Quantity: 3, UnitPrice: types.MustMoney("9.90")})

	require.NoError(t, svc.Create(context.Background(), doc))

	require.Len(t, doc.Items, 1)
	comps := doc.Items[0].Components
	require.Len(t, comps, 2)
	assert.Equal(t, compA, comps[0].ProductID)
	assert.EqualValues(t, 6, comps[0].Quantity)
	assert.Equal(t, compB, comps[1].ProductID)
	assert.EqualValues(t, 3, comps[1].Quantity)
}

func TestConfirmSetsDeliveryTime(t *testing.T) {
	partnerID := id.New()
	doc := NewNote(&partnerID)

	repo := &confirmRepo{note: doc}
	engine := numbering.NewEngine(nilConfigRepo{}, nilSequenceStore{})
	svc := NewService(repo, &fakeOrderRepo{}, &fakePartnerRepo{}, &fakeBundleRepo{}, engine, noopTxManager{})

	deliveredAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, svc.Confirm(context.Background(), doc.ID, deliveredAt))

	assert.True(t, doc.Confirmed)
	require.NotNil(t, doc.ActualDeliveryAt)
	assert.Equal(t, deliveredAt, *doc.ActualDeliveryAt)

	// Confirming again is a no-op.
	require.NoError(t, svc.Confirm(context.Background(), doc.ID, deliveredAt.Add(time.Hour)))
	assert.Equal(t, deliveredAt, *doc.ActualDeliveryAt)
}

type patternConfigRepo struct {
	nilConfigRepo
	pattern string
}

func (r patternConfigRepo) FindByEntityType(_ context.Context, entityType string) (*numbering.Config, error) {
	return &numbering.Config{EntityType: entityType, Pattern: r.pattern}, nil
}

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

// Each partner runs its own counter when the pattern carries [PARTNER].
func TestCreateNumbersPerPartnerScope(t *testing.T) {
	pidA := id.New()
	pidB := id.New()
	partners := &fakePartnerRepo{partners: map[id.ID]*partner.Partner{
		pidA: partnerWithCode(pidA, "7"),
		pidB: partnerWithCode(pidB, "42"),
	}}
	seqs := &memSequenceStore{}
	engine := numbering.NewEngine(patternConfigRepo{pattern: "DL[PARTNER]-[CCC]"}, seqs)
	svc := NewService(&fakeNoteRepo{}, &fakeOrderRepo{}, partners, &fakeBundleRepo{}, engine, noopTxManager{})

	name := "Doprava"
	makeNote := func(pid id.ID) *Note {
		doc := NewNote(&pid)
		doc.AddItem(Item{IsManual: true, ManualName: &name, Quantity: 1, UnitPrice: types.MustMoney("5.00")})
		return doc
	}

	a1 := makeNote(pidA)
	require.NoError(t, svc.Create(context.Background(), a1))
	a2 := makeNote(pidA)
	require.NoError(t, svc.Create(context.Background(), a2))
	b1 := makeNote(pidB)
	require.NoError(t, svc.Create(context.Background(), b1))

	assert.Equal(t, "DL7-001", a1.Number)
	assert.Equal(t, "DL7-002", a2.Number)
	assert.Equal(t, "DL42-001", b1.Number)
	assert.Len(t, seqs.counters, 2)
}

type confirmRepo struct {
	Repository
	note *Note
}

func (f *confirmRepo) GetForUpdate(_ context.Context, _ id.ID) (*Note, error) {
	return f.note, nil
}

func (f *confirmRepo) Update(_ context.Context, _ *Note) error {
	return nil
}
