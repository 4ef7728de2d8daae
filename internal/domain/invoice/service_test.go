package invoice

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
	"fakturo/internal/domain/delivery"
	"fakturo/internal/domain/numbering"
	"fakturo/internal/domain/partner"
	"fakturo/internal/domain/product"
	"fakturo/internal/domain/settings"
)

// --- Fakes ---
//
// Each fake embeds the repository interface and overrides only what the
// service under test touches; calling anything else panics loudly.

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
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

func (f *fakePartnerRepo) ListByGroupCode(_ context.Context, groupCode string) ([]*partner.Partner, error) {
	var out []*partner.Partner
	for _, p := range f.partners {
		if p.GroupCode != nil && *p.GroupCode == groupCode {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeProductRepo struct {
	product.Repository
	products map[id.ID]*product.Product
}

func (f *fakeProductRepo) GetByID(_ context.Context, pid id.ID) (*product.Product, error) {
	p, ok := f.products[pid]
	if !ok {
		return nil, apperror.NewNotFound("product", pid.String())
	}
	return p, nil
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

type fakeDeliveryRepo struct {
	delivery.Repository
	notes map[id.ID]*delivery.Note
	items map[id.ID][]delivery.Item

	markShort bool // simulate a sibling run winning the race
}

func (f *fakeDeliveryRepo) SelectUnbilledForUpdate(_ context.Context, partnerIDs []id.ID) ([]*delivery.Note, error) {
	inScope := make(map[id.ID]bool, len(partnerIDs))
	for _, pid := range partnerIDs {
		inScope[pid] = true
	}
	var out []*delivery.Note
	for _, n := range f.notes {
		if n.Invoiced || n.PartnerID == nil || !inScope[*n.PartnerID] {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeDeliveryRepo) GetItems(_ context.Context, noteID id.ID) ([]delivery.Item, error) {
	return f.items[noteID], nil
}

func (f *fakeDeliveryRepo) MarkInvoiced(_ context.Context, noteIDs []id.ID) (int64, error) {
	if f.markShort {
		return int64(len(noteIDs)) - 1, nil
	}
	var n int64
	for _, nid := range noteIDs {
		if note, ok := f.notes[nid]; ok && !note.Invoiced {
			note.Invoiced = true
			n++
		}
	}
	return n, nil
}

type fakeInvoiceRepo struct {
	Repository
	created    []*Invoice
	savedItems map[id.ID][]Item
	lastNumber string
}

func (f *fakeInvoiceRepo) Create(_ context.Context, doc *Invoice) error {
	f.created = append(f.created, doc)
	return nil
}

func (f *fakeInvoiceRepo) SaveItems(_ context.Context, docID id.ID, items []Item) error {
	if f.savedItems == nil {
		f.savedItems = make(map[id.ID][]Item)
	}
	f.savedItems[docID] = items
	return nil
}

func (f *fakeInvoiceRepo) LastNumberWithPrefix(_ context.Context, _ string) (string, error) {
	return f.lastNumber, nil
}

type fakeConfigRepo struct {
	numbering.ConfigRepository
	configs map[string]*numbering.Config
}

func (f *fakeConfigRepo) FindByEntityType(_ context.Context, entityType string) (*numbering.Config, error) {
	return f.configs[entityType], nil
}

type fakeSequenceStore struct {
	numbering.SequenceStore
	counters map[string]int64
}

func (f *fakeSequenceStore) NextValue(_ context.Context, entityType, scopeKey string) (int64, error) {
	key := entityType + "|" + scopeKey
	f.counters[key]++
	return f.counters[key], nil
}

type fakeSettingsRepo struct {
	values map[string]string
}

func (f *fakeSettingsRepo) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeSettingsRepo) Set(_ context.Context, key, value string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

func (f *fakeSettingsRepo) Delete(_ context.Context, key string) error {
	delete(f.values, key)
	return nil
}

func (f *fakeSettingsRepo) List(_ context.Context) ([]settings.Setting, error) {
	return nil, nil
}

// --- Fixture ---

type fixture struct {
	svc        *Service
	partners   *fakePartnerRepo
	products   *fakeProductRepo
	bundles    *fakeBundleRepo
	deliveries *fakeDeliveryRepo
	invoices   *fakeInvoiceRepo
	configs    *fakeConfigRepo
	settings   *fakeSettingsRepo
}

func newFixture() *fixture {
	f := &fixture{
		partners:   &fakePartnerRepo{partners: map[id.ID]*partner.Partner{}},
		products:   &fakeProductRepo{products: map[id.ID]*product.Product{}},
		bundles:    &fakeBundleRepo{bundles: map[id.ID]*product.Bundle{}},
		deliveries: &fakeDeliveryRepo{notes: map[id.ID]*delivery.Note{}, items: map[id.ID][]delivery.Item{}},
		invoices:   &fakeInvoiceRepo{},
		configs:    &fakeConfigRepo{configs: map[string]*numbering.Config{}},
		settings:   &fakeSettingsRepo{values: map[string]string{}},
	}
	at := func() time.Time { return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC) }
	engine := numbering.NewEngine(f.configs, &fakeSequenceStore{counters: map[string]int64{}}).WithClock(at)
	f.svc = NewService(f.invoices, f.partners, f.deliveries, f.products, f.bundles, engine, settings.NewService(f.settings), noopTxManager{})
	f.svc.now = at
	return f
}

func (f *fixture) addPartner(name string, groupCode *string) *partner.Partner {
	p := partner.NewPartner("P-"+name, name)
	p.GroupCode = groupCode
	f.partners.partners[p.ID] = p
	return p
}

func (f *fixture) addProduct(name, price, vatRate string) *product.Product {
	p := product.NewProduct("PR-"+name, name, types.MustMoney(price))
	p.VATRate = types.MustMoney(vatRate)
	f.products.products[p.ID] = p
	return p
}

func (f *fixture) addNote(p *partner.Partner, number string, items ...delivery.Item) *delivery.Note {
	pid := p.ID
	note := delivery.NewNote(&pid)
	note.Number = number
	for _, item := range items {
		note.AddItem(item)
	}
	f.deliveries.notes[note.ID] = note
	f.deliveries.items[note.ID] = note.Items
	return note
}

func productLine(p *product.Product, quantity int64) delivery.Item {
	pid := p.ID
	return delivery.Item{
		BaseEntity: entity.NewBaseEntity(),
		ProductID:  &pid,
		Quantity:   quantity,
		UnitPrice:  p.Price,
	}
}

// --- Tests ---

func TestBuildForPartner(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates unbilled notes with VAT", func(t *testing.T) {
		f := newFixture()
		p := f.addPartner("Alfa", nil)
		cement := f.addProduct("Cement 25kg", "6.50", "20")
		steel := f.addProduct("Ocel 10mm", "850.00", "20")
		note := f.addNote(p, "DL2603-0001",
			productLine(cement, 20),
			productLine(steel, 2),
		)

		inv, err := f.svc.BuildForPartner(ctx, p.ID)
		require.NoError(t, err)

		assert.Equal(t, StatusDraft, inv.Status)
		assert.Equal(t, "FV-2026-0001", inv.Number)
		require.Len(t, inv.Items, 2)

		first := inv.Items[0]
		assert.Equal(t, "Dodací list DL2603-0001: Cement 25kg (20x)", first.Description)
		assert.True(t, first.Total.Equal(types.MustMoney("130.00")), "got %s", first.Total)
		assert.True(t, first.VATAmount.Equal(types.MustMoney("26.00")), "got %s", first.VATAmount)
		assert.True(t, first.TotalWithVAT.Equal(types.MustMoney("156.00")), "got %s", first.TotalWithVAT)
		require.NotNil(t, first.SourceDeliveryID)
		assert.Equal(t, note.ID, *first.SourceDeliveryID)

		assert.True(t, inv.Total.Equal(types.MustMoney("1830.00")), "got %s", inv.Total)
		assert.True(t, inv.TotalWithVAT.Equal(types.MustMoney("2196.00")), "got %s", inv.TotalWithVAT)

		assert.True(t, note.Invoiced)
		require.Len(t, f.invoices.created, 1)
		assert.Len(t, f.invoices.savedItems[inv.ID], 2)
	})

	t.Run("second run finds nothing to invoice", func(t *testing.T) {
		f := newFixture()
		p := f.addPartner("Alfa", nil)
		cement := f.addProduct("Cement 25kg", "6.50", "20")
		f.addNote(p, "DL-1", productLine(cement, 1))

		_, err := f.svc.BuildForPartner(ctx, p.ID)
		require.NoError(t, err)

		_, err = f.svc.BuildForPartner(ctx, p.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsNothingToInvoice(err))
	})

	t.Run("group billing consumes sibling partners notes", func(t *testing.T) {
		f := newFixture()
		group := "HOLDING"
		a := f.addPartner("Alfa", &group)
		b := f.addPartner("Beta", &group)
		cement := f.addProduct("Cement 25kg", "6.50", "20")
		f.addNote(a, "DL-A", productLine(cement, 1))
		f.addNote(b, "DL-B", productLine(cement, 2))

		inv, err := f.svc.BuildForPartner(ctx, a.ID)
		require.NoError(t, err)

		assert.Equal(t, a.ID, inv.PartnerID)
		assert.Len(t, inv.Items, 2)
		assert.True(t, inv.Total.Equal(types.MustMoney("19.50")), "got %s", inv.Total)

		_, err = f.svc.BuildForPartner(ctx, b.ID)
		assert.True(t, apperror.IsNothingToInvoice(err))
	})

	t.Run("VAT uses the product rate", func(t *testing.T) {
		f := newFixture()
		p := f.addPartner("Alfa", nil)
		bread := f.addProduct("Chlieb", "1.20", "10")
		f.addNote(p, "DL-1", productLine(bread, 5))

		inv, err := f.svc.BuildForPartner(ctx, p.ID)
		require.NoError(t, err)

		require.Len(t, inv.Items, 1)
		assert.True(t, inv.Items[0].VATRate.Equal(types.MustMoney("10")))
		assert.True(t, inv.Items[0].VATAmount.Equal(types.MustMoney("0.60")), "got %s", inv.Items[0].VATAmount)
	})

	t.Run("manual note line falls back to its name and default rate", func(t *testing.T) {
		f := newFixture()
		p := f.addPartner("Alfa", nil)
		name := "Doprava"
		pid := p.ID
		note := delivery.NewNote(&pid)
		note.Number = "DL-9"
		note.AddItem(delivery.Item{
			BaseEntity: entity.NewBaseEntity(),
			IsManual:   true,
			ManualName: &name,
			Quantity:   1,
			UnitPrice:  types.MustMoney("15.00"),
		})
		f.deliveries.notes[note.ID] = note
		f.deliveries.items[note.ID] = note.Items

		inv, err := f.svc.BuildForPartner(ctx, p.ID)
		require.NoError(t, err)

		require.Len(t, inv.Items, 1)
		assert.Equal(t, "Dodací list DL-9: Doprava (1x)", inv.Items[0].Description)
		assert.True(t, inv.Items[0].VATRate.Equal(types.MustMoney("20")))
	})

	t.Run("configured default rate drives fallback lines", func(t *testing.T) {
		f := newFixture()
		f.settings.values[settings.KeyDefaultVATRate] = "10"
		p := f.addPartner("Alfa", nil)
		name := "Doprava"
		pid := p.ID
		note := delivery.NewNote(&pid)
		note.Number = "DL-10"
		note.AddItem(delivery.Item{
			BaseEntity: entity.NewBaseEntity(),
			IsManual:   true,
			ManualName: &name,
			Quantity:   1,
			UnitPrice:  types.MustMoney("15.00"),
		})
		f.deliveries.notes[note.ID] = note
		f.deliveries.items[note.ID] = note.Items

		inv, err := f.svc.BuildForPartner(ctx, p.ID)
		require.NoError(t, err)

		require.Len(t, inv.Items, 1)
		assert.True(t, inv.Items[0].VATRate.Equal(types.MustMoney("10")))
		assert.True(t, inv.Items[0].VATAmount.Equal(types.MustMoney("1.50")), "got %s", inv.Items[0].VATAmount)
		assert.True(t, inv.Items[0].TotalWithVAT.Equal(types.MustMoney("16.50")), "got %s", inv.Items[0].TotalWithVAT)
	})

	t.Run("exact half line rounds up", func(t *testing.T) {
		f := newFixture()
		p := f.addPartner("Alfa", nil)
		// 2.50 * 5% would be 0.125; half-up gives 0.13.
		widget := f.addProduct("Widget", "2.50", "5")
		f.addNote(p, "DL-1", productLine(widget, 1))

		inv, err := f.svc.BuildForPartner(ctx, p.ID)
		require.NoError(t, err)

		require.Len(t, inv.Items, 1)
		assert.True(t, inv.Items[0].VATAmount.Equal(types.MustMoney("0.13")), "got %s", inv.Items[0].VATAmount)
		assert.True(t, inv.Items[0].TotalWithVAT.Equal(types.MustMoney("2.63")), "got %s", inv.Items[0].TotalWithVAT)
	})

	t.Run("unknown partner", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.BuildForPartner(ctx, id.New())
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("lost race on mark invoiced aborts", func(t *testing.T) {
		f := newFixture()
		p := f.addPartner("Alfa", nil)
		cement := f.addProduct("Cement 25kg", "6.50", "20")
		f.addNote(p, "DL-1", productLine(cement, 1))
		f.deliveries.markShort = true

		_, err := f.svc.BuildForPartner(ctx, p.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsConcurrentModification(err))
		assert.Empty(t, f.invoices.created)
	})
}

func TestInvoiceNumbering(t *testing.T) {
	ctx := context.Background()

	t.Run("configured pattern wins", func(t *testing.T) {
		f := newFixture()
		f.configs.configs[EntityType] = &numbering.Config{
			EntityType: EntityType,
			Pattern:    "F[YYYY]/[CCC]",
		}
		p := f.addPartner("Alfa", nil)
		cement := f.addProduct("Cement 25kg", "6.50", "20")
		f.addNote(p, "DL-1", productLine(cement, 1))

		inv, err := f.svc.BuildForPartner(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "F2026/001", inv.Number)
	})

	t.Run("fallback continues the year series", func(t *testing.T) {
		f := newFixture()
		f.invoices.lastNumber = "FV-2026-0041"
		p := f.addPartner("Alfa", nil)
		cement := f.addProduct("Cement 25kg", "6.50", "20")
		f.addNote(p, "DL-1", productLine(cement, 1))

		inv, err := f.svc.BuildForPartner(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "FV-2026-0042", inv.Number)
	})

	t.Run("fallback survives a malformed last number", func(t *testing.T) {
		f := newFixture()
		f.invoices.lastNumber = "FV-2026-draft"
		p := f.addPartner("Alfa", nil)
		cement := f.addProduct("Cement 25kg", "6.50", "20")
		f.addNote(p, "DL-1", productLine(cement, 1))

		inv, err := f.svc.BuildForPartner(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "FV-2026-0001", inv.Number)
	})
}

func TestChangeStatus(t *testing.T) {
	inv := NewInvoice(id.New())

	require.NoError(t, inv.ChangeStatus(StatusSent))
	assert.Equal(t, StatusSent, inv.Status)

	err := inv.ChangeStatus(Status("archived"))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStatusChange, appErr.Code)

	inv.Lock()
	err = inv.ChangeStatus(StatusPaid)
	require.Error(t, err)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentLocked, appErr.Code)
}

func TestChangeStatusIsForwardOnly(t *testing.T) {
	requireInvalidChange := func(t *testing.T, err error) {
		t.Helper()
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeInvalidStatusChange, appErr.Code)
	}

	t.Run("paid never moves back", func(t *testing.T) {
		inv := NewInvoice(id.New())
		require.NoError(t, inv.ChangeStatus(StatusSent))
		require.NoError(t, inv.ChangeStatus(StatusPaid))

		requireInvalidChange(t, inv.ChangeStatus(StatusDraft))
		requireInvalidChange(t, inv.ChangeStatus(StatusSent))
		requireInvalidChange(t, inv.ChangeStatus(StatusError))
		assert.Equal(t, StatusPaid, inv.Status)
	})

	t.Run("sent does not reopen as draft", func(t *testing.T) {
		inv := NewInvoice(id.New())
		require.NoError(t, inv.ChangeStatus(StatusSent))
		requireInvalidChange(t, inv.ChangeStatus(StatusDraft))
	})

	t.Run("draft can skip to paid", func(t *testing.T) {
		inv := NewInvoice(id.New())
		require.NoError(t, inv.ChangeStatus(StatusPaid))
	})

	t.Run("error is reachable but not leavable", func(t *testing.T) {
		inv := NewInvoice(id.New())
		require.NoError(t, inv.ChangeStatus(StatusError))
		requireInvalidChange(t, inv.ChangeStatus(StatusSent))
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		inv := NewInvoice(id.New())
		require.NoError(t, inv.ChangeStatus(StatusDraft))
		assert.Equal(t, StatusDraft, inv.Status)
	})
}

func TestForceStatusOverridesDirection(t *testing.T) {
	inv := NewInvoice(id.New())
	require.NoError(t, inv.ChangeStatus(StatusPaid))

	require.NoError(t, inv.ForceStatus(StatusDraft))
	assert.Equal(t, StatusDraft, inv.Status)

	err := inv.ForceStatus(Status("archived"))
	require.Error(t, err)

	inv.Lock()
	err = inv.ForceStatus(StatusSent)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentLocked, appErr.Code)
}
