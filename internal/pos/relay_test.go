package pos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ── Stub repositories (only the methods the relay touches do real work) ──────

type stubSettingsRepo struct {
	settings *model.PosSettings
	getErr   error
}

func (r *stubSettingsRepo) Get(_ context.Context, _ uuid.UUID) (*model.PosSettings, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.settings == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.settings, nil
}
func (r *stubSettingsRepo) Upsert(_ context.Context, s *model.PosSettings) error {
	r.settings = s
	return nil
}

type stubSupplierRepo struct {
	suppliers map[uuid.UUID]*model.Supplier
}

func (r *stubSupplierRepo) FindByID(_ context.Context, _, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s
	return &clone, nil
}
func (r *stubSupplierRepo) UpdatePosRef(_ context.Context, _, id uuid.UUID, systemID string, ref model.PosRef) error {
	s, ok := r.suppliers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.PosRefs = model.WithPosRef(s.PosRefs, systemID, ref)
	return nil
}

func (r *stubSupplierRepo) Create(context.Context, *model.Supplier) error { return nil }
func (r *stubSupplierRepo) FindByTaxID(context.Context, uuid.UUID, string) (*model.Supplier, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubSupplierRepo) FindByName(context.Context, uuid.UUID, string) (*model.Supplier, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubSupplierRepo) List(context.Context, uuid.UUID) ([]model.Supplier, error) {
	return nil, nil
}
func (r *stubSupplierRepo) Update(context.Context, *model.Supplier) error { return nil }
func (r *stubSupplierRepo) Deactivate(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}
func (r *stubSupplierRepo) FindByIDTx(*gorm.DB, uuid.UUID, uuid.UUID) (*model.Supplier, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubSupplierRepo) FindByNameTx(*gorm.DB, uuid.UUID, string) (*model.Supplier, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubSupplierRepo) CreateTx(*gorm.DB, *model.Supplier) error { return nil }
func (r *stubSupplierRepo) SaveTx(*gorm.DB, *model.Supplier) error { return nil }

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func (r *stubProductRepo) FindByID(_ context.Context, _, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	return &clone, nil
}
func (r *stubProductRepo) UpdatePosRef(_ context.Context, _, id uuid.UUID, systemID string, ref model.PosRef) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.PosRefs = model.WithPosRef(p.PosRefs, systemID, ref)
	return nil
}

func (r *stubProductRepo) Create(context.Context, *model.Product) error { return nil }
func (r *stubProductRepo) List(context.Context, uuid.UUID, dto.ProductFilter) ([]model.Product, int64, error) {
	return nil, 0, nil
}
func (r *stubProductRepo) Update(context.Context, *model.Product) error { return nil }
func (r *stubProductRepo) Deactivate(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (r *stubProductRepo) FindByCatalogNumbers(context.Context, uuid.UUID, []string) ([]model.Product, error) {
	return nil, nil
}
func (r *stubProductRepo) FindByBarcodes(context.Context, uuid.UUID, []string) ([]model.Product, error) {
	return nil, nil
}
func (r *stubProductRepo) FindByIDs(context.Context, uuid.UUID, []uuid.UUID) ([]model.Product, error) {
	return nil, nil
}
func (r *stubProductRepo) FindByIDTx(*gorm.DB, uuid.UUID, uuid.UUID) (*model.Product, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubProductRepo) CreateTx(*gorm.DB, *model.Product) error { return nil }
func (r *stubProductRepo) SaveTx(*gorm.DB, *model.Product) error { return nil }

type stubDocumentRepo struct {
	docs map[uuid.UUID]*model.Document
}

func (r *stubDocumentRepo) FindByID(_ context.Context, _, id uuid.UUID) (*model.Document, error) {
	d, ok := r.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *d
	return &clone, nil
}
func (r *stubDocumentRepo) UpdateSyncStatus(_ context.Context, _, id uuid.UUID, status model.SyncStatus) error {
	d, ok := r.docs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.SyncStatus = datatypes.NewJSONType(status)
	return nil
}
func (r *stubDocumentRepo) UpdatePosRef(_ context.Context, _, id uuid.UUID, systemID string, ref model.PosRef) error {
	d, ok := r.docs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	d.PosRefs = model.WithPosRef(d.PosRefs, systemID, ref)
	return nil
}

func (r *stubDocumentRepo) Create(context.Context, *model.Document) error { return nil }
func (r *stubDocumentRepo) List(context.Context, uuid.UUID, dto.DocumentFilter) ([]model.Document, int64, error) {
	return nil, 0, nil
}
func (r *stubDocumentRepo) Archive(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (r *stubDocumentRepo) ListOpenDeliveryNotes(context.Context, uuid.UUID, uuid.UUID) ([]model.Document, error) {
	return nil, nil
}
func (r *stubDocumentRepo) ListUnpaidInvoices(context.Context, uuid.UUID, uuid.UUID) ([]model.Document, error) {
	return nil, nil
}
func (r *stubDocumentRepo) FindByIDTx(*gorm.DB, uuid.UUID, uuid.UUID) (*model.Document, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubDocumentRepo) CreateTx(*gorm.DB, *model.Document) error { return nil }
func (r *stubDocumentRepo) SaveTx(*gorm.DB, *model.Document) error { return nil }
func (r *stubDocumentRepo) UpdatePaymentStatusTx(*gorm.DB, uuid.UUID, uuid.UUID, string) error {
	return nil
}
func (r *stubDocumentRepo) SetLinkedInvoiceTx(*gorm.DB, uuid.UUID, uuid.UUID, uuid.UUID) error {
	return nil
}

// ── Fake adapters ────────────────────────────────────────────────────────────

// fakeAdapter succeeds on every call and counts them.
type fakeAdapter struct {
	systemID      string
	supplierCalls int
	productCalls  int
	expenseCalls  int
	failAll       bool
	panicOnUpsert bool
}

func (a *fakeAdapter) SystemID() string { return a.systemID }
func (a *fakeAdapter) TestConnection(context.Context) error {
	if a.failAll {
		return errors.New("auth failed")
	}
	return nil
}
func (a *fakeAdapter) UpsertSupplier(_ context.Context, s *model.Supplier) (string, error) {
	if a.panicOnUpsert {
		panic("adapter exploded")
	}
	if a.failAll {
		return "", errors.New("supplier rejected")
	}
	a.supplierCalls++
	return "ext-sup-1", nil
}
func (a *fakeAdapter) UpsertProduct(_ context.Context, p *model.Product) (string, error) {
	if a.failAll {
		return "", errors.New("product rejected")
	}
	a.productCalls++
	return "ext-prod-" + p.CatalogNumber, nil
}
func (a *fakeAdapter) CreateExpenseDocument(_ context.Context, _ *model.Document, _ string) (string, error) {
	if a.failAll {
		return "", errors.New("document rejected")
	}
	a.expenseCalls++
	return "ext-doc-1", nil
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type relayFixture struct {
	userID    uuid.UUID
	settings  *stubSettingsRepo
	suppliers *stubSupplierRepo
	products  *stubProductRepo
	documents *stubDocumentRepo
	relay     *Relay
	adapter   *fakeAdapter
}

func newRelayFixture(configured bool) *relayFixture {
	f := &relayFixture{
		userID:    uuid.New(),
		settings:  &stubSettingsRepo{},
		suppliers: &stubSupplierRepo{suppliers: make(map[uuid.UUID]*model.Supplier)},
		products:  &stubProductRepo{products: make(map[uuid.UUID]*model.Product)},
		documents: &stubDocumentRepo{docs: make(map[uuid.UUID]*model.Document)},
		adapter:   &fakeAdapter{systemID: SystemCaspit},
	}
	if configured {
		f.settings.settings = &model.PosSettings{
			UserID:   f.userID,
			SystemID: SystemCaspit,
		}
	}
	f.relay = NewRelay(f.settings, f.suppliers, f.products, f.documents, nil)
	f.relay.newAdapter = func(Config) (Adapter, error) { return f.adapter, nil }
	return f
}

func (f *relayFixture) seedDocument(docType string) *model.Document {
	supID := uuid.New()
	f.suppliers.suppliers[supID] = &model.Supplier{ID: supID, UserID: f.userID, Name: "Acme"}

	prodID := uuid.New()
	f.products.products[prodID] = &model.Product{
		ID: prodID, UserID: f.userID, Name: "Thing", CatalogNumber: "T-1",
		UnitPrice: decimal.NewFromInt(10),
	}

	docID := uuid.New()
	f.documents.docs[docID] = &model.Document{
		ID:           docID,
		UserID:       f.userID,
		DocumentType: docType,
		SupplierID:   &supID,
		SupplierName: "Acme",
		Status:       model.DocStatusCompleted,
		Date:         time.Now(),
		TotalAmount:  decimal.NewFromInt(10),
		LineItems: []model.DocumentLineItem{
			{ID: uuid.New(), DocumentID: docID, ProductID: &prodID, Name: "Thing", Quantity: 1,
				UnitPrice: decimal.NewFromInt(10), TotalPrice: decimal.NewFromInt(10)},
		},
	}
	return f.documents.docs[docID]
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestRelayUnconfiguredIsNoOp(t *testing.T) {
	f := newRelayFixture(false)
	doc := f.seedDocument(model.DocTypeInvoice)

	require.NoError(t, f.relay.Sync(context.Background(), f.userID, doc.ID))

	// Nothing was touched: no sync status, no external references.
	assert.Equal(t, model.SyncStatus{}, f.documents.docs[doc.ID].SyncStatus.Data())
	assert.Zero(t, f.adapter.supplierCalls)
}

func TestRelaySuccess(t *testing.T) {
	f := newRelayFixture(true)
	doc := f.seedDocument(model.DocTypeInvoice)

	require.NoError(t, f.relay.Sync(context.Background(), f.userID, doc.ID))

	assert.Equal(t, 1, f.adapter.supplierCalls)
	assert.Equal(t, 1, f.adapter.productCalls)
	assert.Equal(t, 1, f.adapter.expenseCalls)

	// External references recorded on every pushed entity.
	sup := f.suppliers.suppliers[*doc.SupplierID]
	_, ok := model.PosRefOf(sup.PosRefs, SystemCaspit)
	assert.True(t, ok)

	stored := f.documents.docs[doc.ID]
	ref, ok := model.PosRefOf(stored.PosRefs, SystemCaspit)
	require.True(t, ok)
	assert.Equal(t, "ext-doc-1", ref.ExternalID)
	assert.Equal(t, model.SyncSuccess, stored.SyncStatus.Data().Status)
}

func TestRelayDeliveryNoteSkipsExpense(t *testing.T) {
	f := newRelayFixture(true)
	doc := f.seedDocument(model.DocTypeDeliveryNote)

	require.NoError(t, f.relay.Sync(context.Background(), f.userID, doc.ID))

	// Supplier and product still sync; the document itself does not.
	assert.Equal(t, 1, f.adapter.supplierCalls)
	assert.Zero(t, f.adapter.expenseCalls)
	assert.Equal(t, model.SyncSuccess, f.documents.docs[doc.ID].SyncStatus.Data().Status)
}

func TestRelayFailureIsIsolated(t *testing.T) {
	f := newRelayFixture(true)
	f.adapter.failAll = true
	doc := f.seedDocument(model.DocTypeInvoice)

	err := f.relay.Sync(context.Background(), f.userID, doc.ID)
	require.Error(t, err)

	// The committed document is untouched except for its sync status.
	stored := f.documents.docs[doc.ID]
	assert.Equal(t, model.DocStatusCompleted, stored.Status)
	sync := stored.SyncStatus.Data()
	assert.Equal(t, model.SyncError, sync.Status)
	require.NotNil(t, sync.Error)
	assert.Contains(t, *sync.Error, "supplier rejected")
	assert.NotNil(t, sync.LastSyncedAt)

	// No partial references were stored.
	_, ok := model.PosRefOf(stored.PosRefs, SystemCaspit)
	assert.False(t, ok)
}

func TestRelaySettingsLoadFailureRecorded(t *testing.T) {
	f := newRelayFixture(true)
	f.settings.getErr = errors.New("connection reset")
	doc := f.seedDocument(model.DocTypeInvoice)

	err := f.relay.Sync(context.Background(), f.userID, doc.ID)
	require.Error(t, err)

	// A real store error is not "unconfigured": the document must not stay
	// permanently pending.
	sync := f.documents.docs[doc.ID].SyncStatus.Data()
	assert.Equal(t, model.SyncError, sync.Status)
	require.NotNil(t, sync.Error)
	assert.Contains(t, *sync.Error, "connection reset")
}

func TestRelayRecoversFromPanic(t *testing.T) {
	f := newRelayFixture(true)
	f.adapter.panicOnUpsert = true
	doc := f.seedDocument(model.DocTypeInvoice)

	err := f.relay.Sync(context.Background(), f.userID, doc.ID)
	require.Error(t, err)

	sync := f.documents.docs[doc.ID].SyncStatus.Data()
	assert.Equal(t, model.SyncError, sync.Status)
	require.NotNil(t, sync.Error)
	assert.Contains(t, *sync.Error, "panic")
}

func TestRelayNoExpenseCapability(t *testing.T) {
	f := newRelayFixture(true)
	doc := f.seedDocument(model.DocTypeInvoice)

	// An adapter without ExpenseCreator syncs entities and skips the
	// document step without failing.
	f.relay.newAdapter = func(Config) (Adapter, error) {
		return &entityOnlyAdapter{inner: f.adapter}, nil
	}

	require.NoError(t, f.relay.Sync(context.Background(), f.userID, doc.ID))
	assert.Equal(t, model.SyncSuccess, f.documents.docs[doc.ID].SyncStatus.Data().Status)
	_, ok := model.PosRefOf(f.documents.docs[doc.ID].PosRefs, SystemCaspit)
	assert.False(t, ok)
}

// entityOnlyAdapter wraps fakeAdapter without promoting CreateExpenseDocument,
// so the relay's capability assertion fails for it.
type entityOnlyAdapter struct {
	inner *fakeAdapter
}

func (a *entityOnlyAdapter) SystemID() string { return a.inner.SystemID() }
func (a *entityOnlyAdapter) TestConnection(ctx context.Context) error {
	return a.inner.TestConnection(ctx)
}
func (a *entityOnlyAdapter) UpsertSupplier(ctx context.Context, s *model.Supplier) (string, error) {
	return a.inner.UpsertSupplier(ctx, s)
}
func (a *entityOnlyAdapter) UpsertProduct(ctx context.Context, p *model.Product) (string, error) {
	return a.inner.UpsertProduct(ctx, p)
}
