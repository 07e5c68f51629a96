package service

// In-memory repository stubs plus a snapshotting transaction manager. The
// fake TxManager copies every stub's state before running the transaction fn
// and restores it when the fn fails, which lets the finalizer tests assert
// all-or-nothing behavior without a database.

import (
	"context"
	"strings"

	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ── Product repository stub ──────────────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product

	// catalogCalls records each FindByCatalogNumbers key slice, so tests can
	// assert batching behavior.
	catalogCalls [][]string
	barcodeCalls [][]string

	createTxErr error
	saveTxErr   error
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) add(p model.Product) *model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = &p
	return &p
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	clone := *p
	r.products[p.ID] = &clone
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, userID, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok || p.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProductRepo) List(_ context.Context, userID uuid.UUID, _ dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	clone := *p
	r.products[p.ID] = &clone
	return nil
}

func (r *stubProductRepo) Deactivate(_ context.Context, userID, id uuid.UUID) error {
	p, ok := r.products[id]
	if !ok || p.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	p.IsActive = false
	return nil
}

func (r *stubProductRepo) FindByCatalogNumbers(_ context.Context, userID uuid.UUID, numbers []string) ([]model.Product, error) {
	r.catalogCalls = append(r.catalogCalls, numbers)
	var out []model.Product
	for _, p := range r.products {
		if p.UserID != userID {
			continue
		}
		for _, n := range numbers {
			if p.CatalogNumber == n {
				out = append(out, *p)
			}
		}
	}
	return out, nil
}

func (r *stubProductRepo) FindByBarcodes(_ context.Context, userID uuid.UUID, barcodes []string) ([]model.Product, error) {
	r.barcodeCalls = append(r.barcodeCalls, barcodes)
	var out []model.Product
	for _, p := range r.products {
		if p.UserID != userID {
			continue
		}
		for _, b := range barcodes {
			if p.Barcode == b {
				out = append(out, *p)
			}
		}
	}
	return out, nil
}

func (r *stubProductRepo) FindByIDs(_ context.Context, userID uuid.UUID, ids []uuid.UUID) ([]model.Product, error) {
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok && p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, userID, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), userID, id)
}

func (r *stubProductRepo) CreateTx(_ *gorm.DB, p *model.Product) error {
	if r.createTxErr != nil {
		return r.createTxErr
	}
	clone := *p
	r.products[p.ID] = &clone
	return nil
}

func (r *stubProductRepo) SaveTx(_ *gorm.DB, p *model.Product) error {
	if r.saveTxErr != nil {
		return r.saveTxErr
	}
	clone := *p
	r.products[p.ID] = &clone
	return nil
}

func (r *stubProductRepo) UpdatePosRef(_ context.Context, userID, id uuid.UUID, systemID string, ref model.PosRef) error {
	p, ok := r.products[id]
	if !ok || p.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	p.PosRefs = model.WithPosRef(p.PosRefs, systemID, ref)
	return nil
}

func (r *stubProductRepo) snapshot() map[uuid.UUID]*model.Product {
	snap := make(map[uuid.UUID]*model.Product, len(r.products))
	for id, p := range r.products {
		clone := *p
		snap[id] = &clone
	}
	return snap
}

// ── Supplier repository stub ─────────────────────────────────────────────────

type stubSupplierRepo struct {
	suppliers map[uuid.UUID]*model.Supplier

	listErr   error
	saveTxErr error
}

func newStubSupplierRepo() *stubSupplierRepo {
	return &stubSupplierRepo{suppliers: make(map[uuid.UUID]*model.Supplier)}
}

func (r *stubSupplierRepo) add(s model.Supplier) *model.Supplier {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.suppliers[s.ID] = &s
	return &s
}

func (r *stubSupplierRepo) Create(_ context.Context, s *model.Supplier) error {
	clone := *s
	r.suppliers[s.ID] = &clone
	return nil
}

func (r *stubSupplierRepo) FindByID(_ context.Context, userID, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok || s.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubSupplierRepo) FindByTaxID(_ context.Context, userID uuid.UUID, taxID string) (*model.Supplier, error) {
	for _, s := range r.suppliers {
		if s.UserID == userID && s.TaxID != nil && *s.TaxID == taxID {
			clone := *s
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSupplierRepo) FindByName(_ context.Context, userID uuid.UUID, name string) (*model.Supplier, error) {
	for _, s := range r.suppliers {
		if s.UserID == userID && strings.EqualFold(s.Name, name) {
			clone := *s
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSupplierRepo) List(_ context.Context, userID uuid.UUID) ([]model.Supplier, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []model.Supplier
	for _, s := range r.suppliers {
		if s.UserID == userID && s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSupplierRepo) Update(_ context.Context, s *model.Supplier) error {
	clone := *s
	r.suppliers[s.ID] = &clone
	return nil
}

func (r *stubSupplierRepo) Deactivate(_ context.Context, userID, id uuid.UUID) error {
	s, ok := r.suppliers[id]
	if !ok || s.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	s.IsActive = false
	return nil
}

func (r *stubSupplierRepo) FindByIDTx(_ *gorm.DB, userID, id uuid.UUID) (*model.Supplier, error) {
	return r.FindByID(context.Background(), userID, id)
}

func (r *stubSupplierRepo) FindByNameTx(_ *gorm.DB, userID uuid.UUID, name string) (*model.Supplier, error) {
	return r.FindByName(context.Background(), userID, name)
}

func (r *stubSupplierRepo) CreateTx(_ *gorm.DB, s *model.Supplier) error {
	clone := *s
	r.suppliers[s.ID] = &clone
	return nil
}

func (r *stubSupplierRepo) SaveTx(_ *gorm.DB, s *model.Supplier) error {
	if r.saveTxErr != nil {
		return r.saveTxErr
	}
	clone := *s
	r.suppliers[s.ID] = &clone
	return nil
}

func (r *stubSupplierRepo) UpdatePosRef(_ context.Context, userID, id uuid.UUID, systemID string, ref model.PosRef) error {
	s, ok := r.suppliers[id]
	if !ok || s.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	s.PosRefs = model.WithPosRef(s.PosRefs, systemID, ref)
	return nil
}

func (r *stubSupplierRepo) snapshot() map[uuid.UUID]*model.Supplier {
	snap := make(map[uuid.UUID]*model.Supplier, len(r.suppliers))
	for id, s := range r.suppliers {
		clone := *s
		snap[id] = &clone
	}
	return snap
}

// ── Document repository stub ─────────────────────────────────────────────────

type stubDocumentRepo struct {
	docs map[uuid.UUID]*model.Document

	createTxErr     error
	deliveryNoteErr error
	unpaidErr       error
}

func newStubDocumentRepo() *stubDocumentRepo {
	return &stubDocumentRepo{docs: make(map[uuid.UUID]*model.Document)}
}

func (r *stubDocumentRepo) add(d model.Document) *model.Document {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.docs[d.ID] = &d
	return &d
}

func (r *stubDocumentRepo) Create(_ context.Context, d *model.Document) error {
	clone := *d
	r.docs[d.ID] = &clone
	return nil
}

func (r *stubDocumentRepo) FindByID(_ context.Context, userID, id uuid.UUID) (*model.Document, error) {
	d, ok := r.docs[id]
	if !ok || d.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *d
	return &clone, nil
}

func (r *stubDocumentRepo) List(_ context.Context, userID uuid.UUID, _ dto.DocumentFilter) ([]model.Document, int64, error) {
	var out []model.Document
	for _, d := range r.docs {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubDocumentRepo) Archive(_ context.Context, userID, id uuid.UUID) error {
	d, ok := r.docs[id]
	if !ok || d.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	d.Status = model.DocStatusArchived
	return nil
}

func (r *stubDocumentRepo) ListOpenDeliveryNotes(_ context.Context, userID, supplierID uuid.UUID) ([]model.Document, error) {
	if r.deliveryNoteErr != nil {
		return nil, r.deliveryNoteErr
	}
	var out []model.Document
	for _, d := range r.docs {
		if d.UserID == userID && d.SupplierID != nil && *d.SupplierID == supplierID &&
			d.DocumentType == model.DocTypeDeliveryNote &&
			d.Status == model.DocStatusCompleted &&
			d.PaymentStatus != model.PaymentLinked {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *stubDocumentRepo) ListUnpaidInvoices(_ context.Context, userID, supplierID uuid.UUID) ([]model.Document, error) {
	if r.unpaidErr != nil {
		return nil, r.unpaidErr
	}
	var out []model.Document
	for _, d := range r.docs {
		if d.UserID != userID || d.SupplierID == nil || *d.SupplierID != supplierID {
			continue
		}
		switch d.PaymentStatus {
		case model.PaymentUnpaid, model.PaymentPending, model.PaymentPartiallyPaid:
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r *stubDocumentRepo) FindByIDTx(_ *gorm.DB, userID, id uuid.UUID) (*model.Document, error) {
	return r.FindByID(context.Background(), userID, id)
}

func (r *stubDocumentRepo) CreateTx(_ *gorm.DB, d *model.Document) error {
	if r.createTxErr != nil {
		return r.createTxErr
	}
	clone := *d
	r.docs[d.ID] = &clone
	return nil
}

func (r *stubDocumentRepo) SaveTx(_ *gorm.DB, d *model.Document) error {
	clone := *d
	r.docs[d.ID] = &clone
	return nil
}

func (r *stubDocumentRepo) UpdatePaymentStatusTx(_ *gorm.DB, userID, id uuid.UUID, paymentStatus string) error {
	d, ok := r.docs[id]
	if !ok || d.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	d.PaymentStatus = paymentStatus
	return nil
}

func (r *stubDocumentRepo) SetLinkedInvoiceTx(_ *gorm.DB, userID, id, invoiceID uuid.UUID) error {
	d, ok := r.docs[id]
	if !ok || d.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	d.LinkedInvoiceID = &invoiceID
	d.PaymentStatus = model.PaymentLinked
	return nil
}

func (r *stubDocumentRepo) UpdateSyncStatus(_ context.Context, userID, id uuid.UUID, status model.SyncStatus) error {
	d, ok := r.docs[id]
	if !ok || d.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	d.SyncStatus = datatypes.NewJSONType(status)
	return nil
}

func (r *stubDocumentRepo) UpdatePosRef(_ context.Context, userID, id uuid.UUID, systemID string, ref model.PosRef) error {
	d, ok := r.docs[id]
	if !ok || d.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	d.PosRefs = model.WithPosRef(d.PosRefs, systemID, ref)
	return nil
}

func (r *stubDocumentRepo) snapshot() map[uuid.UUID]*model.Document {
	snap := make(map[uuid.UUID]*model.Document, len(r.docs))
	for id, d := range r.docs {
		clone := *d
		snap[id] = &clone
	}
	return snap
}

// ── Snapshotting transaction manager ─────────────────────────────────────────

type fakeTxManager struct {
	products  *stubProductRepo
	suppliers *stubSupplierRepo
	documents *stubDocumentRepo
}

func (m *fakeTxManager) Transaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	productSnap := m.products.snapshot()
	supplierSnap := m.suppliers.snapshot()
	documentSnap := m.documents.snapshot()

	if err := fn(nil); err != nil {
		m.products.products = productSnap
		m.suppliers.suppliers = supplierSnap
		m.documents.docs = documentSnap
		return err
	}
	return nil
}
