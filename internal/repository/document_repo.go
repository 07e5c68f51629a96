package repository

import (
	"context"

	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, d *model.Document) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Document, error)
	List(ctx context.Context, userID uuid.UUID, filter dto.DocumentFilter) ([]model.Document, int64, error)
	Archive(ctx context.Context, userID, id uuid.UUID) error

	// Link candidates for the resolution flow's prompt steps.
	ListOpenDeliveryNotes(ctx context.Context, userID, supplierID uuid.UUID) ([]model.Document, error)
	ListUnpaidInvoices(ctx context.Context, userID, supplierID uuid.UUID) ([]model.Document, error)

	// Used inside transactions — callers must pass the tx instance
	FindByIDTx(tx *gorm.DB, userID, id uuid.UUID) (*model.Document, error)
	CreateTx(tx *gorm.DB, d *model.Document) error
	SaveTx(tx *gorm.DB, d *model.Document) error
	UpdatePaymentStatusTx(tx *gorm.DB, userID, id uuid.UUID, paymentStatus string) error
	SetLinkedInvoiceTx(tx *gorm.DB, userID, id, invoiceID uuid.UUID) error

	// Relay bookkeeping. Runs after the commit, never inside a transaction.
	UpdateSyncStatus(ctx context.Context, userID, id uuid.UUID, status model.SyncStatus) error
	UpdatePosRef(ctx context.Context, userID, id uuid.UUID, systemID string, ref model.PosRef) error
}

type documentRepo struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) DocumentRepository { return &documentRepo{db: db} }

func (r *documentRepo) Create(ctx context.Context, d *model.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *documentRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Document, error) {
	var d model.Document
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("user_id = ?", userID).
		First(&d, id).Error
	return &d, err
}

func (r *documentRepo) List(ctx context.Context, userID uuid.UUID, filter dto.DocumentFilter) ([]model.Document, int64, error) {
	var docs []model.Document
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Document{}).Where("user_id = ?", userID)

	if filter.DocumentType != "" {
		q = q.Where("document_type = ?", filter.DocumentType)
	}
	if filter.SupplierID != "" {
		q = q.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("LineItems").
		Order("date DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&docs).Error
	return docs, total, err
}

func (r *documentRepo) Archive(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Document{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("status", model.DocStatusArchived).Error
}

func (r *documentRepo) ListOpenDeliveryNotes(ctx context.Context, userID, supplierID uuid.UUID) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND supplier_id = ? AND document_type = ? AND status = ? AND payment_status <> ?",
			userID, supplierID, model.DocTypeDeliveryNote, model.DocStatusCompleted, model.PaymentLinked).
		Order("date DESC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepo) ListUnpaidInvoices(ctx context.Context, userID, supplierID uuid.UUID) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND supplier_id = ? AND document_type = ? AND status = ? AND payment_status IN ?",
			userID, supplierID, model.DocTypeInvoice, model.DocStatusCompleted,
			[]string{model.PaymentUnpaid, model.PaymentPending, model.PaymentPartiallyPaid}).
		Order("date DESC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepo) FindByIDTx(tx *gorm.DB, userID, id uuid.UUID) (*model.Document, error) {
	var d model.Document
	err := tx.Preload("LineItems").Where("user_id = ?", userID).First(&d, id).Error
	return &d, err
}

func (r *documentRepo) CreateTx(tx *gorm.DB, d *model.Document) error {
	return tx.Create(d).Error
}

func (r *documentRepo) SaveTx(tx *gorm.DB, d *model.Document) error {
	return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(d).Error
}

func (r *documentRepo) UpdatePaymentStatusTx(tx *gorm.DB, userID, id uuid.UUID, paymentStatus string) error {
	return tx.Model(&model.Document{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("payment_status", paymentStatus).Error
}

func (r *documentRepo) SetLinkedInvoiceTx(tx *gorm.DB, userID, id, invoiceID uuid.UUID) error {
	return tx.Model(&model.Document{}).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(map[string]interface{}{
			"linked_invoice_id": invoiceID,
			"payment_status":    model.PaymentLinked,
		}).Error
}

func (r *documentRepo) UpdateSyncStatus(ctx context.Context, userID, id uuid.UUID, status model.SyncStatus) error {
	return r.db.WithContext(ctx).Model(&model.Document{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("sync_status", datatypes.NewJSONType(status)).Error
}

func (r *documentRepo) UpdatePosRef(ctx context.Context, userID, id uuid.UUID, systemID string, ref model.PosRef) error {
	var d model.Document
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&d, id).Error; err != nil {
		return err
	}
	d.PosRefs = model.WithPosRef(d.PosRefs, systemID, ref)
	return r.db.WithContext(ctx).Model(&d).Update("pos_refs", d.PosRefs).Error
}
