package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omrysinwany/InvoTrack/internal/model"
	"github.com/omrysinwany/InvoTrack/internal/repository"
	"github.com/omrysinwany/InvoTrack/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrMissingSupplierName is a precondition failure raised before any
// transaction opens.
var ErrMissingSupplierName = errors.New("finalize: supplier name is required")

// ErrSupplierGone means the supplier selected earlier in the flow disappeared
// before the transaction could re-validate it. The commit is aborted; callers
// must retry or report — never silently fall back to creating a new supplier.
var ErrSupplierGone = errors.New("finalize: selected supplier no longer exists")

// FinalizeItem is one resolved line item entering the commit, after price
// reconciliation and new-product onboarding.
type FinalizeItem struct {
	// ProductID references an existing inventory record to update; nil means
	// a new record is created.
	ProductID     *uuid.UUID
	Name          string
	Description   *string
	CatalogNumber string
	Barcode       string
	Quantity      int
	UnitPrice     decimal.Decimal
	SalePrice     *decimal.Decimal
	MinStockLevel *int
	TotalPrice    decimal.Decimal
}

// FinalizeInput carries everything the atomic commit needs.
type FinalizeInput struct {
	// DraftDocumentID upgrades an existing pending record instead of
	// creating a new one.
	DraftDocumentID *uuid.UUID
	DocumentType    string
	SupplierID      *uuid.UUID
	SupplierName    string
	SupplierTaxID   *string
	PaymentTerms    string
	InvoiceNumber   *string
	Date            time.Time
	DueDate         *time.Time
	TotalAmount     decimal.Decimal
	Items           []FinalizeItem

	LinkedInvoiceID       *uuid.UUID
	LinkedDeliveryNoteIDs []uuid.UUID
}

// FinalizerService performs the atomic multi-entity commit: supplier
// create-or-update with aggregate counters, inventory upserts, and the
// document write — all-or-nothing. After a successful commit it dispatches
// the POS relay job (fire-and-forget; relay failures never touch the commit).
type FinalizerService struct {
	tx         repository.TxManager
	suppliers  repository.SupplierRepository
	products   repository.ProductRepository
	documents  repository.DocumentRepository
	dispatcher *worker.Dispatcher
}

func NewFinalizerService(
	tx repository.TxManager,
	suppliers repository.SupplierRepository,
	products repository.ProductRepository,
	documents repository.DocumentRepository,
	dispatcher *worker.Dispatcher,
) *FinalizerService {
	return &FinalizerService{
		tx:         tx,
		suppliers:  suppliers,
		products:   products,
		documents:  documents,
		dispatcher: dispatcher,
	}
}

func (s *FinalizerService) Finalize(ctx context.Context, userID uuid.UUID, in FinalizeInput) (*model.Document, error) {
	if in.SupplierName == "" {
		return nil, ErrMissingSupplierName
	}

	var doc *model.Document
	txErr := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		// All reads happen before any write (store read-then-write ordering).
		var draft *model.Document
		if in.DraftDocumentID != nil {
			found, err := s.documents.FindByIDTx(tx, userID, *in.DraftDocumentID)
			if err != nil {
				return fmt.Errorf("finalize: load draft document: %w", err)
			}
			draft = found
		}

		// Supplier state is re-read inside the transaction rather than
		// trusting the pre-transaction snapshot.
		var supplier *model.Supplier
		if in.SupplierID != nil {
			found, err := s.suppliers.FindByIDTx(tx, userID, *in.SupplierID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrSupplierGone
				}
				return err
			}
			supplier = found
		} else {
			found, err := s.suppliers.FindByNameTx(tx, userID, in.SupplierName)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				supplier = nil
			case err != nil:
				return err
			default:
				supplier = found
			}
		}

		now := time.Now()

		// 1. Supplier: increment counters on the existing record or create
		//    one seeded from this document.
		if supplier != nil {
			supplier.TotalSpent = supplier.TotalSpent.Add(in.TotalAmount)
			supplier.InvoiceCount++
			supplier.LastActivityDate = &now
			if in.PaymentTerms != "" {
				terms := in.PaymentTerms
				supplier.PaymentTerms = &terms
			}
			if err := s.suppliers.SaveTx(tx, supplier); err != nil {
				return err
			}
		} else {
			supplier = &model.Supplier{
				ID:               uuid.New(),
				UserID:           userID,
				Name:             in.SupplierName,
				TaxID:            in.SupplierTaxID,
				TotalSpent:       in.TotalAmount,
				InvoiceCount:     1,
				LastActivityDate: &now,
				IsActive:         true,
			}
			if in.PaymentTerms != "" {
				terms := in.PaymentTerms
				supplier.PaymentTerms = &terms
			}
			if err := s.suppliers.CreateTx(tx, supplier); err != nil {
				return err
			}
		}

		// 2. Inventory upserts.
		lineItems := make([]model.DocumentLineItem, 0, len(in.Items))
		for _, item := range in.Items {
			productID, err := s.upsertProduct(tx, userID, item, now)
			if err != nil {
				return err
			}
			lineItems = append(lineItems, model.DocumentLineItem{
				ID:            uuid.New(),
				ProductID:     &productID,
				Name:          item.Name,
				CatalogNumber: item.CatalogNumber,
				Barcode:       item.Barcode,
				Quantity:      item.Quantity,
				UnitPrice:     item.UnitPrice,
				TotalPrice:    item.TotalPrice,
			})
		}

		// 3. Document create-or-upgrade, written last.
		if draft != nil {
			doc = draft
		} else {
			doc = &model.Document{ID: uuid.New(), UserID: userID}
		}
		doc.DocumentType = in.DocumentType
		doc.SupplierID = &supplier.ID
		doc.SupplierName = supplier.Name
		doc.InvoiceNumber = in.InvoiceNumber
		doc.Date = in.Date
		doc.DueDate = in.DueDate
		doc.TotalAmount = in.TotalAmount
		doc.Status = model.DocStatusCompleted
		doc.PaymentStatus = derivePaymentStatus(in.DocumentType)
		doc.LineItems = lineItems
		if in.LinkedInvoiceID != nil {
			doc.LinkedInvoiceID = in.LinkedInvoiceID
		}
		if len(in.LinkedDeliveryNoteIDs) > 0 {
			ids := make([]string, 0, len(in.LinkedDeliveryNoteIDs))
			for _, id := range in.LinkedDeliveryNoteIDs {
				ids = append(ids, id.String())
			}
			doc.LinkedDeliveryNoteIDs = ids
		}

		if draft != nil {
			if err := s.documents.SaveTx(tx, doc); err != nil {
				return err
			}
		} else {
			if err := s.documents.CreateTx(tx, doc); err != nil {
				return err
			}
		}

		// Cross-document links settle in the same transaction.
		for _, noteID := range in.LinkedDeliveryNoteIDs {
			if err := s.documents.SetLinkedInvoiceTx(tx, userID, noteID, doc.ID); err != nil {
				return err
			}
		}
		if in.LinkedInvoiceID != nil && in.DocumentType == model.DocTypeReceipt {
			if err := s.documents.UpdatePaymentStatusTx(tx, userID, *in.LinkedInvoiceID, model.PaymentPaid); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Best-effort POS relay, after the commit. Enqueue failures are logged,
	// never surfaced: sync outcome is observable only via the document's
	// sync status.
	if s.dispatcher != nil {
		payload := worker.PosSyncJobPayload{
			DocumentID: doc.ID.String(),
			UserID:     userID.String(),
		}
		if err := s.dispatcher.EnqueuePosSync(ctx, payload); err != nil {
			log.Warn().Err(err).Str("document_id", doc.ID.String()).Msg("finalize: failed to enqueue pos sync job")
		}
	}

	return doc, nil
}

// upsertProduct updates the referenced inventory record (merge fields, stamp
// LastUpdated, force active) or creates a new one with a fresh id.
func (s *FinalizerService) upsertProduct(tx *gorm.DB, userID uuid.UUID, item FinalizeItem, now time.Time) (uuid.UUID, error) {
	if item.ProductID != nil {
		p, err := s.products.FindByIDTx(tx, userID, *item.ProductID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("finalize: load product %s: %w", item.ProductID, err)
		}
		if item.Name != "" {
			p.Name = item.Name
		}
		if item.Description != nil {
			p.Description = item.Description
		}
		if item.CatalogNumber != "" {
			p.CatalogNumber = item.CatalogNumber
		}
		if item.Barcode != "" {
			p.Barcode = item.Barcode
		}
		p.UnitPrice = item.UnitPrice
		if item.SalePrice != nil {
			p.SalePrice = item.SalePrice
		}
		if item.MinStockLevel != nil {
			p.MinStockLevel = item.MinStockLevel
		}
		p.Quantity += item.Quantity
		p.IsActive = true
		p.LastUpdated = now
		if err := s.products.SaveTx(tx, p); err != nil {
			return uuid.Nil, err
		}
		return p.ID, nil
	}

	p := &model.Product{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          item.Name,
		Description:   item.Description,
		CatalogNumber: item.CatalogNumber,
		Barcode:       item.Barcode,
		UnitPrice:     item.UnitPrice,
		SalePrice:     item.SalePrice,
		Quantity:      item.Quantity,
		MinStockLevel: item.MinStockLevel,
		IsActive:      true,
		LastUpdated:   now,
	}
	if err := s.products.CreateTx(tx, p); err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

// derivePaymentStatus: documents that acknowledge payment are born paid.
func derivePaymentStatus(docType string) string {
	switch docType {
	case model.DocTypeReceipt, model.DocTypeInvoiceReceipt:
		return model.PaymentPaid
	default:
		return model.PaymentUnpaid
	}
}
