package service

import (
	"context"

	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/model"
	"github.com/omrysinwany/InvoTrack/internal/repository"

	"github.com/google/uuid"
)

// DocumentService exposes document reads and archival. Documents are written
// exclusively by the finalizer; there is no direct create or update surface.
type DocumentService interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*dto.DocumentResponse, error)
	List(ctx context.Context, userID uuid.UUID, filter dto.DocumentFilter) (*dto.DocumentListResponse, error)
	Archive(ctx context.Context, userID, id uuid.UUID) error
}

type documentService struct {
	repo repository.DocumentRepository
}

func NewDocumentService(repo repository.DocumentRepository) DocumentService {
	return &documentService{repo: repo}
}

func (s *documentService) Get(ctx context.Context, userID, id uuid.UUID) (*dto.DocumentResponse, error) {
	d, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(d)
	return &resp, nil
}

func (s *documentService) List(ctx context.Context, userID uuid.UUID, filter dto.DocumentFilter) (*dto.DocumentListResponse, error) {
	docs, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.DocumentListResponse{
		Data:  make([]dto.DocumentResponse, len(docs)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range docs {
		resp.Data[i] = ToDocumentResponse(&docs[i])
	}
	return resp, nil
}

func (s *documentService) Archive(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Archive(ctx, userID, id)
}

func ToDocumentResponse(d *model.Document) dto.DocumentResponse {
	resp := dto.DocumentResponse{
		ID:                    d.ID.String(),
		DocumentType:          d.DocumentType,
		SupplierName:          d.SupplierName,
		InvoiceNumber:         d.InvoiceNumber,
		Date:                  d.Date,
		DueDate:               d.DueDate,
		TotalAmount:           d.TotalAmount,
		Status:                d.Status,
		PaymentStatus:         d.PaymentStatus,
		LinkedDeliveryNoteIDs: d.LinkedDeliveryNoteIDs,
		PosRefs:               toPosRefResponses(d.PosRefs),
		CreatedAt:             d.CreatedAt,
	}
	if d.SupplierID != nil {
		id := d.SupplierID.String()
		resp.SupplierID = &id
	}
	if d.LinkedInvoiceID != nil {
		id := d.LinkedInvoiceID.String()
		resp.LinkedInvoiceID = &id
	}

	sync := d.SyncStatus.Data()
	resp.SyncStatus = dto.SyncStatusResponse{
		Status:       sync.Status,
		Error:        sync.Error,
		LastSyncedAt: sync.LastSyncedAt,
	}
	if resp.SyncStatus.Status == "" {
		resp.SyncStatus.Status = model.SyncPending
	}

	resp.LineItems = make([]dto.LineItemResponse, len(d.LineItems))
	for i, li := range d.LineItems {
		item := dto.LineItemResponse{
			Name:          li.Name,
			CatalogNumber: li.CatalogNumber,
			Barcode:       li.Barcode,
			Quantity:      li.Quantity,
			UnitPrice:     li.UnitPrice,
			TotalPrice:    li.TotalPrice,
		}
		if li.ProductID != nil {
			id := li.ProductID.String()
			item.ProductID = &id
		}
		resp.LineItems[i] = item
	}
	return resp
}
