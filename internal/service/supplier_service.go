package service

import (
	"context"
	"errors"

	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/model"
	"github.com/omrysinwany/InvoTrack/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupplierService exposes supplier reads plus explicit creation. Creating a
// supplier whose name already exists returns the existing record unchanged —
// names are identity keys, so duplicates are resolved, never erred on.
type SupplierService interface {
	Create(ctx context.Context, userID uuid.UUID, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*dto.SupplierResponse, error)
	List(ctx context.Context, userID uuid.UUID) ([]dto.SupplierResponse, error)
	Deactivate(ctx context.Context, userID, id uuid.UUID) error
}

type supplierService struct {
	repo repository.SupplierRepository
}

func NewSupplierService(repo repository.SupplierRepository) SupplierService {
	return &supplierService{repo: repo}
}

func (s *supplierService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	existing, err := s.repo.FindByName(ctx, userID, req.Name)
	switch {
	case err == nil:
		resp := toSupplierResponse(existing)
		return &resp, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	sup := &model.Supplier{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         req.Name,
		TaxID:        req.TaxID,
		PaymentTerms: req.PaymentTerms,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, sup); err != nil {
		return nil, err
	}
	resp := toSupplierResponse(sup)
	return &resp, nil
}

func (s *supplierService) Get(ctx context.Context, userID, id uuid.UUID) (*dto.SupplierResponse, error) {
	sup, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := toSupplierResponse(sup)
	return &resp, nil
}

func (s *supplierService) List(ctx context.Context, userID uuid.UUID) ([]dto.SupplierResponse, error) {
	suppliers, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.SupplierResponse, len(suppliers))
	for i := range suppliers {
		resp[i] = toSupplierResponse(&suppliers[i])
	}
	return resp, nil
}

func (s *supplierService) Deactivate(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, userID, id)
}

func toSupplierResponse(s *model.Supplier) dto.SupplierResponse {
	return dto.SupplierResponse{
		ID:               s.ID.String(),
		Name:             s.Name,
		TaxID:            s.TaxID,
		PaymentTerms:     s.PaymentTerms,
		TotalSpent:       s.TotalSpent,
		InvoiceCount:     s.InvoiceCount,
		LastActivityDate: s.LastActivityDate,
		IsActive:         s.IsActive,
		PosRefs:          toPosRefResponses(s.PosRefs),
	}
}
