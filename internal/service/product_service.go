package service

import (
	"context"
	"time"

	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/model"
	"github.com/omrysinwany/InvoTrack/internal/repository"

	"github.com/google/uuid"
)

// ProductService exposes read and maintenance operations on inventory.
// Creation happens through the finalizer, never directly: every product
// enters the system via a committed document.
type ProductService interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, userID uuid.UUID, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, userID, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, userID, id uuid.UUID) error
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func (s *productService) Get(ctx context.Context, userID, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) List(ctx context.Context, userID uuid.UUID, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	products, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProductListResponse{
		Data:  make([]dto.ProductResponse, len(products)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range products {
		resp.Data[i] = toProductResponse(&products[i])
	}
	return resp, nil
}

func (s *productService) Update(ctx context.Context, userID, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	p.Name = req.Name
	p.Description = req.Description
	p.CatalogNumber = req.CatalogNumber
	p.Barcode = req.Barcode
	p.UnitPrice = req.UnitPrice
	p.SalePrice = req.SalePrice
	p.Quantity = req.Quantity
	p.MinStockLevel = req.MinStockLevel
	p.LastUpdated = time.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := toProductResponse(p)
	return &resp, nil
}

func (s *productService) Deactivate(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, userID, id)
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Description:   p.Description,
		CatalogNumber: p.CatalogNumber,
		Barcode:       p.Barcode,
		UnitPrice:     p.UnitPrice,
		SalePrice:     p.SalePrice,
		Quantity:      p.Quantity,
		MinStockLevel: p.MinStockLevel,
		IsActive:      p.IsActive,
		PosRefs:       toPosRefResponses(p.PosRefs),
		LastUpdated:   p.LastUpdated,
	}
}

func toPosRefResponses(refs model.PosRefs) map[string]dto.PosRefResponse {
	m := refs.Data()
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]dto.PosRefResponse, len(m))
	for systemID, ref := range m {
		out[systemID] = dto.PosRefResponse{ExternalID: ref.ExternalID, LastSync: ref.LastSync}
	}
	return out
}
