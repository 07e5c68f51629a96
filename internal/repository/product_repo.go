package repository

import (
	"context"

	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines the data access contract for inventory records.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs. Every query is scoped by user id.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, userID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error)
	Update(ctx context.Context, p *model.Product) error
	Deactivate(ctx context.Context, userID, id uuid.UUID) error

	// Identity-key batch lookups. Callers are responsible for chunking key
	// slices to the store's IN limit before calling.
	FindByCatalogNumbers(ctx context.Context, userID uuid.UUID, numbers []string) ([]model.Product, error)
	FindByBarcodes(ctx context.Context, userID uuid.UUID, barcodes []string) ([]model.Product, error)
	FindByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]model.Product, error)

	// Used inside transactions — callers must pass the tx instance
	FindByIDTx(tx *gorm.DB, userID, id uuid.UUID) (*model.Product, error)
	CreateTx(tx *gorm.DB, p *model.Product) error
	SaveTx(tx *gorm.DB, p *model.Product) error

	// UpdatePosRef persists the external reference returned by a POS adapter.
	UpdatePosRef(ctx context.Context, userID, id uuid.UUID, systemID string, ref model.PosRef) error
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p, id).Error
	return &p, err
}

func (r *productRepo) List(ctx context.Context, userID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("user_id = ?", userID)

	// Active filter: "false" = inactive, "all" = everything, default = active
	switch filter.Active {
	case "false":
		q = q.Where("is_active = false")
	case "all":
		// no filter
	default:
		q = q.Where("is_active = true")
	}

	if filter.CatalogNumber != "" {
		q = q.Where("catalog_number = ?", filter.CatalogNumber)
	}
	if filter.Barcode != "" {
		q = q.Where("barcode = ?", filter.Barcode)
	}
	if filter.Search != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) Deactivate(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("is_active", false).Error
}

func (r *productRepo) FindByCatalogNumbers(ctx context.Context, userID uuid.UUID, numbers []string) ([]model.Product, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND catalog_number IN ?", userID, numbers).
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindByBarcodes(ctx context.Context, userID uuid.UUID, barcodes []string) ([]model.Product, error) {
	if len(barcodes) == 0 {
		return nil, nil
	}
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND barcode IN ?", userID, barcodes).
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, userID, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.Where("user_id = ?", userID).First(&p, id).Error
	return &p, err
}

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Create(p).Error
}

func (r *productRepo) SaveTx(tx *gorm.DB, p *model.Product) error {
	return tx.Save(p).Error
}

func (r *productRepo) UpdatePosRef(ctx context.Context, userID, id uuid.UUID, systemID string, ref model.PosRef) error {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p, id).Error; err != nil {
		return err
	}
	p.PosRefs = model.WithPosRef(p.PosRefs, systemID, ref)
	return r.db.WithContext(ctx).Model(&p).Update("pos_refs", p.PosRefs).Error
}
