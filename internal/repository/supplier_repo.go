package repository

import (
	"context"

	"github.com/omrysinwany/InvoTrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, s *model.Supplier) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Supplier, error)
	FindByTaxID(ctx context.Context, userID uuid.UUID, taxID string) (*model.Supplier, error)
	FindByName(ctx context.Context, userID uuid.UUID, name string) (*model.Supplier, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Supplier, error)
	Update(ctx context.Context, s *model.Supplier) error
	Deactivate(ctx context.Context, userID, id uuid.UUID) error

	// Used inside transactions — callers must pass the tx instance
	FindByIDTx(tx *gorm.DB, userID, id uuid.UUID) (*model.Supplier, error)
	FindByNameTx(tx *gorm.DB, userID uuid.UUID, name string) (*model.Supplier, error)
	CreateTx(tx *gorm.DB, s *model.Supplier) error
	SaveTx(tx *gorm.DB, s *model.Supplier) error

	UpdatePosRef(ctx context.Context, userID, id uuid.UUID, systemID string, ref model.PosRef) error
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepository(db *gorm.DB) SupplierRepository { return &supplierRepo{db: db} }

func (r *supplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *supplierRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s, id).Error
	return &s, err
}

func (r *supplierRepo) FindByTaxID(ctx context.Context, userID uuid.UUID, taxID string) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND tax_id = ? AND is_active = true", userID, taxID).
		First(&s).Error
	return &s, err
}

func (r *supplierRepo) FindByName(ctx context.Context, userID uuid.UUID, name string) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND is_active = true", userID, name).
		First(&s).Error
	return &s, err
}

func (r *supplierRepo) List(ctx context.Context, userID uuid.UUID) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = true", userID).
		Order("name ASC").
		Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepo) Update(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *supplierRepo) Deactivate(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Supplier{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("is_active", false).Error
}

func (r *supplierRepo) FindByIDTx(tx *gorm.DB, userID, id uuid.UUID) (*model.Supplier, error) {
	var s model.Supplier
	err := tx.Where("user_id = ?", userID).First(&s, id).Error
	return &s, err
}

func (r *supplierRepo) FindByNameTx(tx *gorm.DB, userID uuid.UUID, name string) (*model.Supplier, error) {
	var s model.Supplier
	err := tx.Where("user_id = ? AND name = ? AND is_active = true", userID, name).First(&s).Error
	return &s, err
}

func (r *supplierRepo) CreateTx(tx *gorm.DB, s *model.Supplier) error {
	return tx.Create(s).Error
}

func (r *supplierRepo) SaveTx(tx *gorm.DB, s *model.Supplier) error {
	return tx.Save(s).Error
}

func (r *supplierRepo) UpdatePosRef(ctx context.Context, userID, id uuid.UUID, systemID string, ref model.PosRef) error {
	var s model.Supplier
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s, id).Error; err != nil {
		return err
	}
	s.PosRefs = model.WithPosRef(s.PosRefs, systemID, ref)
	return r.db.WithContext(ctx).Model(&s).Update("pos_refs", s.PosRefs).Error
}
