package repository

import (
	"context"
	"errors"

	"github.com/omrysinwany/InvoTrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PosSettingsRepository interface {
	// Get returns the user's POS configuration, or gorm.ErrRecordNotFound
	// when the relay is not configured (which is not an error condition for
	// callers — it means "no-op").
	Get(ctx context.Context, userID uuid.UUID) (*model.PosSettings, error)
	Upsert(ctx context.Context, s *model.PosSettings) error
}

type posSettingsRepo struct{ db *gorm.DB }

func NewPosSettingsRepository(db *gorm.DB) PosSettingsRepository {
	return &posSettingsRepo{db: db}
}

func (r *posSettingsRepo) Get(ctx context.Context, userID uuid.UUID) (*model.PosSettings, error) {
	var s model.PosSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	return &s, err
}

func (r *posSettingsRepo) Upsert(ctx context.Context, s *model.PosSettings) error {
	existing := &model.PosSettings{}
	err := r.db.WithContext(ctx).Where("user_id = ?", s.UserID).First(existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(s).Error
	case err != nil:
		return err
	default:
		existing.SystemID = s.SystemID
		existing.Credentials = s.Credentials
		return r.db.WithContext(ctx).Save(existing).Error
	}
}
