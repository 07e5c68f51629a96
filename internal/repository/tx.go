package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxManager abstracts the store's transaction primitive. Services run
// multi-entity commits through it; unit tests substitute a snapshotting fake
// so atomicity can be verified without a database.
type TxManager interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxManager struct{ db *gorm.DB }

func NewTxManager(db *gorm.DB) TxManager { return &gormTxManager{db: db} }

func (m *gormTxManager) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}
