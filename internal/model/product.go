package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is an inventory record, created on the first sighting of a
// fingerprint (catalog number / barcode) and only updated afterwards.
// Soft-deactivated via IsActive=false, never hard-deleted while historical
// documents reference it.
type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID        uuid.UUID `gorm:"type:uuid;index;not null"`
	Name          string    `gorm:"index;not null"`
	Description   *string
	CatalogNumber string           `gorm:"index"`
	Barcode       string           `gorm:"index"`
	UnitPrice     decimal.Decimal  `gorm:"type:decimal(12,3);not null"`
	SalePrice     *decimal.Decimal `gorm:"type:decimal(12,3)"`
	Quantity      int              `gorm:"not null;default:0"`
	MinStockLevel *int
	IsActive      bool `gorm:"not null;default:true"`
	// PosRefs maps external system id → external record reference.
	PosRefs     PosRefs `gorm:"type:jsonb"`
	LastUpdated time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
