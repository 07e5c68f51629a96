package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Supplier aggregates commercial data per vendor. TotalSpent and InvoiceCount
// are updated transactionally on every finalized document.
// (userID, name) uniqueness is a soft constraint: creating a duplicate name
// returns the existing record instead of erroring.
type Supplier struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name   string    `gorm:"index;not null"`
	// TaxID is the business registration number
	TaxID            *string `gorm:"column:tax_id;index"`
	PaymentTerms     *string
	TotalSpent       decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	InvoiceCount     int             `gorm:"not null;default:0"`
	LastActivityDate *time.Time
	IsActive         bool    `gorm:"not null;default:true"`
	PosRefs          PosRefs `gorm:"type:jsonb"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
