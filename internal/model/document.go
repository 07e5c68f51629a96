package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Document types
const (
	DocTypeInvoice        = "invoice"
	DocTypeDeliveryNote   = "delivery_note"
	DocTypeReceipt        = "receipt"
	DocTypeInvoiceReceipt = "invoice_receipt"
)

// Document lifecycle status
const (
	DocStatusPending   = "pending"
	DocStatusCompleted = "completed"
	DocStatusError     = "error"
	DocStatusArchived  = "archived"
)

// Payment status
const (
	PaymentUnpaid        = "unpaid"
	PaymentPaid          = "paid"
	PaymentPending       = "pending_payment"
	PaymentPartiallyPaid = "partially_paid"
	PaymentLinked        = "linked"
)

// POS relay outcome — independent of the document's lifecycle status.
const (
	SyncPending = "pending"
	SyncSuccess = "success"
	SyncError   = "error"
)

// SyncStatus records the outcome of the last POS relay attempt.
type SyncStatus struct {
	Status       string     `json:"status"` // pending | success | error
	Error        *string    `json:"error,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// IsPayableType reports whether a document type represents a payable expense
// that should be mirrored into the external ledger.
func IsPayableType(docType string) bool {
	switch docType {
	case DocTypeInvoice, DocTypeInvoiceReceipt, DocTypeReceipt:
		return true
	}
	return false
}

// Document is a scanned invoice / delivery note / receipt after intake.
// Line items are an embedded snapshot taken at commit time: once the document
// reaches DocStatusCompleted they are immutable — corrections create a new
// document or an explicit edit, never silent mutation of history.
type Document struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID  `gorm:"type:uuid;index;not null"`
	DocumentType string     `gorm:"type:varchar(30);not null"`
	SupplierID   *uuid.UUID `gorm:"type:uuid;index"`
	// SupplierName is denormalized so lists render without a join.
	SupplierName  string `gorm:"not null"`
	InvoiceNumber *string
	Date          time.Time `gorm:"not null"`
	DueDate       *time.Time
	TotalAmount   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentStatus string          `gorm:"type:varchar(20);not null;default:'unpaid'"`

	// Cross-document links (receipt → invoice, invoice → delivery notes)
	LinkedInvoiceID       *uuid.UUID                  `gorm:"type:uuid"`
	LinkedDeliveryNoteIDs datatypes.JSONSlice[string] `gorm:"type:jsonb"`

	SyncStatus datatypes.JSONType[SyncStatus] `gorm:"type:jsonb"`
	PosRefs    PosRefs                        `gorm:"type:jsonb"`

	LineItems []DocumentLineItem `gorm:"foreignKey:DocumentID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DocumentLineItem is a snapshot of a product at commit time, not a live
// reference. ProductID points at the inventory record that was created or
// updated by the same transaction.
type DocumentLineItem struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	ProductID     *uuid.UUID `gorm:"type:uuid"`
	Name          string     `gorm:"not null"`
	CatalogNumber string
	Barcode       string
	Quantity      int             `gorm:"not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
}
