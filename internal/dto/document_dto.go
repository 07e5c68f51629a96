package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type DocumentFilter struct {
	DocumentType  string `form:"document_type"`
	SupplierID    string `form:"supplier_id"`
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
	Page          int    `form:"page,default=1"`
	Limit         int    `form:"limit,default=50"`
}

type LineItemResponse struct {
	ProductID     *string         `json:"product_id,omitempty"`
	Name          string          `json:"name"`
	CatalogNumber string          `json:"catalog_number"`
	Barcode       string          `json:"barcode"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

type SyncStatusResponse struct {
	Status       string     `json:"status"`
	Error        *string    `json:"error,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

type DocumentResponse struct {
	ID                    string                    `json:"id"`
	DocumentType          string                    `json:"document_type"`
	SupplierID            *string                   `json:"supplier_id,omitempty"`
	SupplierName          string                    `json:"supplier_name"`
	InvoiceNumber         *string                   `json:"invoice_number,omitempty"`
	Date                  time.Time                 `json:"date"`
	DueDate               *time.Time                `json:"due_date,omitempty"`
	TotalAmount           decimal.Decimal           `json:"total_amount"`
	Status                string                    `json:"status"`
	PaymentStatus         string                    `json:"payment_status"`
	LinkedInvoiceID       *string                   `json:"linked_invoice_id,omitempty"`
	LinkedDeliveryNoteIDs []string                  `json:"linked_delivery_note_ids,omitempty"`
	SyncStatus            SyncStatusResponse        `json:"sync_status"`
	PosRefs               map[string]PosRefResponse `json:"pos_refs,omitempty"`
	LineItems             []LineItemResponse        `json:"line_items"`
	CreatedAt             time.Time                 `json:"created_at"`
}

type DocumentListResponse struct {
	Data  []DocumentResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
