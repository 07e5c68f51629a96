package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtractionResult is the best-effort structured guess the AI sidecar produces
// from a scanned image. Every value is an untrusted hint that must be
// confirmed through the resolution flow before anything is persisted.
type ExtractionResult struct {
	DocumentType string            `json:"document_type"`
	Supplier     ExtractedSupplier `json:"supplier"`
	// SupplierID is set when the sidecar could independently resolve a known
	// supplier by tax id.
	SupplierID    *string             `json:"supplier_id,omitempty"`
	InvoiceNumber *string             `json:"invoice_number,omitempty"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Date          *time.Time          `json:"date,omitempty"`
	PaymentMethod *string             `json:"payment_method,omitempty"`
	LineItems     []ExtractedLineItem `json:"line_items"`
}

type ExtractedSupplier struct {
	Name  string  `json:"name"`
	TaxID *string `json:"tax_id,omitempty"`
}

type ExtractedLineItem struct {
	Name          string          `json:"name"`
	CatalogNumber *string         `json:"catalog_number,omitempty"`
	Barcode       *string         `json:"barcode,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}
