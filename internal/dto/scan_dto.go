package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// StartScanRequest submits a scanned image for extraction and opens a
// resolution session.
type StartScanRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
	MimeType    string `json:"mime_type"    validate:"required"`
	// DraftDocumentID upgrades an existing pending record instead of creating
	// a new one at finalize time.
	DraftDocumentID *string `json:"draft_document_id,omitempty"`
}

// ConfirmSupplierRequest completes the supplier_payment_details step.
// Either an existing supplier id is selected or a new one is described by
// name/tax id (created on finalize, or resolved to an existing record when
// the name already exists).
type ConfirmSupplierRequest struct {
	SupplierID    *string    `json:"supplier_id,omitempty"`
	Name          string     `json:"name"`
	TaxID         *string    `json:"tax_id,omitempty"`
	PaymentTerms  string     `json:"payment_terms" validate:"required,oneof=immediate net30 net60 net90 end_of_month custom_date"`
	CustomDueDate *time.Time `json:"custom_due_date,omitempty"`
}

// ProductDetailsInput supplies the missing identity fields for one unmatched
// line item, addressed by its index in the extraction output.
type ProductDetailsInput struct {
	LineIndex     int              `json:"line_index"     validate:"min=0"`
	CatalogNumber string           `json:"catalog_number" validate:"required"`
	Barcode       string           `json:"barcode"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`
	MinStockLevel *int             `json:"min_stock_level,omitempty"`
}

// PriceConfirmationInput resolves one price discrepancy: accept the candidate
// price or keep the stored one.
type PriceConfirmationInput struct {
	ProductID      string `json:"product_id" validate:"required"`
	AcceptNewPrice bool   `json:"accept_new_price"`
}

type ProductDetailsRequest struct {
	Items              []ProductDetailsInput    `json:"items"`
	PriceConfirmations []PriceConfirmationInput `json:"price_confirmations"`
}

// LinkDocumentsRequest completes the linking step. Which field applies depends
// on the document type: receipts link a single unpaid invoice, invoices link
// open delivery notes.
type LinkDocumentsRequest struct {
	LinkedInvoiceID       *string  `json:"linked_invoice_id,omitempty"`
	LinkedDeliveryNoteIDs []string `json:"linked_delivery_note_ids"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PendingProductResponse struct {
	LineIndex     int             `json:"line_index"`
	Name          string          `json:"name"`
	CatalogNumber *string         `json:"catalog_number,omitempty"`
	Barcode       *string         `json:"barcode,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
}

type PriceDiscrepancyResponse struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	ExistingPrice  decimal.Decimal `json:"existing_price"`
	CandidatePrice decimal.Decimal `json:"candidate_price"`
}

// LinkCandidateResponse summarizes a document the caller may link during a
// prompt_link_* step.
type LinkCandidateResponse struct {
	ID            string          `json:"id"`
	DocumentType  string          `json:"document_type"`
	InvoiceNumber *string         `json:"invoice_number,omitempty"`
	Date          time.Time       `json:"date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// SessionResponse is the caller-visible view of a resolution session after
// every step call.
type SessionResponse struct {
	SessionID    string `json:"session_id"`
	State        string `json:"state"`
	DocumentType string `json:"document_type"`

	// Pre-filled, editable supplier suggestions (supplier_payment_details)
	SupplierID        *string `json:"supplier_id,omitempty"`
	SupplierName      string  `json:"supplier_name"`
	SupplierTaxID     *string `json:"supplier_tax_id,omitempty"`
	SupplierConfirmed bool    `json:"supplier_confirmed"`

	UnmatchedProducts  []PendingProductResponse   `json:"unmatched_products"`
	PriceDiscrepancies []PriceDiscrepancyResponse `json:"price_discrepancies"`
	LinkCandidates     []LinkCandidateResponse    `json:"link_candidates,omitempty"`

	Error string `json:"error,omitempty"`
}
