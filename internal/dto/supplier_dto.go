package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateSupplierRequest struct {
	Name         string  `json:"name"          validate:"required,min=1"`
	TaxID        *string `json:"tax_id"`
	PaymentTerms *string `json:"payment_terms" validate:"omitempty,oneof=immediate net30 net60 net90 end_of_month custom_date"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SupplierResponse struct {
	ID               string                    `json:"id"`
	Name             string                    `json:"name"`
	TaxID            *string                   `json:"tax_id,omitempty"`
	PaymentTerms     *string                   `json:"payment_terms,omitempty"`
	TotalSpent       decimal.Decimal           `json:"total_spent"`
	InvoiceCount     int                       `json:"invoice_count"`
	LastActivityDate *time.Time                `json:"last_activity_date,omitempty"`
	IsActive         bool                      `json:"is_active"`
	PosRefs          map[string]PosRefResponse `json:"pos_refs,omitempty"`
}
