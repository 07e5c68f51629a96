package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type UpdateProductRequest struct {
	Name          string           `json:"name"           validate:"required,min=1"`
	Description   *string          `json:"description"`
	CatalogNumber string           `json:"catalog_number"`
	Barcode       string           `json:"barcode"`
	UnitPrice     decimal.Decimal  `json:"unit_price"     validate:"min=0"`
	SalePrice     *decimal.Decimal `json:"sale_price"`
	Quantity      int              `json:"quantity"       validate:"min=0"`
	MinStockLevel *int             `json:"min_stock_level"`
}

type ProductFilter struct {
	Search        string `form:"search"`
	CatalogNumber string `form:"catalog_number"`
	Barcode       string `form:"barcode"`
	Active        string `form:"active"` // "false" | "all" | default active-only
	Page          int    `form:"page,default=1"`
	Limit         int    `form:"limit,default=50"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PosRefResponse struct {
	ExternalID string    `json:"external_id"`
	LastSync   time.Time `json:"last_sync"`
}

type ProductResponse struct {
	ID            string                    `json:"id"`
	Name          string                    `json:"name"`
	Description   *string                   `json:"description,omitempty"`
	CatalogNumber string                    `json:"catalog_number"`
	Barcode       string                    `json:"barcode"`
	UnitPrice     decimal.Decimal           `json:"unit_price"`
	SalePrice     *decimal.Decimal          `json:"sale_price,omitempty"`
	Quantity      int                       `json:"quantity"`
	MinStockLevel *int                      `json:"min_stock_level,omitempty"`
	IsActive      bool                      `json:"is_active"`
	PosRefs       map[string]PosRefResponse `json:"pos_refs,omitempty"`
	LastUpdated   time.Time                 `json:"last_updated"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
