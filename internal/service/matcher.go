package service

import (
	"strings"

	"github.com/omrysinwany/InvoTrack/internal/model"

	"github.com/google/uuid"
)

// CatalogNumberNotApplicable is the sentinel an extraction may carry when a
// line item has no catalog number printed on the document. It never matches.
const CatalogNumberNotApplicable = "N/A"

// ProductCandidate carries the identity keys (the fingerprint) of an incoming
// line item.
type ProductCandidate struct {
	ProductID     *uuid.UUID
	CatalogNumber string
	Barcode       string
}

// MatchProduct resolves a candidate against the user's inventory by trying
// identity keys in priority order: internal id, catalog number, barcode.
// First match wins; no fuzzy matching. Pure lookup, no side effects.
func MatchProduct(c ProductCandidate, inventory []model.Product) *model.Product {
	if c.ProductID != nil {
		for i := range inventory {
			if inventory[i].ID == *c.ProductID {
				return &inventory[i]
			}
		}
	}
	if cn := strings.TrimSpace(c.CatalogNumber); cn != "" && !strings.EqualFold(cn, CatalogNumberNotApplicable) {
		for i := range inventory {
			if inventory[i].CatalogNumber == cn {
				return &inventory[i]
			}
		}
	}
	if bc := strings.TrimSpace(c.Barcode); bc != "" {
		for i := range inventory {
			if inventory[i].Barcode == bc {
				return &inventory[i]
			}
		}
	}
	return nil
}

// MatchSupplier resolves an extracted supplier against the user's suppliers:
// tax id exact match first, then exact name.
func MatchSupplier(taxID *string, name string, suppliers []model.Supplier) *model.Supplier {
	if taxID != nil && strings.TrimSpace(*taxID) != "" {
		for i := range suppliers {
			if suppliers[i].TaxID != nil && *suppliers[i].TaxID == strings.TrimSpace(*taxID) {
				return &suppliers[i]
			}
		}
	}
	if n := strings.TrimSpace(name); n != "" {
		for i := range suppliers {
			if suppliers[i].Name == n {
				return &suppliers[i]
			}
		}
	}
	return nil
}
