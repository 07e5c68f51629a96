package service

import (
	"testing"

	"github.com/omrysinwany/InvoTrack/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestMatchProductPrecedence(t *testing.T) {
	byID := model.Product{ID: uuid.New(), CatalogNumber: "CAT-1", Barcode: "111"}
	byCatalog := model.Product{ID: uuid.New(), CatalogNumber: "CAT-2", Barcode: "222"}
	byBarcode := model.Product{ID: uuid.New(), CatalogNumber: "CAT-3", Barcode: "333"}
	inventory := []model.Product{byID, byCatalog, byBarcode}

	// Internal id wins over catalog number and barcode.
	id := byID.ID
	match := MatchProduct(ProductCandidate{ProductID: &id, CatalogNumber: "CAT-2", Barcode: "333"}, inventory)
	assert.Equal(t, byID.ID, match.ID)

	// Catalog number wins over barcode.
	match = MatchProduct(ProductCandidate{CatalogNumber: "CAT-2", Barcode: "333"}, inventory)
	assert.Equal(t, byCatalog.ID, match.ID)

	// Barcode is the last resort.
	match = MatchProduct(ProductCandidate{Barcode: "333"}, inventory)
	assert.Equal(t, byBarcode.ID, match.ID)

	// Nothing matches.
	assert.Nil(t, MatchProduct(ProductCandidate{CatalogNumber: "CAT-9", Barcode: "999"}, inventory))
}

func TestMatchProductSentinelCatalogNumber(t *testing.T) {
	inventory := []model.Product{
		{ID: uuid.New(), CatalogNumber: "N/A", Barcode: "111"},
	}

	// "N/A" must never match as a catalog number, in either case.
	assert.Nil(t, MatchProduct(ProductCandidate{CatalogNumber: "N/A"}, inventory))
	assert.Nil(t, MatchProduct(ProductCandidate{CatalogNumber: "n/a"}, inventory))

	// The same record is still reachable via barcode.
	match := MatchProduct(ProductCandidate{CatalogNumber: "N/A", Barcode: "111"}, inventory)
	assert.NotNil(t, match)
}

func TestMatchProductIgnoresWhitespaceKeys(t *testing.T) {
	inventory := []model.Product{{ID: uuid.New(), CatalogNumber: "", Barcode: ""}}

	// Empty identity keys never match the record with empty fields.
	assert.Nil(t, MatchProduct(ProductCandidate{CatalogNumber: "  ", Barcode: ""}, inventory))
}

func TestMatchSupplier(t *testing.T) {
	byTax := model.Supplier{ID: uuid.New(), Name: "Alpha Foods", TaxID: strPtr("514000000")}
	byName := model.Supplier{ID: uuid.New(), Name: "Beta Drinks"}
	suppliers := []model.Supplier{byTax, byName}

	// Tax id wins even when the name points elsewhere.
	match := MatchSupplier(strPtr("514000000"), "Beta Drinks", suppliers)
	assert.Equal(t, byTax.ID, match.ID)

	// Name match when there is no tax id.
	match = MatchSupplier(nil, "Beta Drinks", suppliers)
	assert.Equal(t, byName.ID, match.ID)

	// No match at all.
	assert.Nil(t, MatchSupplier(strPtr("999999999"), "Gamma", suppliers))
}
