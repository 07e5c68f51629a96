package service

import (
	"context"
	"testing"

	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestReconcileClassification(t *testing.T) {
	userID := uuid.New()
	repo := newStubProductRepo()
	existing := repo.add(model.Product{
		UserID:        userID,
		Name:          "Olive Oil 1L",
		CatalogNumber: "OIL-1",
		UnitPrice:     dec("32.50"),
		IsActive:      true,
	})

	svc := NewReconcileService(repo, 10)
	items := []dto.ExtractedLineItem{
		// Matched, price within epsilon → safe to save with internal id.
		{Name: "Olive Oil 1L", CatalogNumber: strPtr("OIL-1"), Quantity: 3, UnitPrice: dec("32.5001")},
		// Unmatched → safe to save as a new product.
		{Name: "Sunflower Oil", CatalogNumber: strPtr("OIL-2"), Quantity: 2, UnitPrice: dec("18.00")},
	}

	result, err := svc.Reconcile(context.Background(), userID, items)
	require.NoError(t, err)
	require.Len(t, result.ProductsToSave, 2)
	assert.Empty(t, result.PriceDiscrepancies)

	require.NotNil(t, result.ProductsToSave[0].ProductID)
	assert.Equal(t, existing.ID, *result.ProductsToSave[0].ProductID)
	assert.Nil(t, result.ProductsToSave[1].ProductID)
}

func TestReconcilePriceDiscrepancy(t *testing.T) {
	userID := uuid.New()
	repo := newStubProductRepo()
	existing := repo.add(model.Product{
		UserID:        userID,
		Name:          "Flour 1kg",
		CatalogNumber: "FL-1",
		UnitPrice:     dec("5.00"),
		IsActive:      true,
	})

	svc := NewReconcileService(repo, 10)
	items := []dto.ExtractedLineItem{
		// 0.01 above the stored price — beyond the 0.001 epsilon.
		{Name: "Flour 1kg", CatalogNumber: strPtr("FL-1"), Quantity: 10, UnitPrice: dec("5.01")},
	}

	result, err := svc.Reconcile(context.Background(), userID, items)
	require.NoError(t, err)
	assert.Empty(t, result.ProductsToSave)
	require.Len(t, result.PriceDiscrepancies, 1)

	d := result.PriceDiscrepancies[0]
	assert.Equal(t, existing.ID, d.ProductID)
	assert.True(t, d.ExistingPrice.Equal(dec("5.00")))
	assert.True(t, d.CandidatePrice.Equal(dec("5.01")))
}

func TestReconcileBatchesIdentityKeys(t *testing.T) {
	userID := uuid.New()
	repo := newStubProductRepo()

	svc := NewReconcileService(repo, 2)
	items := []dto.ExtractedLineItem{
		{Name: "A", CatalogNumber: strPtr("C1"), UnitPrice: dec("1")},
		{Name: "B", CatalogNumber: strPtr("C2"), UnitPrice: dec("1")},
		{Name: "C", CatalogNumber: strPtr("C3"), UnitPrice: dec("1")},
		{Name: "D", CatalogNumber: strPtr("C4"), UnitPrice: dec("1")},
		{Name: "E", CatalogNumber: strPtr("C5"), UnitPrice: dec("1")},
		// Sentinel and duplicate keys must not inflate the batches.
		{Name: "F", CatalogNumber: strPtr("N/A"), UnitPrice: dec("1")},
		{Name: "G", CatalogNumber: strPtr("C5"), UnitPrice: dec("1")},
	}

	_, err := svc.Reconcile(context.Background(), userID, items)
	require.NoError(t, err)

	// 5 unique keys at batch size 2 → 3 IN queries.
	require.Len(t, repo.catalogCalls, 3)
	for i, call := range repo.catalogCalls {
		assert.LessOrEqual(t, len(call), 2, "batch %d exceeds the IN limit", i)
	}
	total := 0
	for _, call := range repo.catalogCalls {
		total += len(call)
	}
	assert.Equal(t, 5, total)
}
