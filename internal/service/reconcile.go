package service

import (
	"context"
	"strings"

	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/model"
	"github.com/omrysinwany/InvoTrack/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// priceEpsilon absorbs floating rounding introduced by the extraction step.
// Differences at or below it are treated as "same price".
var priceEpsilon = decimal.NewFromFloat(0.001)

// ReconcileItem is a candidate line item after inventory matching. ProductID
// is set when the item resolved to an existing inventory record.
type ReconcileItem struct {
	LineIndex int
	Item      dto.ExtractedLineItem
	ProductID *uuid.UUID
}

// PriceDiscrepancy carries both prices of a matched item whose unit price
// moved beyond the epsilon; it is deferred to caller confirmation before
// finalization.
type PriceDiscrepancy struct {
	LineIndex      int
	Item           dto.ExtractedLineItem
	ProductID      uuid.UUID
	ProductName    string
	ExistingPrice  decimal.Decimal
	CandidatePrice decimal.Decimal
}

// ReconcileResult splits candidates into "safe to save" and "needs
// confirmation".
type ReconcileResult struct {
	ProductsToSave     []ReconcileItem
	PriceDiscrepancies []PriceDiscrepancy
}

// ReconcileService classifies incoming line items against the user's
// inventory, fetched once in identity-key batches bounded by the store's IN
// limit.
type ReconcileService struct {
	products  repository.ProductRepository
	batchSize int
}

func NewReconcileService(products repository.ProductRepository, batchSize int) *ReconcileService {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ReconcileService{products: products, batchSize: batchSize}
}

// Reconcile fetches matching inventory and classifies each candidate:
// unmatched ⇒ safe to save (will be created); matched with equal price
// (within epsilon) ⇒ safe to save carrying the internal id; matched with a
// differing price ⇒ discrepancy. Store errors propagate; no partial result
// is returned.
func (s *ReconcileService) Reconcile(ctx context.Context, userID uuid.UUID, items []dto.ExtractedLineItem) (*ReconcileResult, error) {
	inventory, err := s.fetchInventory(ctx, userID, items)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{}
	for i, item := range items {
		candidate := ProductCandidate{}
		if item.CatalogNumber != nil {
			candidate.CatalogNumber = *item.CatalogNumber
		}
		if item.Barcode != nil {
			candidate.Barcode = *item.Barcode
		}

		match := MatchProduct(candidate, inventory)
		if match == nil {
			result.ProductsToSave = append(result.ProductsToSave, ReconcileItem{LineIndex: i, Item: item})
			continue
		}

		diff := match.UnitPrice.Sub(item.UnitPrice).Abs()
		if diff.LessThanOrEqual(priceEpsilon) {
			id := match.ID
			result.ProductsToSave = append(result.ProductsToSave, ReconcileItem{LineIndex: i, Item: item, ProductID: &id})
			continue
		}

		result.PriceDiscrepancies = append(result.PriceDiscrepancies, PriceDiscrepancy{
			LineIndex:      i,
			Item:           item,
			ProductID:      match.ID,
			ProductName:    match.Name,
			ExistingPrice:  match.UnitPrice,
			CandidatePrice: item.UnitPrice,
		})
	}
	return result, nil
}

// fetchInventory loads every inventory record that could match one of the
// candidates, batching IN queries per identity key to the configured limit.
func (s *ReconcileService) fetchInventory(ctx context.Context, userID uuid.UUID, items []dto.ExtractedLineItem) ([]model.Product, error) {
	catalogSet := make(map[string]struct{})
	barcodeSet := make(map[string]struct{})
	for _, item := range items {
		if item.CatalogNumber != nil {
			if cn := strings.TrimSpace(*item.CatalogNumber); cn != "" && !strings.EqualFold(cn, CatalogNumberNotApplicable) {
				catalogSet[cn] = struct{}{}
			}
		}
		if item.Barcode != nil {
			if bc := strings.TrimSpace(*item.Barcode); bc != "" {
				barcodeSet[bc] = struct{}{}
			}
		}
	}

	var inventory []model.Product
	seen := make(map[uuid.UUID]struct{})
	appendUnique := func(products []model.Product) {
		for _, p := range products {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			inventory = append(inventory, p)
		}
	}

	for _, chunk := range chunkKeys(keysOf(catalogSet), s.batchSize) {
		products, err := s.products.FindByCatalogNumbers(ctx, userID, chunk)
		if err != nil {
			return nil, err
		}
		appendUnique(products)
	}
	for _, chunk := range chunkKeys(keysOf(barcodeSet), s.batchSize) {
		products, err := s.products.FindByBarcodes(ctx, userID, chunk)
		if err != nil {
			return nil, err
		}
		appendUnique(products)
	}
	return inventory, nil
}

func keysOf(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}

func chunkKeys(keys []string, size int) [][]string {
	if len(keys) == 0 {
		return nil
	}
	var chunks [][]string
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[start:end])
	}
	return chunks
}
