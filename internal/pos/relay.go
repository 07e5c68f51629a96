package pos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/omrysinwany/InvoTrack/internal/infra"
	"github.com/omrysinwany/InvoTrack/internal/model"
	"github.com/omrysinwany/InvoTrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AdapterFactory lets tests inject a fake adapter; production uses NewAdapter.
type AdapterFactory func(Config) (Adapter, error)

// Relay pushes a committed document to the user's configured POS system. It
// runs strictly after the commit: whatever happens here, the committed
// supplier, products and document are never modified — the only field the
// relay writes on the document is its sync status (plus external references).
type Relay struct {
	settings   repository.PosSettingsRepository
	suppliers  repository.SupplierRepository
	products   repository.ProductRepository
	documents  repository.DocumentRepository
	httpClient *http.Client
	breaker    *infra.CircuitBreaker
	newAdapter AdapterFactory
}

func NewRelay(
	settings repository.PosSettingsRepository,
	suppliers repository.SupplierRepository,
	products repository.ProductRepository,
	documents repository.DocumentRepository,
	breaker *infra.CircuitBreaker,
) *Relay {
	return &Relay{
		settings:   settings,
		suppliers:  suppliers,
		products:   products,
		documents:  documents,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    breaker,
		newAdapter: NewAdapter,
	}
}

// Sync performs one synchronization pass for a document. A user without POS
// settings is a silent no-op. Any failure — adapter error, panic, missing
// entity — is recorded on the document's sync status; there is no automatic
// retry, the caller re-triggers explicitly if desired.
func (r *Relay) Sync(ctx context.Context, userID, documentID uuid.UUID) (err error) {
	settings, err := r.settings.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Debug().Str("user_id", userID.String()).Msg("pos relay: not configured, skipping")
		return nil
	}
	if err != nil {
		err = fmt.Errorf("pos relay: load settings: %w", err)
		r.recordFailure(ctx, userID, documentID, err)
		return err
	}

	doc, err := r.documents.FindByID(ctx, userID, documentID)
	if err != nil {
		return fmt.Errorf("pos relay: load document: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pos relay: panic: %v", rec)
			r.recordFailure(ctx, userID, documentID, err)
		}
	}()

	adapter, err := r.newAdapter(Config{
		SystemID:    settings.SystemID,
		Credentials: settings.Credentials.Data(),
		HTTPClient:  r.httpClient,
		Breaker:     r.breaker,
	})
	if err != nil {
		r.recordFailure(ctx, userID, documentID, err)
		return err
	}

	if syncErr := r.push(ctx, adapter, userID, doc); syncErr != nil {
		r.recordFailure(ctx, userID, documentID, syncErr)
		return syncErr
	}

	now := time.Now()
	if err := r.documents.UpdateSyncStatus(ctx, userID, documentID, model.SyncStatus{
		Status:       model.SyncSuccess,
		LastSyncedAt: &now,
	}); err != nil {
		return fmt.Errorf("pos relay: record success: %w", err)
	}
	log.Info().
		Str("document_id", documentID.String()).
		Str("system_id", adapter.SystemID()).
		Msg("pos relay: document synced")
	return nil
}

// push runs the sync steps in order: supplier, products, then the document
// itself for systems that accept expense records.
func (r *Relay) push(ctx context.Context, adapter Adapter, userID uuid.UUID, doc *model.Document) error {
	systemID := adapter.SystemID()
	now := time.Now()

	var supplierExt string
	if doc.SupplierID != nil {
		sup, err := r.suppliers.FindByID(ctx, userID, *doc.SupplierID)
		if err != nil {
			return fmt.Errorf("load supplier: %w", err)
		}
		supplierExt, err = adapter.UpsertSupplier(ctx, sup)
		if err != nil {
			return fmt.Errorf("upsert supplier: %w", err)
		}
		ref := model.PosRef{ExternalID: supplierExt, LastSync: now}
		if err := r.suppliers.UpdatePosRef(ctx, userID, sup.ID, systemID, ref); err != nil {
			return fmt.Errorf("store supplier reference: %w", err)
		}
	}

	for _, li := range doc.LineItems {
		if li.ProductID == nil {
			continue
		}
		p, err := r.products.FindByID(ctx, userID, *li.ProductID)
		if err != nil {
			return fmt.Errorf("load product %s: %w", li.ProductID, err)
		}
		ext, err := adapter.UpsertProduct(ctx, p)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
		ref := model.PosRef{ExternalID: ext, LastSync: now}
		if err := r.products.UpdatePosRef(ctx, userID, p.ID, systemID, ref); err != nil {
			return fmt.Errorf("store product reference: %w", err)
		}
	}

	// The document step only applies to payable types, and only when the
	// system supports expense records. Already-pushed documents are not
	// re-created.
	if !model.IsPayableType(doc.DocumentType) {
		return nil
	}
	creator, ok := adapter.(ExpenseCreator)
	if !ok {
		log.Debug().Str("system_id", systemID).Msg("pos relay: system has no expense documents, skipping")
		return nil
	}
	if _, ok := model.PosRefOf(doc.PosRefs, systemID); ok {
		return nil
	}
	ext, err := creator.CreateExpenseDocument(ctx, doc, supplierExt)
	if err != nil {
		return fmt.Errorf("create expense document: %w", err)
	}
	ref := model.PosRef{ExternalID: ext, LastSync: now}
	if err := r.documents.UpdatePosRef(ctx, userID, doc.ID, systemID, ref); err != nil {
		return fmt.Errorf("store document reference: %w", err)
	}
	return nil
}

func (r *Relay) recordFailure(ctx context.Context, userID, documentID uuid.UUID, cause error) {
	now := time.Now()
	msg := cause.Error()
	status := model.SyncStatus{
		Status:       model.SyncError,
		Error:        &msg,
		LastSyncedAt: &now,
	}
	if err := r.documents.UpdateSyncStatus(ctx, userID, documentID, status); err != nil {
		log.Error().Err(err).Str("document_id", documentID.String()).Msg("pos relay: failed to record sync failure")
	}
	log.Error().Err(cause).Str("document_id", documentID.String()).Msg("pos relay: sync failed")
}
