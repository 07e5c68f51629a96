package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/model"
	"github.com/omrysinwany/InvoTrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FlowState is one step of the guided resolution sequence. The flow is
// strictly forward: the only way back is an explicit cancel, and the only
// state finalization may be invoked from is StateReadyToSave.
type FlowState string

const (
	StateIdle                    FlowState = "idle"
	StateProcessing              FlowState = "processing"
	StateSupplierPaymentDetails  FlowState = "supplier_payment_details"
	StateNewProductDetails       FlowState = "new_product_details"
	StatePromptLinkInvoice       FlowState = "prompt_link_invoice"
	StatePromptLinkDeliveryNotes FlowState = "prompt_link_delivery_notes"
	StateReadyToSave             FlowState = "ready_to_save"
	StateErrorLoading            FlowState = "error_loading"
)

// Payment terms a caller may choose when confirming a supplier.
const (
	TermsImmediate  = "immediate"
	TermsNet30      = "net30"
	TermsNet60      = "net60"
	TermsNet90      = "net90"
	TermsEndOfMonth = "end_of_month"
	TermsCustomDate = "custom_date"
)

// Abandoned sessions are evicted: expired entries are rejected on access and
// a background sweep reclaims the memory.
const (
	sessionTTL           = 2 * time.Hour
	sessionSweepInterval = 10 * time.Minute
)

var (
	ErrSessionNotFound   = errors.New("flow: session not found")
	ErrInvalidTransition = errors.New("flow: step not allowed in current state")
	ErrUnresolvedItems   = errors.New("flow: unmatched products still missing details")
)

// PendingProduct is an unmatched line item awaiting caller-supplied details
// before the new_product_details step can complete.
type PendingProduct struct {
	LineIndex     int
	Item          dto.ExtractedLineItem
	CatalogNumber string
	Barcode       string
	SalePrice     *decimal.Decimal
	MinStockLevel *int
	Resolved      bool
}

// LinkCandidate summarizes a document offered during a prompt_link_* step.
type LinkCandidate struct {
	ID            uuid.UUID
	DocumentType  string
	InvoiceNumber *string
	Date          time.Time
	TotalAmount   decimal.Decimal
}

// Session is the ephemeral, caller-owned state of one resolution flow. It is
// never persisted: it exists from scan intake until finalize or cancel.
type Session struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	State           FlowState
	Extraction      dto.ExtractionResult
	DraftDocumentID *uuid.UUID

	SupplierID        *uuid.UUID
	SupplierName      string
	SupplierTaxID     *string
	SupplierConfirmed bool
	PaymentTerms      string
	CustomDueDate     *time.Time

	// Resolved carries items safe to save (matched, or confirmed after a
	// price discrepancy). Pending carries unmatched items awaiting details.
	Resolved      []ReconcileItem
	Pending       []PendingProduct
	Discrepancies []PriceDiscrepancy

	LinkCandidates        []LinkCandidate
	LinkedInvoiceID       *uuid.UUID
	LinkedDeliveryNoteIDs []uuid.UUID

	LastError string
	CreatedAt time.Time

	// mu serializes step execution: a step runs to completion before the
	// next call on the same session is accepted.
	mu sync.Mutex
}

// unresolvedCount reports how many pending products still lack details.
func (s *Session) unresolvedCount() int {
	n := 0
	for _, p := range s.Pending {
		if !p.Resolved {
			n++
		}
	}
	return n
}

// clone returns a snapshot for callers. The live session never leaves the
// flow service, so readers can't observe a step mutating it mid-flight.
// Callers must hold mu.
func (s *Session) clone() *Session {
	return &Session{
		ID:              s.ID,
		UserID:          s.UserID,
		State:           s.State,
		Extraction:      s.Extraction,
		DraftDocumentID: s.DraftDocumentID,

		SupplierID:        s.SupplierID,
		SupplierName:      s.SupplierName,
		SupplierTaxID:     s.SupplierTaxID,
		SupplierConfirmed: s.SupplierConfirmed,
		PaymentTerms:      s.PaymentTerms,
		CustomDueDate:     s.CustomDueDate,

		Resolved:      slices.Clone(s.Resolved),
		Pending:       slices.Clone(s.Pending),
		Discrepancies: slices.Clone(s.Discrepancies),

		LinkCandidates:        slices.Clone(s.LinkCandidates),
		LinkedInvoiceID:       s.LinkedInvoiceID,
		LinkedDeliveryNoteIDs: slices.Clone(s.LinkedDeliveryNoteIDs),

		LastError: s.LastError,
		CreatedAt: s.CreatedAt,
	}
}

// SessionManager holds in-flight sessions. Sessions are handles owned by the
// caller; concurrent sessions per user are fine, and lookups always enforce
// ownership.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewSessionManager() *SessionManager {
	m := &SessionManager{sessions: make(map[uuid.UUID]*Session)}
	go m.purgeLoop()
	return m
}

func (m *SessionManager) put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

func (m *SessionManager) get(userID, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || s.UserID != userID {
		return nil, ErrSessionNotFound
	}
	if time.Since(s.CreatedAt) > sessionTTL {
		m.delete(id)
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *SessionManager) delete(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *SessionManager) purgeLoop() {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		m.purgeExpired()
	}
}

func (m *SessionManager) purgeExpired() {
	cutoff := time.Now().Add(-sessionTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}

// FlowService drives the resolution flow. Each step executes to completion
// before the next is accepted (the session lock is held for the step's whole
// duration); no transaction is held open across caller interactions — the
// store is touched only for reads until finalize.
type FlowService struct {
	sessions   *SessionManager
	suppliers  repository.SupplierRepository
	documents  repository.DocumentRepository
	reconciler *ReconcileService
	finalizer  *FinalizerService
}

func NewFlowService(
	sessions *SessionManager,
	suppliers repository.SupplierRepository,
	documents repository.DocumentRepository,
	reconciler *ReconcileService,
	finalizer *FinalizerService,
) *FlowService {
	return &FlowService{
		sessions:   sessions,
		suppliers:  suppliers,
		documents:  documents,
		reconciler: reconciler,
		finalizer:  finalizer,
	}
}

// Start opens a session for a fresh extraction result and advances it as far
// as the data allows. Extracted values are untrusted hints: a matched
// supplier locks the supplier step, an unmatched one surfaces the best-guess
// name/tax-id as editable suggestions.
func (s *FlowService) Start(ctx context.Context, userID uuid.UUID, draftID *uuid.UUID, extraction dto.ExtractionResult) (*Session, error) {
	sess := &Session{
		ID:              uuid.New(),
		UserID:          userID,
		State:           StateProcessing,
		Extraction:      extraction,
		DraftDocumentID: draftID,
		SupplierName:    extraction.Supplier.Name,
		SupplierTaxID:   extraction.Supplier.TaxID,
		CreatedAt:       time.Now(),
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.sessions.put(sess)

	err := s.resolveIntake(ctx, sess)
	return sess.clone(), err
}

// resolveIntake runs the automatic part of a fresh session: supplier
// resolution, line-item reconciliation, and the first state transition.
func (s *FlowService) resolveIntake(ctx context.Context, sess *Session) error {
	userID := sess.UserID
	extraction := sess.Extraction

	// Supplier resolution: a sidecar-resolved id wins, then fingerprint match.
	var matched *model.Supplier
	if extraction.SupplierID != nil {
		if sid, err := uuid.Parse(*extraction.SupplierID); err == nil {
			sup, err := s.suppliers.FindByID(ctx, userID, sid)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return s.fail(sess, fmt.Errorf("flow: load supplier: %w", err))
			}
			if err == nil {
				matched = sup
			}
		}
	}
	if matched == nil {
		suppliers, err := s.suppliers.List(ctx, userID)
		if err != nil {
			return s.fail(sess, fmt.Errorf("flow: list suppliers: %w", err))
		}
		matched = MatchSupplier(extraction.Supplier.TaxID, extraction.Supplier.Name, suppliers)
	}

	rec, err := s.reconciler.Reconcile(ctx, userID, extraction.LineItems)
	if err != nil {
		return s.fail(sess, fmt.Errorf("flow: reconcile line items: %w", err))
	}
	for _, item := range rec.ProductsToSave {
		if item.ProductID != nil {
			sess.Resolved = append(sess.Resolved, item)
			continue
		}
		pending := PendingProduct{LineIndex: item.LineIndex, Item: item.Item}
		if item.Item.CatalogNumber != nil {
			pending.CatalogNumber = *item.Item.CatalogNumber
		}
		if item.Item.Barcode != nil {
			pending.Barcode = *item.Item.Barcode
		}
		sess.Pending = append(sess.Pending, pending)
	}
	sess.Discrepancies = rec.PriceDiscrepancies

	if matched != nil {
		// Lock supplier fields and skip confirmation.
		id := matched.ID
		sess.SupplierID = &id
		sess.SupplierName = matched.Name
		sess.SupplierTaxID = matched.TaxID
		sess.SupplierConfirmed = true
		if matched.PaymentTerms != nil {
			sess.PaymentTerms = *matched.PaymentTerms
		}
		return s.advanceAfterSupplier(ctx, sess)
	}

	// Delivery notes do not carry payment obligations, so an unmatched
	// supplier does not force the payment-details step for them.
	if extraction.DocumentType == model.DocTypeDeliveryNote {
		return s.advanceAfterSupplier(ctx, sess)
	}

	sess.State = StateSupplierPaymentDetails
	return nil
}

// ConfirmSupplier completes the supplier_payment_details step with a
// created-or-selected supplier and a payment-term choice.
func (s *FlowService) ConfirmSupplier(ctx context.Context, userID, sessionID uuid.UUID, req dto.ConfirmSupplierRequest) (*Session, error) {
	sess, err := s.sessions.get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	err = s.confirmSupplier(ctx, sess, req)
	return sess.clone(), err
}

func (s *FlowService) confirmSupplier(ctx context.Context, sess *Session, req dto.ConfirmSupplierRequest) error {
	if sess.State != StateSupplierPaymentDetails {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, sess.State)
	}
	userID := sess.UserID

	if req.SupplierID != nil {
		sid, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			return fmt.Errorf("flow: invalid supplier id: %w", err)
		}
		sup, err := s.suppliers.FindByID(ctx, userID, sid)
		if err != nil {
			return s.fail(sess, fmt.Errorf("flow: load supplier: %w", err))
		}
		sess.SupplierID = &sup.ID
		sess.SupplierName = sup.Name
		sess.SupplierTaxID = sup.TaxID
	} else {
		if req.Name == "" {
			return ErrMissingSupplierName
		}
		// Duplicate names resolve to the existing record rather than erroring;
		// a genuinely new name is created at finalize time, inside the
		// transaction.
		existing, err := s.suppliers.FindByName(ctx, userID, req.Name)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			sess.SupplierID = nil
		case err != nil:
			return s.fail(sess, fmt.Errorf("flow: lookup supplier by name: %w", err))
		default:
			sess.SupplierID = &existing.ID
		}
		sess.SupplierName = req.Name
		sess.SupplierTaxID = req.TaxID
	}

	sess.PaymentTerms = req.PaymentTerms
	sess.CustomDueDate = req.CustomDueDate
	sess.SupplierConfirmed = true
	return s.advanceAfterSupplier(ctx, sess)
}

// SubmitProductDetails completes new-product onboarding and price
// confirmations. The step finishes only when every unmatched item has a
// catalog number and every discrepancy has been resolved.
func (s *FlowService) SubmitProductDetails(ctx context.Context, userID, sessionID uuid.UUID, req dto.ProductDetailsRequest) (*Session, error) {
	sess, err := s.sessions.get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	err = s.submitProductDetails(ctx, sess, req)
	return sess.clone(), err
}

func (s *FlowService) submitProductDetails(ctx context.Context, sess *Session, req dto.ProductDetailsRequest) error {
	if sess.State != StateNewProductDetails {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, sess.State)
	}

	for _, input := range req.Items {
		found := false
		for i := range sess.Pending {
			if sess.Pending[i].LineIndex != input.LineIndex {
				continue
			}
			sess.Pending[i].CatalogNumber = input.CatalogNumber
			sess.Pending[i].Barcode = input.Barcode
			sess.Pending[i].SalePrice = input.SalePrice
			sess.Pending[i].MinStockLevel = input.MinStockLevel
			sess.Pending[i].Resolved = true
			found = true
			break
		}
		if !found {
			return fmt.Errorf("flow: no unmatched product at line %d", input.LineIndex)
		}
	}

	for _, conf := range req.PriceConfirmations {
		pid, err := uuid.Parse(conf.ProductID)
		if err != nil {
			return fmt.Errorf("flow: invalid product id in price confirmation: %w", err)
		}
		if err := sess.resolveDiscrepancy(pid, conf.AcceptNewPrice); err != nil {
			return err
		}
	}

	if sess.unresolvedCount() > 0 || len(sess.Discrepancies) > 0 {
		// Step is not complete yet; state does not move.
		return nil
	}
	return s.advanceToLinking(ctx, sess)
}

// resolveDiscrepancy moves a confirmed discrepancy into the resolved set,
// carrying either the candidate price or the stored one.
func (sess *Session) resolveDiscrepancy(productID uuid.UUID, acceptNewPrice bool) error {
	for i, d := range sess.Discrepancies {
		if d.ProductID != productID {
			continue
		}
		item := d.Item
		if !acceptNewPrice {
			item.UnitPrice = d.ExistingPrice
		}
		id := d.ProductID
		sess.Resolved = append(sess.Resolved, ReconcileItem{
			LineIndex: d.LineIndex,
			Item:      item,
			ProductID: &id,
		})
		sess.Discrepancies = append(sess.Discrepancies[:i], sess.Discrepancies[i+1:]...)
		return nil
	}
	return fmt.Errorf("flow: no price discrepancy for product %s", productID)
}

// LinkDocuments completes a prompt_link_* step. Selected ids must come from
// the candidates fetched when the step was entered.
func (s *FlowService) LinkDocuments(ctx context.Context, userID, sessionID uuid.UUID, req dto.LinkDocumentsRequest) (*Session, error) {
	sess, err := s.sessions.get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	err = s.linkDocuments(sess, req)
	return sess.clone(), err
}

func (s *FlowService) linkDocuments(sess *Session, req dto.LinkDocumentsRequest) error {
	switch sess.State {
	case StatePromptLinkInvoice:
		if req.LinkedInvoiceID != nil {
			id, err := uuid.Parse(*req.LinkedInvoiceID)
			if err != nil {
				return fmt.Errorf("flow: invalid invoice id: %w", err)
			}
			if !sess.isLinkCandidate(id) {
				return fmt.Errorf("flow: invoice %s is not a link candidate", id)
			}
			sess.LinkedInvoiceID = &id
		}
	case StatePromptLinkDeliveryNotes:
		for _, raw := range req.LinkedDeliveryNoteIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("flow: invalid delivery note id: %w", err)
			}
			if !sess.isLinkCandidate(id) {
				return fmt.Errorf("flow: delivery note %s is not a link candidate", id)
			}
			sess.LinkedDeliveryNoteIDs = append(sess.LinkedDeliveryNoteIDs, id)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidTransition, sess.State)
	}

	sess.State = StateReadyToSave
	return nil
}

func (sess *Session) isLinkCandidate(id uuid.UUID) bool {
	for _, c := range sess.LinkCandidates {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Finalize hands the session to the transactional finalizer. Only allowed
// from ready_to_save; on success the session is discarded.
func (s *FlowService) Finalize(ctx context.Context, userID, sessionID uuid.UUID) (*model.Document, error) {
	sess, err := s.sessions.get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.State != StateReadyToSave {
		return nil, fmt.Errorf("%w: finalize requires ready_to_save, session is %s", ErrInvalidTransition, sess.State)
	}
	if sess.unresolvedCount() > 0 {
		return nil, ErrUnresolvedItems
	}

	doc, err := s.finalizer.Finalize(ctx, userID, sess.buildFinalizeInput())
	if err != nil {
		// The session stays in ready_to_save so the caller can retry the
		// whole finalize call.
		return nil, err
	}
	s.sessions.delete(sess.ID)
	return doc, nil
}

// Cancel discards the session with no persisted side effects. Allowed from
// any state.
func (s *FlowService) Cancel(userID, sessionID uuid.UUID) error {
	sess, err := s.sessions.get(userID, sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.sessions.delete(sess.ID)
	return nil
}

// Get returns the caller's view of an in-flight session.
func (s *FlowService) Get(userID, sessionID uuid.UUID) (*Session, error) {
	sess, err := s.sessions.get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.clone(), nil
}

// ─── internal transitions ────────────────────────────────────────────────────

func (s *FlowService) advanceAfterSupplier(ctx context.Context, sess *Session) error {
	if sess.unresolvedCount() > 0 || len(sess.Discrepancies) > 0 {
		sess.State = StateNewProductDetails
		return nil
	}
	// Nothing to onboard — the product step auto-advances.
	return s.advanceToLinking(ctx, sess)
}

// advanceToLinking branches on document type. Linking steps only activate
// when a resolved supplier id exists; delivery notes skip both prompts.
func (s *FlowService) advanceToLinking(ctx context.Context, sess *Session) error {
	docType := sess.Extraction.DocumentType
	if sess.SupplierID == nil || docType == model.DocTypeDeliveryNote {
		sess.State = StateReadyToSave
		return nil
	}

	switch docType {
	case model.DocTypeInvoice, model.DocTypeInvoiceReceipt:
		notes, err := s.documents.ListOpenDeliveryNotes(ctx, sess.UserID, *sess.SupplierID)
		if err != nil {
			return s.fail(sess, fmt.Errorf("flow: list open delivery notes: %w", err))
		}
		if len(notes) == 0 {
			sess.State = StateReadyToSave
			return nil
		}
		sess.LinkCandidates = toLinkCandidates(notes)
		sess.State = StatePromptLinkDeliveryNotes
	case model.DocTypeReceipt:
		invoices, err := s.documents.ListUnpaidInvoices(ctx, sess.UserID, *sess.SupplierID)
		if err != nil {
			return s.fail(sess, fmt.Errorf("flow: list unpaid invoices: %w", err))
		}
		if len(invoices) == 0 {
			sess.State = StateReadyToSave
			return nil
		}
		sess.LinkCandidates = toLinkCandidates(invoices)
		sess.State = StatePromptLinkInvoice
	default:
		sess.State = StateReadyToSave
	}
	return nil
}

// fail moves the session to error_loading, discarding nothing that was
// already persisted (nothing is — no transaction has opened yet).
func (s *FlowService) fail(sess *Session, err error) error {
	log.Error().Err(err).Str("session_id", sess.ID.String()).Msg("resolution flow failed")
	sess.State = StateErrorLoading
	sess.LastError = err.Error()
	return err
}

func toLinkCandidates(docs []model.Document) []LinkCandidate {
	candidates := make([]LinkCandidate, 0, len(docs))
	for _, d := range docs {
		candidates = append(candidates, LinkCandidate{
			ID:            d.ID,
			DocumentType:  d.DocumentType,
			InvoiceNumber: d.InvoiceNumber,
			Date:          d.Date,
			TotalAmount:   d.TotalAmount,
		})
	}
	return candidates
}

// buildFinalizeInput snapshots the session's resolved choices for the commit.
func (sess *Session) buildFinalizeInput() FinalizeInput {
	in := FinalizeInput{
		DraftDocumentID: sess.DraftDocumentID,
		DocumentType:    sess.Extraction.DocumentType,
		SupplierID:      sess.SupplierID,
		SupplierName:    sess.SupplierName,
		SupplierTaxID:   sess.SupplierTaxID,
		PaymentTerms:    sess.PaymentTerms,
		InvoiceNumber:   sess.Extraction.InvoiceNumber,
		TotalAmount:     sess.Extraction.TotalAmount,

		LinkedInvoiceID:       sess.LinkedInvoiceID,
		LinkedDeliveryNoteIDs: sess.LinkedDeliveryNoteIDs,
	}

	in.Date = time.Now()
	if sess.Extraction.Date != nil {
		in.Date = *sess.Extraction.Date
	}
	in.DueDate = dueDateFor(sess.PaymentTerms, in.Date, sess.CustomDueDate)

	for _, r := range sess.Resolved {
		in.Items = append(in.Items, finalizeItemFrom(r.Item, r.ProductID, "", "", nil, nil))
	}
	for _, p := range sess.Pending {
		in.Items = append(in.Items, finalizeItemFrom(p.Item, nil, p.CatalogNumber, p.Barcode, p.SalePrice, p.MinStockLevel))
	}
	return in
}

func finalizeItemFrom(item dto.ExtractedLineItem, productID *uuid.UUID, catalogNumber, barcode string, salePrice *decimal.Decimal, minStock *int) FinalizeItem {
	out := FinalizeItem{
		ProductID:     productID,
		Name:          item.Name,
		CatalogNumber: catalogNumber,
		Barcode:       barcode,
		Quantity:      item.Quantity,
		UnitPrice:     item.UnitPrice,
		SalePrice:     salePrice,
		MinStockLevel: minStock,
		TotalPrice:    item.TotalPrice,
	}
	if out.CatalogNumber == "" && item.CatalogNumber != nil {
		out.CatalogNumber = *item.CatalogNumber
	}
	if out.Barcode == "" && item.Barcode != nil {
		out.Barcode = *item.Barcode
	}
	return out
}

// dueDateFor derives the document due date from the chosen payment terms.
func dueDateFor(terms string, base time.Time, custom *time.Time) *time.Time {
	var due time.Time
	switch terms {
	case TermsImmediate:
		due = base
	case TermsNet30:
		due = base.AddDate(0, 0, 30)
	case TermsNet60:
		due = base.AddDate(0, 0, 60)
	case TermsNet90:
		due = base.AddDate(0, 0, 90)
	case TermsEndOfMonth:
		firstOfNext := time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, base.Location()).AddDate(0, 1, 0)
		due = firstOfNext.AddDate(0, 0, -1)
	case TermsCustomDate:
		if custom == nil {
			return nil
		}
		due = *custom
	default:
		return nil
	}
	return &due
}
