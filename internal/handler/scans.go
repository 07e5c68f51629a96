package handler

import (
	"errors"
	"net/http"

	"github.com/omrysinwany/InvoTrack/internal/apierror"
	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/infra"
	"github.com/omrysinwany/InvoTrack/internal/middleware"
	"github.com/omrysinwany/InvoTrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ScansHandler drives the resolution flow over HTTP: one route per step, each
// returning the refreshed session view.
type ScansHandler struct {
	extractor *infra.ExtractionClient
	flow      *service.FlowService
}

func NewScansHandler(extractor *infra.ExtractionClient, flow *service.FlowService) *ScansHandler {
	return &ScansHandler{extractor: extractor, flow: flow}
}

// Start submits a scanned image: extraction first, then a new session.
func (h *ScansHandler) Start(c *gin.Context) {
	var req dto.StartScanRequest
	if !bindAndValidate(c, &req) {
		return
	}

	var draftID *uuid.UUID
	if req.DraftDocumentID != nil {
		id, err := uuid.Parse(*req.DraftDocumentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Invalid draft document id"))
			return
		}
		draftID = &id
	}

	extraction, err := h.extractor.Extract(c.Request.Context(), req.ImageBase64, req.MimeType)
	if err != nil {
		if errors.Is(err, infra.ErrCircuitOpen) {
			c.JSON(http.StatusServiceUnavailable, apierror.New("Document extraction is temporarily unavailable"))
			return
		}
		c.JSON(http.StatusBadGateway, apierror.New("Document extraction failed"))
		return
	}

	sess, err := h.flow.Start(c.Request.Context(), middleware.UserID(c), draftID, *extraction)
	if sess == nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Internal server error"))
		return
	}
	// A session in error_loading is still returned: the client renders the
	// error state and may retry with a fresh scan.
	c.JSON(http.StatusCreated, toSessionResponse(sess))
}

func (h *ScansHandler) Get(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	sess, err := h.flow.Get(middleware.UserID(c), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Session not found"))
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

func (h *ScansHandler) ConfirmSupplier(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req dto.ConfirmSupplierRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess, err := h.flow.ConfirmSupplier(c.Request.Context(), middleware.UserID(c), sessionID, req)
	h.respond(c, sess, err)
}

func (h *ScansHandler) SubmitProductDetails(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req dto.ProductDetailsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess, err := h.flow.SubmitProductDetails(c.Request.Context(), middleware.UserID(c), sessionID, req)
	h.respond(c, sess, err)
}

func (h *ScansHandler) LinkDocuments(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req dto.LinkDocumentsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sess, err := h.flow.LinkDocuments(c.Request.Context(), middleware.UserID(c), sessionID, req)
	h.respond(c, sess, err)
}

func (h *ScansHandler) Finalize(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	doc, err := h.flow.Finalize(c.Request.Context(), middleware.UserID(c), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, apierror.New("Session not found"))
		case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrUnresolvedItems):
			c.JSON(http.StatusConflict, apierror.New(err.Error()))
		case errors.Is(err, service.ErrMissingSupplierName), errors.Is(err, service.ErrSupplierGone):
			c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, apierror.New("Failed to save document"))
		}
		return
	}
	c.JSON(http.StatusOK, service.ToDocumentResponse(doc))
}

func (h *ScansHandler) Cancel(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.flow.Cancel(middleware.UserID(c), sessionID); err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Session not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ScansHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid session id"))
		return uuid.Nil, false
	}
	return id, true
}

// respond maps step outcomes uniformly: a refreshed session on success (or on
// a flow failure, where the session carries the error state), HTTP errors for
// lookup and ordering violations.
func (h *ScansHandler) respond(c *gin.Context, sess *service.Session, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, apierror.New("Session not found"))
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case err != nil && sess != nil && sess.State == service.StateErrorLoading:
		c.JSON(http.StatusOK, toSessionResponse(sess))
	case err != nil:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusOK, toSessionResponse(sess))
	}
}

func toSessionResponse(sess *service.Session) dto.SessionResponse {
	resp := dto.SessionResponse{
		SessionID:         sess.ID.String(),
		State:             string(sess.State),
		DocumentType:      sess.Extraction.DocumentType,
		SupplierName:      sess.SupplierName,
		SupplierTaxID:     sess.SupplierTaxID,
		SupplierConfirmed: sess.SupplierConfirmed,
		Error:             sess.LastError,
	}
	if sess.SupplierID != nil {
		id := sess.SupplierID.String()
		resp.SupplierID = &id
	}

	for _, p := range sess.Pending {
		if p.Resolved {
			continue
		}
		resp.UnmatchedProducts = append(resp.UnmatchedProducts, dto.PendingProductResponse{
			LineIndex:     p.LineIndex,
			Name:          p.Item.Name,
			CatalogNumber: p.Item.CatalogNumber,
			Barcode:       p.Item.Barcode,
			Quantity:      p.Item.Quantity,
			UnitPrice:     p.Item.UnitPrice,
		})
	}
	for _, d := range sess.Discrepancies {
		resp.PriceDiscrepancies = append(resp.PriceDiscrepancies, dto.PriceDiscrepancyResponse{
			ProductID:      d.ProductID.String(),
			Name:           d.ProductName,
			ExistingPrice:  d.ExistingPrice,
			CandidatePrice: d.CandidatePrice,
		})
	}
	for _, lc := range sess.LinkCandidates {
		resp.LinkCandidates = append(resp.LinkCandidates, dto.LinkCandidateResponse{
			ID:            lc.ID.String(),
			DocumentType:  lc.DocumentType,
			InvoiceNumber: lc.InvoiceNumber,
			Date:          lc.Date,
			TotalAmount:   lc.TotalAmount,
		})
	}
	return resp
}
