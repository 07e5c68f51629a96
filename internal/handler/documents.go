package handler

import (
	"net/http"

	"github.com/omrysinwany/InvoTrack/internal/apierror"
	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/middleware"
	"github.com/omrysinwany/InvoTrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DocumentsHandler struct{ svc service.DocumentService }

func NewDocumentsHandler(svc service.DocumentService) *DocumentsHandler {
	return &DocumentsHandler{svc: svc}
}

func (h *DocumentsHandler) List(c *gin.Context) {
	var filter dto.DocumentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), middleware.UserID(c), filter)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list documents"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		notFoundOr500(c, err, "Document not found")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DocumentsHandler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return
	}
	if err := h.svc.Archive(c.Request.Context(), middleware.UserID(c), id); err != nil {
		notFoundOr500(c, err, "Document not found")
		return
	}
	c.Status(http.StatusNoContent)
}
