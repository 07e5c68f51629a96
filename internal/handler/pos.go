package handler

import (
	"errors"
	"net/http"

	"github.com/omrysinwany/InvoTrack/internal/apierror"
	"github.com/omrysinwany/InvoTrack/internal/dto"
	"github.com/omrysinwany/InvoTrack/internal/middleware"
	"github.com/omrysinwany/InvoTrack/internal/pos"
	"github.com/omrysinwany/InvoTrack/internal/service"

	"github.com/gin-gonic/gin"
)

type PosHandler struct{ svc service.PosService }

func NewPosHandler(svc service.PosService) *PosHandler {
	return &PosHandler{svc: svc}
}

func (h *PosHandler) GetSettings(c *gin.Context) {
	resp, err := h.svc.GetSettings(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		notFoundOr500(c, err, "POS is not configured")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PosHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdatePosSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateSettings(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		if errors.Is(err, pos.ErrUnsupportedSystem) {
			c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to save POS settings"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PosHandler) TestConnection(c *gin.Context) {
	resp, err := h.svc.TestConnection(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		notFoundOr500(c, err, "POS is not configured")
		return
	}
	c.JSON(http.StatusOK, resp)
}
