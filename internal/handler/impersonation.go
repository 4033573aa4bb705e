package handler

import (
	"net/http"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"

	"github.com/gin-gonic/gin"
)

type ImpersonationHandler struct{ svc service.ImpersonationService }

func NewImpersonationHandler(svc service.ImpersonationService) *ImpersonationHandler {
	return &ImpersonationHandler{svc: svc}
}

// Start godoc
// @Summary Start acting as another account
// @Description Returns a new token pair whose identity is the target and whose original is the caller.
// @Tags impersonation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.StartImpersonationRequest true "Target"
// @Success 200 {object} dto.ImpersonationResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/impersonation/start [post]
func (h *ImpersonationHandler) Start(c *gin.Context) {
	var req dto.StartImpersonationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Start(c.Request.Context(), actor(c), req.TargetCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ImpersonationHandler) Stop(c *gin.Context) {
	resp, err := h.svc.Stop(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
