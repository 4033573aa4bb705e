package handler

import (
	"net/http"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"

	"github.com/gin-gonic/gin"
)

type PointsHandler struct {
	ledger service.LedgerService
	audit  service.AuditService
}

func NewPointsHandler(ledger service.LedgerService, audit service.AuditService) *PointsHandler {
	return &PointsHandler{ledger: ledger, audit: audit}
}

// Award godoc
// @Summary Award points to a driver
// @Tags points
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PointsAdjustRequest true "Adjustment"
// @Success 200 {object} dto.PointsAdjustResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sponsor/points/award [post]
func (h *PointsHandler) Award(c *gin.Context) {
	var req dto.PointsAdjustRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.Award(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Remove godoc
// @Summary Remove points from a driver
// @Tags points
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.PointsAdjustRequest true "Adjustment"
// @Success 200 {object} dto.PointsAdjustResponse
// @Failure 422 {object} apierror.APIError "insufficient balance"
// @Router /v1/sponsor/points/remove [post]
func (h *PointsHandler) Remove(c *gin.Context) {
	var req dto.PointsAdjustRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ledger.Remove(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PointsHandler) SponsorDrivers(c *gin.Context) {
	sponsorCode, ok := sponsorScope(c)
	if !ok {
		return
	}
	resp, err := h.ledger.SponsorDrivers(c.Request.Context(), sponsorCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PointsHandler) SponsorHistory(c *gin.Context) {
	sponsorCode, ok := sponsorScope(c)
	if !ok {
		return
	}
	resp, err := h.audit.PointHistory(c.Request.Context(), nil, &sponsorCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PointsHandler) DriverBalances(c *gin.Context) {
	resp, err := h.ledger.Balances(c.Request.Context(), actor(c).Effective.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PointsHandler) DriverHistory(c *gin.Context) {
	code := actor(c).Effective.Code
	resp, err := h.audit.PointHistory(c.Request.Context(), &code, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Checkout godoc
// @Summary Redeem the cart for one sponsor
// @Tags store
// @Produce json
// @Security BearerAuth
// @Param sponsor path int true "Sponsor code"
// @Success 201 {object} dto.CheckoutResponse
// @Failure 422 {object} apierror.APIError "empty cart or insufficient balance"
// @Router /v1/store/{sponsor}/checkout [post]
func (h *PointsHandler) Checkout(c *gin.Context) {
	sponsorCode, ok := uintParam(c, "sponsor")
	if !ok {
		return
	}
	resp, err := h.ledger.Checkout(c.Request.Context(), actor(c), sponsorCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
