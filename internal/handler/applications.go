package handler

import (
	"net/http"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"

	"github.com/gin-gonic/gin"
)

type ApplicationsHandler struct{ svc service.ApplicationService }

func NewApplicationsHandler(svc service.ApplicationService) *ApplicationsHandler {
	return &ApplicationsHandler{svc: svc}
}

func (h *ApplicationsHandler) Sponsors(c *gin.Context) {
	resp, err := h.svc.AvailableSponsors(c.Request.Context(), actor(c).Effective.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ApplicationsHandler) Apply(c *gin.Context) {
	var req dto.ApplyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Apply(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ApplicationsHandler) DriverApplications(c *gin.Context) {
	resp, err := h.svc.ListForDriver(c.Request.Context(), actor(c).Effective.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ApplicationsHandler) Pending(c *gin.Context) {
	sponsorCode, ok := sponsorScope(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListPending(c.Request.Context(), sponsorCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ApplicationsHandler) Decide(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req dto.ApplicationDecisionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Decide(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
