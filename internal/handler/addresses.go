package handler

import (
	"net/http"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"

	"github.com/gin-gonic/gin"
)

type AddressesHandler struct{ svc service.AddressService }

func NewAddressesHandler(svc service.AddressService) *AddressesHandler {
	return &AddressesHandler{svc: svc}
}

func (h *AddressesHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AddressesHandler) Create(c *gin.Context) {
	var req dto.AddressRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Add(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AddressesHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req dto.AddressRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), actor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AddressesHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AddressesHandler) SetDefault(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.SetDefault(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
