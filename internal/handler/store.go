package handler

import (
	"net/http"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"

	"github.com/gin-gonic/gin"
)

type StoreHandler struct{ svc service.StoreService }

func NewStoreHandler(svc service.StoreService) *StoreHandler { return &StoreHandler{svc: svc} }

// Catalog godoc
// @Summary Search a sponsor's catalog
// @Description Items come from the sponsor's configured category; points are floor(price * point ratio).
// @Tags store
// @Produce json
// @Security BearerAuth
// @Param sponsor path int true "Sponsor code"
// @Param q query string false "Keywords"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Success 200 {array} dto.CatalogItem
// @Failure 503 {object} apierror.APIError
// @Router /v1/store/{sponsor}/catalog [get]
func (h *StoreHandler) Catalog(c *gin.Context) {
	sponsorCode, ok := uintParam(c, "sponsor")
	if !ok {
		return
	}
	var q dto.CatalogQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Search(c.Request.Context(), actor(c), sponsorCode, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) Cart(c *gin.Context) {
	sponsorCode, ok := uintParam(c, "sponsor")
	if !ok {
		return
	}
	resp, err := h.svc.Cart(c.Request.Context(), actor(c), sponsorCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) AddToCart(c *gin.Context) {
	sponsorCode, ok := uintParam(c, "sponsor")
	if !ok {
		return
	}
	var req dto.AddCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddToCart(c.Request.Context(), actor(c), sponsorCode, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) UpdateCartItem(c *gin.Context) {
	sponsorCode, ok := uintParam(c, "sponsor")
	if !ok {
		return
	}
	var req dto.UpdateCartItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateCartItem(c.Request.Context(), actor(c), sponsorCode, c.Param("item"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) RemoveCartItem(c *gin.Context) {
	sponsorCode, ok := uintParam(c, "sponsor")
	if !ok {
		return
	}
	resp, err := h.svc.RemoveCartItem(c.Request.Context(), actor(c), sponsorCode, c.Param("item"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Wishlist ─────────────────────────────────────────────────────────────────

func (h *StoreHandler) Wishlist(c *gin.Context) {
	resp, err := h.svc.Wishlist(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) AddToWishlist(c *gin.Context) {
	var req dto.WishlistAddRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddToWishlist(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *StoreHandler) RemoveFromWishlist(c *gin.Context) {
	if err := h.svc.RemoveFromWishlist(c.Request.Context(), actor(c), c.Param("item")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StoreHandler) MoveToCart(c *gin.Context) {
	var req dto.MoveToCartRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.MoveToCart(c.Request.Context(), actor(c), c.Param("item"), req.SponsorCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Settings & purchases ─────────────────────────────────────────────────────

func (h *StoreHandler) Settings(c *gin.Context) {
	sponsorCode, ok := sponsorScope(c)
	if !ok {
		return
	}
	resp, err := h.svc.Settings(c.Request.Context(), sponsorCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) UpdateSettings(c *gin.Context) {
	var req dto.StoreSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateSettings(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) DriverPurchases(c *gin.Context) {
	resp, err := h.svc.DriverPurchases(c.Request.Context(), actor(c).Effective.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) SponsorPurchases(c *gin.Context) {
	sponsorCode, ok := sponsorScope(c)
	if !ok {
		return
	}
	resp, err := h.svc.SponsorPurchases(c.Request.Context(), sponsorCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
