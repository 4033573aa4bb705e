package handler

import (
	"net/http"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"

	"github.com/gin-gonic/gin"
)

// AccountsHandler serves the administrator console and sponsor-side driver
// enrolment.
type AccountsHandler struct {
	svc   service.AccountService
	audit service.AuditService
}

func NewAccountsHandler(svc service.AccountService, audit service.AuditService) *AccountsHandler {
	return &AccountsHandler{svc: svc, audit: audit}
}

// Create godoc
// @Summary Create an account with a temporary password
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateAccountRequest true "Account"
// @Success 201 {object} dto.CreateAccountResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/admin/accounts [post]
func (h *AccountsHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AccountsHandler) SponsorCreateDriver(c *gin.Context) {
	var req dto.SponsorCreateDriverRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SponsorCreateDriver(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AccountsHandler) List(c *gin.Context) {
	var filter dto.AccountFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountsHandler) ListLocked(c *gin.Context) {
	resp, err := h.svc.ListLocked(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountsHandler) Update(c *gin.Context) {
	code, ok := uintParam(c, "code")
	if !ok {
		return
	}
	var req dto.UpdateAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), actor(c), code, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// accountAction runs a code-scoped admin operation that returns no body.
func (h *AccountsHandler) accountAction(op func(*gin.Context, uint) error, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, ok := uintParam(c, "code")
		if !ok {
			return
		}
		if err := op(c, code); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponse{Message: msg})
	}
}

func (h *AccountsHandler) Disable() gin.HandlerFunc {
	return h.accountAction(func(c *gin.Context, code uint) error {
		return h.svc.Disable(c.Request.Context(), actor(c), code)
	}, "account disabled")
}

func (h *AccountsHandler) Enable() gin.HandlerFunc {
	return h.accountAction(func(c *gin.Context, code uint) error {
		return h.svc.Enable(c.Request.Context(), actor(c), code)
	}, "account enabled")
}

func (h *AccountsHandler) Unlock() gin.HandlerFunc {
	return h.accountAction(func(c *gin.Context, code uint) error {
		return h.svc.Unlock(c.Request.Context(), actor(c), code)
	}, "account unlocked")
}

func (h *AccountsHandler) ClearTimeout() gin.HandlerFunc {
	return h.accountAction(func(c *gin.Context, code uint) error {
		return h.svc.ClearTimeout(c.Request.Context(), actor(c), code)
	}, "timeout cleared")
}

func (h *AccountsHandler) UnlockAll(c *gin.Context) {
	n, err := h.svc.UnlockAll(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UnlockAllResponse{Unlocked: n})
}

func (h *AccountsHandler) Timeout(c *gin.Context) {
	code, ok := uintParam(c, "code")
	if !ok {
		return
	}
	var req dto.TimeoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Timeout(c.Request.Context(), actor(c), code, req.Minutes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountsHandler) ResetPassword(c *gin.Context) {
	code, ok := uintParam(c, "code")
	if !ok {
		return
	}
	temp, err := h.svc.ResetPassword(c.Request.Context(), actor(c), code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ResetPasswordResponse{TemporaryPassword: temp})
}

func (h *AccountsHandler) ListSponsors(c *gin.Context) {
	resp, err := h.svc.ListSponsors(c.Request.Context(), model.SponsorStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountsHandler) ReviewSponsor(c *gin.Context) {
	code, ok := uintParam(c, "code")
	if !ok {
		return
	}
	var req dto.SponsorReviewRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ReviewSponsor(c.Request.Context(), actor(c), code, req.Decision)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AuditLogs godoc
// @Summary Query the audit log, newest first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param type query string false "Event type"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date, inclusive (YYYY-MM-DD)"
// @Success 200 {array} dto.AuditLogResponse
// @Router /v1/admin/audit-logs [get]
func (h *AccountsHandler) AuditLogs(c *gin.Context) {
	var filter dto.AuditFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
