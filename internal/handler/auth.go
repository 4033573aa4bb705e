package handler

import (
	"net/http"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc   service.AuthService
	reset service.PasswordResetService
}

func NewAuthHandler(svc service.AuthService, reset service.PasswordResetService) *AuthHandler {
	return &AuthHandler{svc: svc, reset: reset}
}

// Login godoc
// @Summary Log in with username or email
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Failure 423 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Register godoc
// @Summary Self-register as a driver
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "New driver"
// @Success 201 {object} dto.AccountResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ForgotPassword always answers 202 so the endpoint cannot be used to probe
// which addresses have accounts.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.reset.RequestReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.MessageResponse{Message: "if the address is registered, a reset link has been sent"})
}

func (h *AuthHandler) ValidateResetToken(c *gin.Context) {
	acc, err := h.reset.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "username": acc.Username})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.reset.Consume(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "password updated, you can now log in"})
}

// ── Me ───────────────────────────────────────────────────────────────────────

func (h *AuthHandler) Me(c *gin.Context) {
	resp, err := h.svc.Me(c.Request.Context(), actor(c).Effective.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), actor(c), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "password changed"})
}

func (h *AuthHandler) UpdateNotificationSettings(c *gin.Context) {
	var req dto.NotificationSettingsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateNotificationSettings(c.Request.Context(), actor(c).Effective.Code, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) UpdateContact(c *gin.Context) {
	var req dto.UpdateContactRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateContact(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) SetupTOTP(c *gin.Context) {
	resp, err := h.svc.SetupTOTP(c.Request.Context(), actor(c).Effective.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) EnableTOTP(c *gin.Context) {
	var req dto.TOTPCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.EnableTOTP(c.Request.Context(), actor(c).Effective.Code, req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "two-factor authentication enabled"})
}

func (h *AuthHandler) DisableTOTP(c *gin.Context) {
	var req dto.TOTPCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.DisableTOTP(c.Request.Context(), actor(c), req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
