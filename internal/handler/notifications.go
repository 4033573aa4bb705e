package handler

import (
	"net/http"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationsHandler struct{ svc service.NotificationService }

func NewNotificationsHandler(svc service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{svc: svc}
}

func (h *NotificationsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), actor(c).Effective.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificationsHandler) UnreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context(), actor(c).Effective.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UnreadCountResponse{Unread: n})
}

func (h *NotificationsHandler) Send(c *gin.Context) {
	var req dto.SendNotificationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Send(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
