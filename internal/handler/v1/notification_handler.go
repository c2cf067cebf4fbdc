package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain/notification"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/service"
)

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), notification.ListQuery{
		UserID: actor(c).ID,
		Page:   parseQueryInt(c, "page", 1),
		Limit:  parseQueryInt(c, "limit", 20),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context(), actor(c).ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"count": n})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	n, err := h.svc.MarkRead(c.Request.Context(), id, actor(c).ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, n)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.svc.MarkAllRead(c.Request.Context(), actor(c).ID); err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, "All notifications marked as read")
}
