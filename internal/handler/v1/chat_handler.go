package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/service"
)

type ChatHandler struct {
	svc *service.ChatService
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type chatRequest struct {
	Message  string `json:"message"`
	ReportID string `json:"reportId"`
	Language string `json:"language"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(c, http.StatusBadRequest, "Message is required")
		return
	}

	cr := service.ChatRequest{Message: req.Message, Language: req.Language}
	if req.ReportID != "" {
		id, err := uuid.Parse(req.ReportID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid reportId: must be a valid UUID")
			return
		}
		cr.ReportID = &id
	}

	reply, err := h.svc.Reply(c.Request.Context(), actor(c), cr)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"reply": reply})
}
