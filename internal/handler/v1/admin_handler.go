package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/service"
)

type AdminHandler struct {
	svc *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

type updateRoleRequest struct {
	Role domain.Role `json:"role"`
}

type userSummary struct {
	ID    uuid.UUID   `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, users)
}

func (h *AdminHandler) UpdateRole(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.svc.UpdateRole(c.Request.Context(), actor(c), id, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, userSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

func (h *AdminHandler) ResetPassword(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	pw, err := h.svc.ResetPassword(c.Request.Context(), actor(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, "Password reset to "+pw)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), actor(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, "User removed")
}
