package service

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/platform/dialogue"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/platform/inference"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrSuperAdminProtected is the cause behind every ProtectedAccountError.
	ErrSuperAdminProtected = errors.New("super admin account is protected")

	ErrInferenceUnavailable = inference.ErrUnavailable
	ErrDialogueUnavailable  = dialogue.ErrUnavailable
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// ProtectedAccountError carries the operation-specific message shown to the
// admin who attempted to touch the super-admin account.
type ProtectedAccountError struct {
	Message string
}

func (e *ProtectedAccountError) Error() string { return e.Message }

func (e *ProtectedAccountError) Unwrap() error { return ErrSuperAdminProtected }

type AuditEntry struct {
	UserID       uuid.UUID
	UserRole     domain.Role
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	Changes      string
}

func auditEntry(actor domain.Actor, action domain.AuditAction, resourceType, resourceID string) AuditEntry {
	return AuditEntry{
		UserID:       actor.ID,
		UserRole:     actor.Role,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    actor.IPAddress,
		RequestID:    actor.RequestID,
	}
}
