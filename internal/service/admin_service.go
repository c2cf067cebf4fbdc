package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/auth"
)

// AdminService performs account mutations. The super-admin account is immune
// to every one of them regardless of who asks.
type AdminService struct {
	users         UserRepository
	authSvc       *AuthService
	auditSvc      *AuditService
	resetPassword string
	log           *zap.Logger
}

func NewAdminService(users UserRepository, authSvc *AuthService, auditSvc *AuditService, resetPassword string, log *zap.Logger) *AdminService {
	return &AdminService{
		users:         users,
		authSvc:       authSvc,
		auditSvc:      auditSvc,
		resetPassword: resetPassword,
		log:           log,
	}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *AdminService) UpdateRole(ctx context.Context, actor domain.Actor, id uuid.UUID, role domain.Role) (*domain.User, error) {
	if !role.IsValid() {
		return nil, domain.ErrInvalidRole
	}

	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.authSvc.IsSuperAdmin(target) {
		return nil, &ProtectedAccountError{Message: "Cannot modify Super Admin"}
	}

	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	entry := auditEntry(actor, domain.ActionRoleChange, "user", id.String())
	entry.Changes = string(target.Role) + " -> " + string(role)
	s.auditSvc.LogAsync(ctx, entry)

	s.log.Info("user role changed",
		zap.String("admin_id", actor.ID.String()),
		zap.String("user_id", id.String()),
		zap.String("from", string(target.Role)),
		zap.String("to", string(role)),
	)

	target.Role = role
	return target, nil
}

// ResetPassword assigns the configured reset password and returns it so the
// admin can pass it on.
func (s *AdminService) ResetPassword(ctx context.Context, actor domain.Actor, id uuid.UUID) (string, error) {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if s.authSvc.IsSuperAdmin(target) {
		return "", &ProtectedAccountError{Message: "Cannot reset Super Admin password"}
	}

	hash, err := auth.HashPassword(s.resetPassword)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return "", err
	}

	s.auditSvc.LogAsync(ctx, auditEntry(actor, domain.ActionPasswordReset, "user", id.String()))
	s.log.Info("user password reset",
		zap.String("admin_id", actor.ID.String()),
		zap.String("user_id", id.String()),
	)
	return s.resetPassword, nil
}

// DeleteUser removes the account only. Reports and notifications that
// reference it are kept and render the user as "Unknown".
func (s *AdminService) DeleteUser(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.authSvc.IsSuperAdmin(target) {
		return &ProtectedAccountError{Message: "Cannot delete Super Admin"}
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, auditEntry(actor, domain.ActionDelete, "user", id.String()))
	s.log.Info("user deleted",
		zap.String("admin_id", actor.ID.String()),
		zap.String("user_id", id.String()),
	)
	return nil
}
