package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/config"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/auth"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/metrics"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	TouchLogin(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RegisterCommand struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Session is what register and login hand back to the client.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	users           UserRepository
	jwtManager      *auth.JWTManager
	notifications   *NotificationService
	auditSvc        *AuditService
	metrics         *metrics.Collector
	superAdminEmail string
	log             *zap.Logger
}

func NewAuthService(
	users UserRepository,
	jwtManager *auth.JWTManager,
	notifications *NotificationService,
	auditSvc *AuditService,
	m *metrics.Collector,
	superAdminEmail string,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:           users,
		jwtManager:      jwtManager,
		notifications:   notifications,
		auditSvc:        auditSvc,
		metrics:         m,
		superAdminEmail: superAdminEmail,
		log:             log,
	}
}

// Register creates the account and, for patients, fans a patient_registered
// notification out to every doctor. Self-registration may not claim admin.
func (s *AuthService) Register(ctx context.Context, cmd RegisterCommand) (*Session, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Email = strings.TrimSpace(cmd.Email)
	if cmd.Role == "" {
		cmd.Role = domain.RolePatient
	}
	if err := validateRegister(cmd); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Name:              cmd.Name,
		Email:             cmd.Email,
		PasswordHash:      hash,
		Role:              cmd.Role,
		PasswordChangedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		s.log.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	if s.metrics != nil {
		s.metrics.UsersRegisteredTotal.WithLabelValues(string(u.Role)).Inc()
	}
	s.log.Info("user registered", zap.String("user_id", u.ID.String()), zap.String("role", string(u.Role)))

	if u.Role == domain.RolePatient {
		s.fanOutRegistration(ctx, u)
	}

	return s.session(u)
}

func (s *AuthService) fanOutRegistration(ctx context.Context, patient *domain.User) {
	doctors, err := s.users.ListByRole(ctx, domain.RoleDoctor)
	if err != nil {
		s.log.Error("failed to load doctors for registration fan-out",
			zap.String("patient_id", patient.ID.String()),
			zap.Error(err),
		)
		return
	}
	delivered := s.notifications.NotifyPatientRegistered(ctx, patient, doctors)
	if delivered < len(doctors) {
		s.log.Warn("registration fan-out incomplete",
			zap.String("patient_id", patient.ID.String()),
			zap.Int("doctors", len(doctors)),
			zap.Int("delivered", delivered),
		)
	}
}

// Login fails identically for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error("failed to load user for login", zap.Error(err))
			return nil, fmt.Errorf("loading user: %w", err)
		}
		auth.BurnComparison(password)
		s.loginOutcome("unknown_email")
		return nil, ErrInvalidCredentials
	}

	if !auth.PasswordMatches(password, user.PasswordHash) {
		s.loginOutcome("bad_password")
		s.log.Warn("failed login attempt",
			zap.String("user_id", user.ID.String()),
			zap.String("ip", ip),
		)
		return nil, ErrInvalidCredentials
	}

	if err := s.users.TouchLogin(ctx, user.ID); err != nil {
		s.log.Warn("failed to record login time", zap.Error(err))
	}
	s.loginOutcome("success")

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       user.ID,
		UserRole:     user.Role,
		Action:       domain.ActionLogin,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", ip),
	)
	return s.session(user)
}

// ChangePassword updates a user's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor domain.Actor, oldPassword, newPassword string) error {
	if newPassword == "" {
		return &ValidationError{Fields: []string{"newPassword is required"}}
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if s.IsSuperAdmin(user) {
		return &ProtectedAccountError{Message: "Cannot change Super Admin password"}
	}

	if !auth.PasswordMatches(oldPassword, user.PasswordHash) {
		return ErrInvalidOldPassword
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, auditEntry(actor, domain.ActionUpdate, "user_password", user.ID.String()))
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Authenticate resolves a bearer token to the user it was issued for. The
// user is reloaded so deleted accounts and role changes take effect at once.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwtManager.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, auth.ErrTokenInvalid
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) IsSuperAdmin(u *domain.User) bool {
	return u != nil && u.Email == s.superAdminEmail
}

// SeedSuperAdmin creates the reserved admin account when it does not exist.
func (s *AuthService) SeedSuperAdmin(ctx context.Context, cfg config.AdminConfig, password string) error {
	existing, err := s.users.GetByEmail(ctx, cfg.Email)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			s.log.Warn("super admin account does not hold the admin role", zap.String("role", string(existing.Role)))
		}
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("looking up super admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Name:              cfg.Name,
		Email:             cfg.Email,
		PasswordHash:      hash,
		Role:              domain.RoleAdmin,
		PasswordChangedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, admin); err != nil {
		// another replica may have won the race
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil
		}
		return fmt.Errorf("creating super admin: %w", err)
	}

	s.log.Info("super admin account created", zap.String("email", cfg.Email))
	return nil
}

func (s *AuthService) session(u *domain.User) (*Session, error) {
	token, exp, err := s.jwtManager.IssueToken(u.ID, u.Role)
	if err != nil {
		s.log.Error("failed to issue token", zap.Error(err))
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &Session{User: u, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) loginOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func validateRegister(cmd RegisterCommand) error {
	var errs []string
	if cmd.Name == "" {
		errs = append(errs, "name is required")
	}
	if cmd.Email == "" {
		errs = append(errs, "email is required")
	} else if !strings.Contains(cmd.Email, "@") {
		errs = append(errs, "email must be a valid address")
	}
	if cmd.Password == "" {
		errs = append(errs, "password is required")
	}
	switch cmd.Role {
	case domain.RolePatient, domain.RoleDoctor:
	case domain.RoleAdmin:
		errs = append(errs, "role: admin accounts are created by an administrator")
	default:
		errs = append(errs, "role must be one of patient, doctor")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
