package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
	"github.com/ukm-hub/backend/pkg/queue"
	"github.com/ukm-hub/backend/pkg/utils"
)

// Password length bounds. bcrypt only accepts up to 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

func validatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return apperrors.Validation("password must be at least 6 characters")
	case len(password) > MaxPasswordLength:
		return apperrors.Validation("password must be at most 72 bytes")
	}
	return nil
}

// UserStore is the user persistence the service needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	CreatePasswordReset(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ConsumePasswordReset(ctx context.Context, email, tokenHash, passwordHash string) (uuid.UUID, error)
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Role     string
	Profile  models.Profile
}

// Service implements account creation, authentication and password changes.
type Service struct {
	users    UserStore
	jwt      *JWTService
	notifier queue.Notifier
	resetTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates an auth service.
func NewService(users UserStore, jwt *JWTService, notifier queue.Notifier, resetTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = queue.Discard{}
	}
	if resetTTL <= 0 {
		resetTTL = 30 * time.Minute
	}
	return &Service{users: users, jwt: jwt, notifier: notifier, resetTTL: resetTTL, logger: logger, now: time.Now}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and returns it with a session token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", apperrors.Validation("a valid email is required")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(in.Profile.FullName) == "" {
		return nil, "", apperrors.Validation("full_name is required")
	}
	role, err := models.ParseGlobalRole(strings.TrimSpace(in.Role))
	if err != nil {
		return nil, "", apperrors.Validation("invalid role")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, "", apperrors.Internal("failed to hash password", err)
	}
	profile := in.Profile
	profile.FullName = strings.TrimSpace(profile.FullName)
	u := &models.User{
		Email:    email,
		Username: strings.TrimSpace(in.Username),
		Password: hash,
		Role:     role,
		Profile:  profile,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.jwt.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", apperrors.Internal("failed to generate token", err)
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	return u, token, nil
}

var (
	decoyOnce sync.Once
	decoyHash string
)

// decoy returns a hash compared against when the identifier is unknown, so
// unknown users and wrong passwords cost the same.
func decoy() string {
	decoyOnce.Do(func() {
		decoyHash, _ = utils.HashPassword(uuid.NewString())
	})
	return decoyHash
}

// Login authenticates by email, or by legacy username when the identifier has
// no "@". Unknown identifiers and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, identifier, password string) (*models.User, string, error) {
	invalid := apperrors.Unauthorized("invalid credentials")
	identifier = strings.TrimSpace(identifier)

	var u *models.User
	var err error
	if strings.Contains(identifier, "@") {
		u, err = s.users.GetByEmail(ctx, NormalizeEmail(identifier))
	} else {
		u, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			utils.CheckPassword(password, decoy())
			return nil, "", invalid
		}
		return nil, "", err
	}
	if !utils.CheckPassword(password, u.Password) {
		return nil, "", invalid
	}

	token, err := s.jwt.Issue(u.ID, u.Role)
	if err != nil {
		return nil, "", apperrors.Internal("failed to generate token", err)
	}
	return u, token, nil
}

// ChangePassword replaces a user's password. When current is non-nil it must
// match the stored hash first.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string, current *string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if current != nil && !utils.CheckPassword(*current, u.Password) {
		return apperrors.Forbidden("incorrect current password")
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// RequestPasswordReset issues a single-use reset token and queues it for
// delivery. It reports success for unknown emails too.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	token, err := utils.RandomToken()
	if err != nil {
		return apperrors.Internal("failed to generate reset token", err)
	}
	if err := s.users.CreatePasswordReset(ctx, u.ID, utils.HashToken(token), s.now().Add(s.resetTTL)); err != nil {
		return err
	}
	err = s.notifier.EnqueueNotification(ctx, queue.NotificationPayload{
		Kind:           models.NotificationPasswordReset,
		UserID:         u.ID,
		RecipientEmail: u.Email,
		Subject:        "Password reset",
		Body:           "Use this token to reset your password: " + token,
	})
	if err != nil {
		s.logger.Warn("enqueue password reset failed", zap.String("user_id", u.ID.String()), zap.Error(err))
	}
	return nil
}

// ResetPassword replaces the password of email after validating a reset token.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.Validation("reset_token is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}
	userID, err := s.users.ConsumePasswordReset(ctx, NormalizeEmail(email), utils.HashToken(token), hash)
	if err != nil {
		return err
	}
	s.logger.Info("password reset", zap.String("user_id", userID.String()))
	return nil
}
