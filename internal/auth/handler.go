package auth

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ukm-hub/backend/internal/middleware"
	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/response"
)

// RegisterRequest is the body for POST /register.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Username  string `json:"username"`
	Password  string `json:"password" binding:"required"`
	FullName  string `json:"full_name" binding:"required"`
	StudentID string `json:"student_id"`
	Faculty   string `json:"faculty"`
	Major     string `json:"major"`
	Phone     string `json:"phone"`
}

// LoginRequest is the body for POST /login. Email may be a legacy username.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest is the body for POST /forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest is the body for PUT /change-password.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	ResetToken  string `json:"reset_token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePasswordRequest is the body for PUT /users/:id/password.
type ChangePasswordRequest struct {
	CurrentPassword *string `json:"current_password"`
	NewPassword     string  `json:"new_password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Profile is the GET /me response.
type Profile struct {
	User          models.UserPublic         `json:"user"`
	Memberships   []models.UserMembership   `json:"memberships"`
	Registrations []models.UserRegistration `json:"registrations"`
}

// UserAdmin is the user listing and removal surface used by admins.
type UserAdmin interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.UserPublic, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MembershipLister lists a user's organizations.
type MembershipLister interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserMembership, error)
}

// RegistrationLister lists a user's event registrations.
type RegistrationLister interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserRegistration, error)
}

// Handler handles account HTTP endpoints.
type Handler struct {
	svc           *Service
	users         UserAdmin
	memberships   MembershipLister
	registrations RegistrationLister
	logger        *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(svc *Service, users UserAdmin, memberships MembershipLister, registrations RegistrationLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, users: users, memberships: memberships, registrations: registrations, logger: logger}
}

// Register handles POST /register. Accounts created here always get the user role.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: email, password and full_name are required")
		return
	}
	user, token, err := h.svc.Register(c.Request.Context(), RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Profile: models.Profile{
			FullName:  req.FullName,
			StudentID: req.StudentID,
			Faculty:   req.Faculty,
			Major:     req.Major,
			Phone:     req.Phone,
		},
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: password is required")
		return
	}
	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" {
		response.BadRequest(c, "email or username is required")
		return
	}
	user, token, err := h.svc.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// ForgotPassword handles POST /forgot-password. The answer is the same
// whether or not the email is registered.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email is required")
		return
	}
	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"message": "if the email is registered, a reset token has been sent"})
}

// ResetPassword handles PUT /change-password with a reset token.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email, reset_token and new_password are required")
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.Email, req.ResetToken, req.NewPassword); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"message": "password updated"})
}

// ChangePassword handles PUT /users/:id/password. The route guard admits the
// user themselves or a global admin.
func (h *Handler) ChangePassword(c *gin.Context) {
	id, err := middleware.ParamUUID(c, "id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "new_password is required")
		return
	}
	if caller := middleware.CallerFrom(c); !caller.Role.IsAdmin() && req.CurrentPassword == nil {
		response.BadRequest(c, "current_password is required")
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), id, req.NewPassword, req.CurrentPassword); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"message": "password updated"})
}

// List handles GET /users (global admin).
func (h *Handler) List(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /users/:id (global admin).
func (h *Handler) Delete(c *gin.Context) {
	id, err := middleware.ParamUUID(c, "id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.logger.Info("user deleted", zap.String("user_id", id.String()), zap.String("by", middleware.CallerFrom(c).UserID.String()))
	response.OK(c, gin.H{"message": "user deleted"})
}

// Me handles GET /me.
func (h *Handler) Me(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	ctx := c.Request.Context()
	user, err := h.users.GetByID(ctx, caller.UserID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	memberships, err := h.memberships.ListForUser(ctx, caller.UserID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	registrations, err := h.registrations.ListForUser(ctx, caller.UserID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, Profile{User: user.ToPublic(), Memberships: memberships, Registrations: registrations})
}
