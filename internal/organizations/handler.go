package organizations

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ukm-hub/backend/internal/middleware"
	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/apperrors"
	"github.com/ukm-hub/backend/pkg/queue"
	"github.com/ukm-hub/backend/pkg/response"
	"github.com/ukm-hub/backend/pkg/storage"
)

// Store is the organization persistence used by the handler.
type Store interface {
	Create(ctx context.Context, org *models.Organization, creatorID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	List(ctx context.Context) ([]models.Organization, error)
	ListMembers(ctx context.Context, ukmID uuid.UUID) ([]models.Member, error)
	Join(ctx context.Context, userID, ukmID uuid.UUID) (*models.Membership, bool, error)
	Leave(ctx context.Context, userID, ukmID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) (string, error)
	SetLogo(ctx context.Context, id uuid.UUID, url, key string) (string, error)
}

// EventLister lists an organization's events for the detail view.
type EventLister interface {
	ListByUKM(ctx context.Context, ukmID uuid.UUID) ([]models.Event, error)
}

// LogoStore uploads and removes logo objects. *storage.S3 satisfies it.
type LogoStore interface {
	UploadLogo(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	DeleteLogo(ctx context.Context, key string) error
}

// Handler handles organization HTTP endpoints.
type Handler struct {
	store    Store
	events   EventLister
	logos    LogoStore
	notifier queue.Notifier
	logger   *zap.Logger
}

// NewHandler creates an organizations handler. logos may be nil when object
// storage is not configured.
func NewHandler(store Store, events EventLister, logos LogoStore, notifier queue.Notifier, logger *zap.Logger) *Handler {
	if notifier == nil {
		notifier = queue.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, events: events, logos: logos, notifier: notifier, logger: logger}
}

// CreateRequest is the body for POST /ukm.
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// List handles GET /ukm.
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Create handles POST /ukm. The caller becomes the organization's admin.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name is required")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 255 {
		response.BadRequest(c, "name must be 1-255 characters")
		return
	}
	caller := middleware.CallerFrom(c)
	org := &models.Organization{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
	}
	if err := h.store.Create(c.Request.Context(), org, caller.UserID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.logger.Info("organization created", zap.String("ukm_id", org.ID.String()), zap.String("user_id", caller.UserID.String()))
	response.Created(c, org)
}

// Get handles GET /ukm/:ukm_id with members and events.
func (h *Handler) Get(c *gin.Context) {
	id, err := middleware.ParamUUID(c, "ukm_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	ctx := c.Request.Context()
	org, err := h.store.Get(ctx, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	members, err := h.store.ListMembers(ctx, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	events, err := h.events.ListByUKM(ctx, id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, models.OrganizationDetail{Organization: *org, Members: members, Events: events})
}

// Delete handles DELETE /ukm/:ukm_id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := middleware.ParamUUID(c, "ukm_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	logoKey, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.removeLogo(c.Request.Context(), logoKey)
	h.logger.Info("organization deleted", zap.String("ukm_id", id.String()))
	response.OK(c, gin.H{"message": "organization deleted"})
}

// Join handles POST /ukm/:ukm_id/join. 201 when the membership was created,
// 200 when the caller was already a member.
func (h *Handler) Join(c *gin.Context) {
	ukmID, err := middleware.ParamUUID(c, "ukm_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	caller := middleware.CallerFrom(c)
	ctx := c.Request.Context()
	m, created, err := h.store.Join(ctx, caller.UserID, ukmID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if !created {
		response.OK(c, m)
		return
	}
	subject := "Welcome to your new organization"
	if org, err := h.store.Get(ctx, ukmID); err == nil {
		subject = "Welcome to " + org.Name
	}
	if err := h.notifier.EnqueueNotification(ctx, queue.NotificationPayload{
		Kind:       models.NotificationMembershipJoined,
		UserID:     caller.UserID,
		ResourceID: ukmID,
		Subject:    subject,
		Body:       "Your membership is active.",
	}); err != nil {
		h.logger.Warn("enqueue membership notification failed", zap.String("ukm_id", ukmID.String()), zap.Error(err))
	}
	response.Created(c, m)
}

// Leave handles DELETE /ukm/:ukm_id/leave.
func (h *Handler) Leave(c *gin.Context) {
	ukmID, err := middleware.ParamUUID(c, "ukm_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	caller := middleware.CallerFrom(c)
	if err := h.store.Leave(c.Request.Context(), caller.UserID, ukmID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"message": "left organization"})
}

// UploadLogo handles POST /ukm/:ukm_id/logo (multipart form field "file").
func (h *Handler) UploadLogo(c *gin.Context) {
	if h.logos == nil {
		response.ServiceUnavailable(c, "logo storage not configured")
		return
	}
	ukmID, err := middleware.ScopedUKMID(c, "ukm_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > storage.MaxLogoFileSize {
		response.BadRequest(c, "file size exceeds 2MB limit")
		return
	}
	declared := file.Header.Get("Content-Type")
	if !storage.ValidateLogoType(declared, file.Filename) {
		response.BadRequest(c, "invalid file type: only jpg, png and webp images allowed")
		return
	}
	contentType := storage.LogoContentType(declared, file.Filename)
	key := storage.LogoKey(ukmID.String(), uuid.NewString(), contentType)

	rc, err := file.Open()
	if err != nil {
		response.Error(c, h.logger, apperrors.Internal("failed to read file", err))
		return
	}
	defer rc.Close()

	ctx := c.Request.Context()
	url, err := h.logos.UploadLogo(ctx, key, contentType, rc, file.Size)
	if err != nil {
		response.Error(c, h.logger, apperrors.Internal("failed to upload logo", err))
		return
	}
	oldKey, err := h.store.SetLogo(ctx, ukmID, url, key)
	if err != nil {
		h.removeLogo(ctx, key)
		response.Error(c, h.logger, err)
		return
	}
	h.removeLogo(ctx, oldKey)
	c.JSON(http.StatusOK, response.Body{Success: true, Data: gin.H{"logo_url": url}})
}

func (h *Handler) removeLogo(ctx context.Context, key string) {
	if key == "" || h.logos == nil {
		return
	}
	if err := h.logos.DeleteLogo(ctx, key); err != nil {
		h.logger.Warn("logo cleanup failed", zap.String("key", key), zap.Error(err))
	}
}
