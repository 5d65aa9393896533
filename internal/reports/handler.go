package reports

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ukm-hub/backend/internal/middleware"
	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/response"
)

// Store is the report persistence used by the handler.
type Store interface {
	Create(ctx context.Context, rep *models.Report) error
	ListByUKM(ctx context.Context, ukmID uuid.UUID) ([]models.Report, error)
}

// Handler handles organization report endpoints. Both routes require org admin.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a reports handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// CreateRequest is the body for POST /ukm/:ukm_id/reports.
type CreateRequest struct {
	Title   string     `json:"title" binding:"required"`
	Content string     `json:"content"`
	EventID *uuid.UUID `json:"event_id"`
}

// Create handles POST /ukm/:ukm_id/reports.
func (h *Handler) Create(c *gin.Context) {
	ukmID, err := middleware.ScopedUKMID(c, "ukm_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "title is required")
		return
	}
	rep := &models.Report{
		UKMID:     ukmID,
		EventID:   req.EventID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedBy: middleware.CallerFrom(c).UserID,
	}
	if err := h.store.Create(c.Request.Context(), rep); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.logger.Info("report created", zap.String("report_id", rep.ID.String()), zap.String("ukm_id", ukmID.String()))
	response.Created(c, rep)
}

// List handles GET /ukm/:ukm_id/reports.
func (h *Handler) List(c *gin.Context) {
	ukmID, err := middleware.ScopedUKMID(c, "ukm_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.store.ListByUKM(c.Request.Context(), ukmID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}
