package events

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ukm-hub/backend/internal/middleware"
	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/response"
)

// Store is the event persistence used by the handler.
type Store interface {
	Create(ctx context.Context, ukmID, createdBy uuid.UUID, in Input) (*models.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListByUKM(ctx context.Context, ukmID uuid.UUID) ([]models.Event, error)
	Update(ctx context.Context, id uuid.UUID, in Input) (*models.Event, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrganizationGetter confirms an organization exists.
type OrganizationGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

// Handler handles event HTTP endpoints.
type Handler struct {
	store  Store
	orgs   OrganizationGetter
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(store Store, orgs OrganizationGetter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, orgs: orgs, logger: logger}
}

// EventRequest is the body for POST /ukm/:ukm_id/events and PUT /ukm/events/:event_id.
type EventRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	EventDate   *time.Time `json:"event_date"`
	Location    *string    `json:"location"`
	Status      *string    `json:"status"`
}

func (r EventRequest) input() Input {
	return Input{Name: r.Name, Description: r.Description, EventDate: r.EventDate, Location: r.Location, Status: r.Status}
}

// ListByUKM handles GET /ukm/:ukm_id/events.
func (h *Handler) ListByUKM(c *gin.Context) {
	ukmID, err := middleware.ParamUUID(c, "ukm_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := h.orgs.Get(ctx, ukmID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.store.ListByUKM(ctx, ukmID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Create handles POST /ukm/:ukm_id/events (org admin).
func (h *Handler) Create(c *gin.Context) {
	ukmID, err := middleware.ScopedUKMID(c, "ukm_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	caller := middleware.CallerFrom(c)
	e, err := h.store.Create(c.Request.Context(), ukmID, caller.UserID, req.input())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.logger.Info("event created", zap.String("event_id", e.ID.String()), zap.String("ukm_id", ukmID.String()))
	response.Created(c, e)
}

// Get handles GET /ukm/events/:event_id.
func (h *Handler) Get(c *gin.Context) {
	id, err := middleware.ParamUUID(c, "event_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	e, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, e)
}

// Update handles PUT /ukm/events/:event_id (org admin of the owning organization).
func (h *Handler) Update(c *gin.Context) {
	id, err := middleware.ParamUUID(c, "event_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e, err := h.store.Update(c.Request.Context(), id, req.input())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /ukm/events/:event_id (org admin of the owning organization).
func (h *Handler) Delete(c *gin.Context) {
	id, err := middleware.ParamUUID(c, "event_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	h.logger.Info("event deleted", zap.String("event_id", id.String()))
	response.OK(c, gin.H{"message": "event deleted"})
}
