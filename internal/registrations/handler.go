package registrations

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ukm-hub/backend/internal/middleware"
	"github.com/ukm-hub/backend/internal/models"
	"github.com/ukm-hub/backend/pkg/queue"
	"github.com/ukm-hub/backend/pkg/response"
)

// Store is the registration persistence used by the handler.
type Store interface {
	Register(ctx context.Context, userID, eventID uuid.UUID) (*models.Registration, bool, error)
	Unregister(ctx context.Context, userID, eventID uuid.UUID) error
	ListParticipants(ctx context.Context, eventID uuid.UUID) ([]models.Participant, error)
}

// EventGetter loads the event being registered for.
type EventGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// Handler handles event registration HTTP endpoints.
type Handler struct {
	store    Store
	events   EventGetter
	notifier queue.Notifier
	logger   *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(store Store, events EventGetter, notifier queue.Notifier, logger *zap.Logger) *Handler {
	if notifier == nil {
		notifier = queue.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, events: events, notifier: notifier, logger: logger}
}

// Register handles POST /ukm/events/:event_id/register. 201 when a
// registration was created, 200 when the caller was already registered.
func (h *Handler) Register(c *gin.Context) {
	eventID, err := middleware.ParamUUID(c, "event_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	ctx := c.Request.Context()
	event, err := h.events.Get(ctx, eventID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	caller := middleware.CallerFrom(c)
	reg, created, err := h.store.Register(ctx, caller.UserID, eventID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if !created {
		response.OK(c, reg)
		return
	}
	if err := h.notifier.EnqueueNotification(ctx, queue.NotificationPayload{
		Kind:       models.NotificationEventRegistered,
		UserID:     caller.UserID,
		ResourceID: eventID,
		Subject:    "Registered for " + event.Name,
		Body:       "Your registration is confirmed.",
	}); err != nil {
		h.logger.Warn("enqueue registration notification failed", zap.String("event_id", eventID.String()), zap.Error(err))
	}
	response.Created(c, reg)
}

// Unregister handles DELETE /ukm/events/:event_id/unregister.
func (h *Handler) Unregister(c *gin.Context) {
	eventID, err := middleware.ParamUUID(c, "event_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	caller := middleware.CallerFrom(c)
	if err := h.store.Unregister(c.Request.Context(), caller.UserID, eventID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"message": "registration cancelled"})
}

// ListParticipants handles GET /ukm/events/:event_id/participants (org admin).
func (h *Handler) ListParticipants(c *gin.Context) {
	eventID, err := middleware.ParamUUID(c, "event_id")
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	list, err := h.store.ListParticipants(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}
