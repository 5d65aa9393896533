package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ukm-hub/backend/internal/authz"
	"github.com/ukm-hub/backend/pkg/apperrors"
	"github.com/ukm-hub/backend/pkg/response"
)

// ScopeResolver finds the organization a request acts on.
type ScopeResolver func(c *gin.Context) (uuid.UUID, error)

// EventScopeLookup maps an event to its owning organization. It returns an
// apperrors NotFound error for unknown events.
type EventScopeLookup interface {
	UKMIDOf(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error)
}

// FromParam reads the organization ID from a path parameter.
func FromParam(param string) ScopeResolver {
	return func(c *gin.Context) (uuid.UUID, error) {
		return ParamUUID(c, param)
	}
}

// FromEvent resolves the organization owning the event named by a path parameter.
func FromEvent(lookup EventScopeLookup, param string) ScopeResolver {
	return func(c *gin.Context) (uuid.UUID, error) {
		eventID, err := ParamUUID(c, param)
		if err != nil {
			return uuid.Nil, err
		}
		return lookup.UKMIDOf(c.Request.Context(), eventID)
	}
}

// RequireOrgAdmin allows platform admins and admins of the resolved
// organization. The resolved ID is stored under ContextUKMID.
func RequireOrgAdmin(guard *authz.Guard, resolve ScopeResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFrom(c)
		if caller == nil {
			response.Abort(c, logger, apperrors.Unauthorized("authentication required"))
			return
		}
		ukmID, err := resolve(c)
		if err != nil {
			response.Abort(c, logger, err)
			return
		}
		if err := guard.RequireOrgAdmin(c.Request.Context(), caller, ukmID); err != nil {
			response.Abort(c, logger, err)
			return
		}
		c.Set(ContextUKMID, ukmID)
		c.Next()
	}
}

// ScopedUKMID returns the organization resolved by RequireOrgAdmin, falling
// back to the named path parameter on routes without that guard.
func ScopedUKMID(c *gin.Context, param string) (uuid.UUID, error) {
	if v, ok := c.Get(ContextUKMID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id, nil
		}
	}
	return ParamUUID(c, param)
}
