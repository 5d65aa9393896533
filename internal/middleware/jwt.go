package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ukm-hub/backend/internal/authz"
	"github.com/ukm-hub/backend/pkg/apperrors"
	"github.com/ukm-hub/backend/pkg/response"
)

const (
	// ContextCaller is the key for the authenticated *authz.Caller in gin context.
	ContextCaller = "caller"
	// ContextUKMID is the key for the organization resolved by RequireOrgAdmin.
	ContextUKMID = "ukm_id"
)

// TokenVerifier validates bearer tokens and returns the caller they identify.
type TokenVerifier interface {
	VerifyCaller(token string) (*authz.Caller, error)
}

// Authenticate validates the bearer token and stores the caller in context.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		caller, err := verifier.VerifyCaller(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextCaller, caller)
		c.Next()
	}
}

// CallerFrom returns the authenticated caller, or nil on public routes.
func CallerFrom(c *gin.Context) *authz.Caller {
	v, ok := c.Get(ContextCaller)
	if !ok {
		return nil
	}
	caller, _ := v.(*authz.Caller)
	return caller
}

// ParamUUID parses a path parameter as a UUID.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid " + name)
	}
	return id, nil
}
