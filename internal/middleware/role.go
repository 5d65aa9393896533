package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ukm-hub/backend/internal/authz"
	"github.com/ukm-hub/backend/pkg/response"
)

// RequireGlobalAdmin allows only platform admins. Must run after Authenticate.
func RequireGlobalAdmin(guard *authz.Guard, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := guard.RequireGlobalAdmin(CallerFrom(c)); err != nil {
			response.Abort(c, logger, err)
			return
		}
		c.Next()
	}
}

// RequireSelfOrAdmin allows the user named by the path parameter or a platform admin.
func RequireSelfOrAdmin(guard *authz.Guard, param string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := ParamUUID(c, param)
		if err != nil {
			response.Abort(c, logger, err)
			return
		}
		if err := guard.RequireSelfOrAdmin(CallerFrom(c), target); err != nil {
			response.Abort(c, logger, err)
			return
		}
		c.Next()
	}
}
