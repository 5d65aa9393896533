package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ukm-hub/backend/pkg/apperrors"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// Error maps a classified error to its status. Internal errors are logged and
// answered with a generic message so store diagnostics never reach the caller.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		if logger != nil {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
		Internal(c, "internal server error")
		return
	}
	msg := err.Error()
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	c.JSON(apperrors.Status(kind), Body{Success: false, Error: msg})
}

// Abort writes the mapped error and stops the handler chain.
func Abort(c *gin.Context, logger *zap.Logger, err error) {
	Error(c, logger, err)
	c.Abort()
}
