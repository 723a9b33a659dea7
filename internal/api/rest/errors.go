package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/title-scrutiny/internal/api/shared/errors"
	"github.com/feral-file/title-scrutiny/internal/logger"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, apierrors.NewValidationError(message))
}

// respondError maps err to a status, logging internal errors
func respondError(c *gin.Context, err error, message string, fields ...zap.Field) {
	status, apiErr := apierrors.FromDomain(err, message)
	if status >= http.StatusInternalServerError {
		fields = append(fields, zap.String("path", c.Request.URL.Path))
		logger.ErrorCtx(c.Request.Context(), err, fields...)
	}
	c.JSON(status, apiErr)
}
