package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/title-scrutiny/internal/api/shared/errors"
	"github.com/feral-file/title-scrutiny/internal/logger"
)

// ClientIDHeader carries the browser's stable client id, which scopes custom columns
const ClientIDHeader = "X-Client-ID"

// Logger returns a gin middleware for structured logging using zap.
// Server errors are logged as warnings.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("client_id", c.GetHeader(ClientIDHeader)),
		}
		if id := c.Param("session_id"); id != "" {
			fields = append(fields, zap.String("session_id", id))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("API request failed", fields...)
			return
		}
		logger.Info("API request", fields...)
	}
}

// Recovery returns a gin middleware for panic recovery with logging
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(fmt.Errorf("panic recovered: %v", err),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierrors.NewInternalError("Internal server error"))
			}
		}()
		c.Next()
	}
}
