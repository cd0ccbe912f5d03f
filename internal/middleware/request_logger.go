package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mroshb/friendgraph/internal/metrics"
	"github.com/mroshb/friendgraph/pkg/errors"
	"github.com/mroshb/friendgraph/pkg/logger"
	"github.com/mroshb/friendgraph/pkg/response"
)

// RequestLogger logs every request and counts it by route and status.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		metrics.ObserveHTTPRequest(c.Request.Method, route, status)

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID, ok := GetUserID(c); ok {
			fields = append(fields, "user_id", userID)
		}
		if username, ok := GetUsername(c); ok {
			fields = append(fields, "username", username)
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case status >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Debug("HTTP request", fields...)
		}
	}
}

// Recovery turns panics into 500 responses and logs them.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered", "path", c.Request.URL.Path, "panic", recovered)
		response.Error(c, errors.New(errors.ErrCodeInternalError, "internal server error"))
	})
}
