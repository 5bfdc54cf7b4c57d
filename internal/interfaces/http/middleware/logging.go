// Package middleware holds the gin middleware shared by the HTTP API.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mailsweep/mailsweep/internal/infrastructure/monitoring/logging"
)

// RequestMetrics receives per-request measurements.
type RequestMetrics interface {
	RecordHTTPRequest(method, path, status string, elapsed time.Duration)
}

// RequestLogger logs every request and records it against metrics. metrics
// may be nil.
func RequestLogger(logger logging.Logger, metrics RequestMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("elapsed", elapsed),
		}
		if status >= 500 {
			logger.Error("http request", fields...)
		} else {
			logger.Info("http request", fields...)
		}

		if metrics != nil {
			metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(status), elapsed)
		}
	}
}

// Recovery converts panics into 500 responses with a log entry.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("panic recovered",
			logging.Any("panic", recovered),
			logging.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(500, gin.H{"code": "INTERNAL", "message": "internal server error"})
	})
}
