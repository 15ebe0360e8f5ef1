package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"picture-analysis/internal/shared/metrics"
	"picture-analysis/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log.
const (
	PictureIDKey = "pictureId"
	TaskIDKey    = "taskId"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if v := c.GetString(PictureIDKey); v != "" {
			fields["picture_id"] = v
		}
		if v := c.GetString(TaskIDKey); v != "" {
			fields["task_id"] = v
		}
		metrics.IncHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status())
		telemetry.Info("request.complete", fields)
	}
}
