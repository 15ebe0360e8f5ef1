package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"picture-analysis/internal/shared/telemetry"
)

// ErrorBody is the payload under "error" in every failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error aborts the request with status and logs it; 5xx at error level, the rest at warn.
func Error(c *gin.Context, status int, code, message string, details any) {
	log := telemetry.Warn
	if status >= http.StatusInternalServerError {
		log = telemetry.Error
	}
	log("http.error", map[string]any{
		"request_id": c.GetString("requestId"),
		"method":     c.Request.Method,
		"route":      c.FullPath(),
		"path":       c.Request.URL.Path,
		"status":     status,
		"code":       code,
		"message":    message,
	})
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}
