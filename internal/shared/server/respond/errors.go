package respond

import (
	"github.com/gin-gonic/gin"

	"callcoach-backend/internal/shared/telemetry"
)

// ErrorResponse is the error body returned by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Debug string `json:"debug,omitempty"`
}

// Error logs the failure and aborts with {error, debug?}. An empty debug is omitted.
func Error(c *gin.Context, status int, message, debug string) {
	fields := map[string]any{
		"status":     status,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if debug != "" {
		fields["debug"] = debug
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Debug: debug})
}
