package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"callcoach-backend/internal/shared/server/respond"
	"callcoach-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into a 500 carrying message. The panic
// value and stack go to the log only.
func Recovery(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("http.panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"panic":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"route":      c.FullPath(),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, message, "")
			c.Abort()
		}()
		c.Next()
	}
}
