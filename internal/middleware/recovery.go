package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"tslaglobal/backend/internal/util"
	"tslaglobal/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500 envelope and logs the stack
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log.WithFields(map[string]interface{}{
				"request_id": c.GetString("request_id"),
				"route":      c.FullPath(),
				"stack":      string(debug.Stack()),
			}).Error("Handler panicked", fmt.Errorf("panic: %v", rec))

			util.AbortWithCustomError(c, http.StatusInternalServerError, util.ErrCodeInternal, "Internal server error")
		}()
		c.Next()
	}
}
