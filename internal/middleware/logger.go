package middleware

import (
	"time"

	"tslaglobal/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or mints one, and echoes it back
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// quietRoutes are polled by probes and clients and only logged at debug
var quietRoutes = map[string]bool{
	"/health":        true,
	"/api/v1/ping":   true,
	"/api/v1/market": true,
	"/api/v1/chat":   true,
}

// Logger writes one structured line per request once the handler returns
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := map[string]interface{}{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
		}
		if userID := c.GetString("user_id"); userID != "" {
			fields["user_id"] = userID
		}

		entry := log.WithFields(fields)
		switch {
		case status >= 500:
			var cause error
			if last := c.Errors.Last(); last != nil {
				cause = last.Err
			}
			entry.Error("Request failed", cause)
		case status >= 400:
			if len(c.Errors) > 0 {
				entry = entry.WithField("errors", c.Errors.String())
			}
			entry.Warn("Request rejected")
		case quietRoutes[route] && c.Request.Method == "GET":
			entry.Debug("Request served")
		default:
			entry.Info("Request served")
		}
	}
}
