package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/solar-lifecycle-api/pkg/logger"
)

// Logger returns a middleware that logs HTTP requests. Bodies are not
// logged; they carry customer addresses.
func Logger(log *logger.Logger) gin.HandlerFunc {
	zl := log.Zerolog()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		if raw != "" {
			path = path + "?" + raw
		}

		event := zl.Info()
		msg := "Request processed"
		switch {
		case statusCode >= 500:
			event = zl.Error()
			msg = "Server error"
		case statusCode >= 400:
			event = zl.Warn()
			msg = "Client error"
		}

		event.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("organization_id", c.GetHeader(HeaderXOrganizationID)).
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("latency", latency).
			Str("user_agent", c.Request.UserAgent()).
			Msg(msg)
	}
}
