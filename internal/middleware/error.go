package middleware

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/logger"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler renders errors attached with c.Error by handlers that did not
// write a response themselves.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		traceID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			fields := []interface{}{
				"trace_id", traceID,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			}
			if statusOf(e.Err) < http.StatusInternalServerError {
				log.Warn("Request rejected", append(fields, "error", e.Err.Error())...)
				continue
			}
			log.Error(e.Err, "Request error", fields...)
		}

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		status := statusOf(lastErr.Err)
		message := "Internal server error"

		var appErr *errors.AppError
		if stderrors.As(lastErr.Err, &appErr) {
			message = appErr.Message
		}

		c.JSON(status, ErrorResponse{
			Code:    status,
			Message: message,
			TraceID: traceID,
		})
	}
}

func statusOf(err error) int {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
