package httputil

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/solar-lifecycle-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// TransitionDetails is attached to 409 responses.
type TransitionDetails struct {
	Entity string `json:"entity"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondWithError maps err onto an HTTP status. Errors without an
// application code are reported as internal errors without their text.
// The error is also attached to the context for the error middleware to log.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, Response{
			Status:  "error",
			Message: "internal server error",
		})
		return
	}

	resp := Response{
		Status:  "error",
		Message: appErr.Message,
	}
	if te, ok := errors.AsTransition(err); ok {
		resp.Message = te.Error()
		resp.Details = TransitionDetails{Entity: te.Entity, From: te.From, To: te.To, Reason: te.Reason}
	}
	c.JSON(appErr.HTTPStatus(), resp)
}

// RespondWithBindError reports a request body or query that failed binding.
// Validation failures list the offending fields.
func RespondWithBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, strings.ToLower(fe.Field())+" failed "+fe.Tag())
		}
		c.JSON(http.StatusBadRequest, Response{
			Status:  "error",
			Message: "invalid request",
			Details: fields,
		})
		return
	}
	c.JSON(http.StatusBadRequest, Response{
		Status:  "error",
		Message: "invalid request body",
	})
}

// ParseIDParam reads a uuid path parameter, writing a 400 when it is not one.
func ParseIDParam(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Status:  "error",
			Message: "invalid " + resource + " ID",
		})
		return uuid.Nil, false
	}
	return id, true
}
