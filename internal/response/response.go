// Package response writes the JSON envelope shared by every route.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accounts/internal/apperr"
)

type Envelope struct {
	Status  int      `json:"status"`
	Data    any      `json:"data,omitempty"`
	Message string   `json:"message"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.Validation: http.StatusBadRequest,
	apperr.Auth:       http.StatusUnauthorized,
	apperr.NotFound:   http.StatusNotFound,
	apperr.Conflict:   http.StatusConflict,
	apperr.Unexpected: http.StatusInternalServerError,
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := statusByKind[apperr.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func OK(c *gin.Context, status int, data any, message string) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, Envelope{Status: status, Data: data, Message: message, Success: true})
}

// Error aborts the request with the envelope for err. Unexpected errors never
// expose their cause.
func Error(c *gin.Context, err error) {
	status := StatusFor(err)
	body := Envelope{Status: status, Message: "Something went wrong"}

	if e, ok := apperr.As(err); ok && e.Kind != apperr.Unexpected {
		body.Message = e.Message
		body.Errors = e.Details
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
