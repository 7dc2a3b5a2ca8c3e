package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"accounts/internal/apperr"
	"accounts/internal/middleware"
	"accounts/internal/response"
)

const (
	storeTimeout  = 5 * time.Second
	uploadTimeout = 30 * time.Second
)

func requestContext(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}

// bindError converts a gin binding failure into a validation error with one
// message per failing field.
func bindError(op string, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			field := lowerCamel(fieldError.Field())
			switch fieldError.Tag() {
			case "required":
				details = append(details, fmt.Sprintf("%s is required", field))
			default:
				details = append(details, fmt.Sprintf("%s is invalid", field))
			}
		}
		return apperr.NewValidation(op, "validation failed", details...)
	}

	return apperr.NewValidation(op, "invalid body").WithCause(err)
}

func lowerCamel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// requireUserID reads the id set by middleware.UserAuth.
func requireUserID(c *gin.Context, op string) (primitive.ObjectID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperr.NewAuth(op, "Unauthorized request"))
		return id, false
	}
	return id, true
}

// NoRoute answers unknown paths with the JSON envelope.
func NoRoute(c *gin.Context) {
	response.Error(c, apperr.NewNotFound("http.NoRoute", http.StatusText(http.StatusNotFound)))
}
