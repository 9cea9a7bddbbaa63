package handlers

import (
	"errors"
	"net/http"

	"taxibackend/internal/domain"
	"taxibackend/internal/http/middleware"
	"taxibackend/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, ErrorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondDomainError maps domain errors to HTTP responses. External and
// internal failures are logged and answered with a generic message.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	case domain.IsUnauthorized(err):
		respondError(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	case domain.IsForbidden(err):
		respondError(c, http.StatusForbidden, "forbidden", err.Error(), nil)
	case domain.IsExternal(err):
		utils.LogEvent(middleware.GetRequestID(c), "HTTP", "external_error", err.Error()+": "+unwrapMsg(err))
		respondError(c, http.StatusInternalServerError, "external_service_error", "an upstream service failed, please try again later", nil)
	default:
		utils.LogEvent(middleware.GetRequestID(c), "HTTP", "internal_error", err.Error()+": "+unwrapMsg(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func unwrapMsg(err error) string {
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	return "-"
}
