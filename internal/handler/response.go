package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"payreview/internal/domain"
	"payreview/internal/middleware"
	"payreview/internal/skonto"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	var skontoErr *skonto.ValidationError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "review session not found"
	case errors.Is(err, domain.ErrLineItemNotFound):
		return http.StatusNotFound, "LINE_ITEM_NOT_FOUND", "line item not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusConflict, "SESSION_CLOSED", "review session is already paid or cancelled"
	case errors.Is(err, domain.ErrSessionConflict):
		return http.StatusConflict, "SESSION_CONFLICT", "review session was modified concurrently; reload and retry"
	case errors.Is(err, domain.ErrInvalidReturnReason):
		return http.StatusBadRequest, "INVALID_RETURN_REASON", "return reason is not offered for this invoice"
	case errors.Is(err, domain.ErrSkontoUnavailable):
		return http.StatusUnprocessableEntity, "SKONTO_UNAVAILABLE", "no skonto discount is available for this invoice"
	case errors.As(err, &skontoErr):
		return http.StatusUnprocessableEntity, "INVALID_SKONTO", skontoErr.Error()
	case errors.Is(err, domain.ErrInvalidExtractions):
		return http.StatusBadRequest, "INVALID_EXTRACTIONS", "extraction payload is empty or malformed"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT", "unsupported export format; allowed: csv, xlsx"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("internal error")
	}
	RespondError(c, status, code, msg)
}

// sessionContext extracts the tenant ID and the :id session parameter.
// Returns false if either is missing (error response already written).
func sessionContext(c *gin.Context) (tenantID, sessionID uuid.UUID, ok bool) {
	tenantID, err := middleware.GetTenantID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing tenant context")
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid review session ID")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, sessionID, true
}
