package dto

import (
	"errors"
	"net/http"

	allegroapi "github.com/mkret/firefly-enricher/internal/adapters/allegro"
	"github.com/mkret/firefly-enricher/internal/apperr"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MapError translates application errors into an HTTP status and body.
// Unrecognized errors become opaque 500s so internals never leak.
func MapError(err error) (int, ErrorResponse) {
	var authErr *allegroapi.AuthError
	if errors.As(err, &authErr) {
		return http.StatusUnauthorized, ErrorResponse{Error: "marketplace authentication failed"}
	}

	switch {
	case errors.Is(err, apperr.ErrInvalidFileID),
		errors.Is(err, apperr.ErrInvalidSecretID),
		errors.Is(err, apperr.ErrInvalidMatchSelection):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}

	case errors.Is(err, apperr.ErrFileNotFound),
		errors.Is(err, apperr.ErrSecretNotFound),
		errors.Is(err, apperr.ErrJobNotFound),
		errors.Is(err, apperr.ErrTransactionNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error()}

	case errors.Is(err, apperr.ErrMatchesNotComputed):
		return http.StatusConflict, ErrorResponse{Error: err.Error()}

	case errors.Is(err, apperr.ErrExternalServiceFailed):
		return http.StatusBadGateway, ErrorResponse{Error: "upstream service failed"}

	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error"}
	}
}
