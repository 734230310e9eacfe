package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/docgate/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage hides internal error chains from clients.
func publicErrorMessage(status int, err error) string {
	switch status {
	case http.StatusRequestEntityTooLarge:
		return "upload exceeds the size limit"
	case http.StatusNotFound:
		return "validation not found"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	case http.StatusBadRequest:
		return err.Error()
	default:
		return "internal error"
	}
}
