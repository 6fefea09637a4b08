package jobs

import (
	"errors"
	"net/http"
)

// Domain errors for import job operations.
var (
	ErrNotFound          = errors.New("import job not found")
	ErrForbidden         = errors.New("import job not owned by caller")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrInvalidStatus     = errors.New("unknown job status")
	ErrNotEditable       = errors.New("job is not in ready_for_review")
	ErrFinalized         = errors.New("job is finalized")
	ErrDuplicate         = errors.New("import job already exists")
)

// MapHTTPStatus maps job domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrNotEditable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrFinalized):
		return http.StatusConflict
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
