package recipes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Domain errors for recipe and finalization operations.
var (
	ErrAuth       = errors.New("not authenticated")
	ErrNotFound   = errors.New("recipe not found")
	ErrForbidden  = errors.New("recipe not owned by caller")
	ErrValidation = errors.New("recipe validation failed")
	ErrStorage    = errors.New("recipe storage failure")
	ErrDuplicate  = errors.New("recipe already exists")
)

// MapHTTPStatus maps recipe domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// prefixErrors maps the stored procedure's message prefixes to typed
// errors. The string convention exists only on the SQL wire; it is parsed
// here, once, into the domain taxonomy.
var prefixErrors = map[string]error{
	"AUTH_ERROR:":       ErrAuth,
	"NOT_FOUND:":        ErrNotFound,
	"FORBIDDEN:":        ErrForbidden,
	"VALIDATION_ERROR:": ErrValidation,
}

// parseRaisedError converts a raised procedure message into a typed domain
// error. An unprefixed message is a generic storage failure.
func parseRaisedError(message string) error {
	for prefix, sentinel := range prefixErrors {
		if strings.HasPrefix(message, prefix) {
			detail := strings.TrimSpace(strings.TrimPrefix(message, prefix))
			return fmt.Errorf("%w: %s", sentinel, detail)
		}
	}
	return fmt.Errorf("%w: %s", ErrStorage, message)
}
