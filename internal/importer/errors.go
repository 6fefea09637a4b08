package importer

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/receptor-app/receptor/internal/ai"
	"github.com/receptor-app/receptor/internal/fetch"
	"github.com/receptor-app/receptor/internal/jobs"
)

// Domain errors for import operations.
var (
	ErrEmptyInput       = errors.New("import input is empty")
	ErrNoImages         = errors.New("no images provided")
	ErrTooManyImages    = errors.New("too many images")
	ErrImageTooLarge    = errors.New("image exceeds maximum upload size")
	ErrDuplicateURL     = errors.New("url already imported")
	ErrNotRetryable     = errors.New("job cannot be retried")
	ErrExtractionFailed = errors.New("extraction failed")
)

// DuplicateError signals that a URL import matches an already finalized
// recipe for the same owner. It references the existing records instead of
// creating new ones.
type DuplicateError struct {
	RecipeID uuid.UUID `json:"recipe_id"`
	JobID    uuid.UUID `json:"job_id"`
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("url already imported as recipe %s", e.RecipeID)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateURL
}

// MapHTTPStatus maps importer errors, including wrapped fetch and
// extraction errors, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrEmptyInput), errors.Is(err, ErrNoImages):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyImages), errors.Is(err, ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrDuplicateURL):
		return http.StatusConflict
	case errors.Is(err, ErrNotRetryable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, jobs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, jobs.ErrForbidden):
		return http.StatusForbidden
	}

	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ai.ErrExtractionFailed) ||
		errors.Is(err, ai.ErrLowConfidence) ||
		errors.Is(err, ai.ErrPlaceholderResult) {
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}
