package recipes

import (
	"errors"
	"net/http"
	"testing"
)

func TestParseRaisedError(t *testing.T) {
	tests := []struct {
		message string
		want    error
	}{
		{"AUTH_ERROR: owner identity required", ErrAuth},
		{"NOT_FOUND: import job 123 does not exist", ErrNotFound},
		{"FORBIDDEN: import job 123 belongs to another owner", ErrForbidden},
		{"VALIDATION_ERROR: invalid meal slot brunch", ErrValidation},
		{"deadlock detected", ErrStorage},
	}

	for _, tt := range tests {
		got := parseRaisedError(tt.message)
		if !errors.Is(got, tt.want) {
			t.Errorf("parseRaisedError(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrAuth, http.StatusUnauthorized},
		{ErrNotFound, http.StatusNotFound},
		{ErrForbidden, http.StatusForbidden},
		{ErrValidation, http.StatusUnprocessableEntity},
		{ErrDuplicate, http.StatusConflict},
		{ErrStorage, http.StatusInternalServerError},
		{parseRaisedError("VALIDATION_ERROR: job in status failed cannot be finalized"), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		if got := MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestValidMealSlot(t *testing.T) {
	for _, slot := range MealSlots {
		if !ValidMealSlot(slot) {
			t.Errorf("%q should be valid", slot)
		}
	}
	if ValidMealSlot("brunch") {
		t.Error("brunch should be invalid")
	}
	if ValidMealSlot("") {
		t.Error("empty slot should be invalid")
	}
}
