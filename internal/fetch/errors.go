package fetch

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable failure category. Callers localize
// user-facing messages from the code; the message text is diagnostic only.
type Code string

const (
	CodeInvalidURL       Code = "INVALID_URL"
	CodeBlockedAddress   Code = "BLOCKED_ADDRESS"
	CodeAccessDenied     Code = "ACCESS_DENIED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeClientError      Code = "CLIENT_ERROR"
	CodeServerError      Code = "SERVER_ERROR"
	CodeTooManyRedirects Code = "TOO_MANY_REDIRECTS"
	CodeResponseTooLarge Code = "RESPONSE_TOO_LARGE"
	CodeUnsupportedType  Code = "UNSUPPORTED_CONTENT_TYPE"
	CodeTimeout          Code = "FETCH_TIMEOUT"
	CodeNetwork          Code = "NETWORK_ERROR"
)

// Error is a fetch failure carrying its classification code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the classification code from err, or CodeNetwork when err
// is not a fetch error.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeNetwork
}
