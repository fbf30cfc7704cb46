package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// TransportError is returned when a web service call could not complete:
// connection failure, timeout, too many redirects or a non-200 status.
type TransportError struct {
	Function   string
	StatusCode int
	Err        error
}

func (err *TransportError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("calling %s: %v", err.Function, err.Err)
	}
	return fmt.Sprintf("calling %s: HTTP status %d", err.Function, err.StatusCode)
}

func (err *TransportError) Unwrap() error { return err.Err }

// DecodeError is returned when a web service response is not valid JSON for the expected shape.
type DecodeError struct {
	Function string
	Err      error
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", err.Function, err.Err)
}

func (err *DecodeError) Unwrap() error { return err.Err }

// APIError is an application-level fault reported by the web service in its response body.
type APIError struct {
	Function  string
	Exception string
	ErrorCode string
	Message   string
}

func (err *APIError) Error() string {
	if err.Message == "" {
		return "unknown Moodle API error"
	}
	return err.Message
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
