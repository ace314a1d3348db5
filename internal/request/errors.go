package request

import (
	"errors"
	"fmt"
)

// Parse error codes (E200-E209)
const (
	ErrCodeMalformedPayload = "E200" // payload is not a JSON object of the expected shape
	ErrCodeUnknownEvent     = "E201" // event name is not one of the four permission events
	ErrCodeMissingRequestID = "E202" // requestID absent or empty
	ErrCodeMissingField     = "E203" // a required field is absent or empty
	ErrCodeOutOfRange       = "E204" // a field holds a value outside its domain
)

// ParseError reports a payload rejected at the SDK boundary.
// A request that fails parsing never reaches a broker queue.
type ParseError struct {
	// Code identifies the error category (E200-E204).
	Code string `json:"code"`

	// Event is the SDK event name the payload arrived on.
	Event string `json:"event,omitempty"`

	// Field names the offending field, if any.
	Field string `json:"field,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Err is the underlying decode error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Code)
	if e.Event != "" {
		prefix += " " + e.Event
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", prefix, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is (or wraps) a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// ParseErrorCode returns the code of a wrapped *ParseError, or "" if err is not one.
func ParseErrorCode(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func missingField(field string) *ParseError {
	return &ParseError{
		Code:    ErrCodeMissingField,
		Field:   field,
		Message: "required field is missing or empty",
	}
}

func outOfRange(field, msg string) *ParseError {
	return &ParseError{
		Code:    ErrCodeOutOfRange,
		Field:   field,
		Message: msg,
	}
}
