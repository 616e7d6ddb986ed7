package fixedpoint

import (
	"errors"
	"fmt"
)

// Error is returned by registration and accessor operations.
//
// Errors are synchronous and never leave a partial write behind: validation
// finishes before the backing store is touched.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Field is the field the operation was applied to, if any.
	Field string

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes fixed point errors.
type ErrorCode string

const (
	// ErrCodeInvalidScale indicates a width or base that cannot form a factor.
	ErrCodeInvalidScale ErrorCode = "INVALID_SCALE"

	// ErrCodeInvalidValue indicates a float setter input that cannot be scaled.
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"

	// ErrCodeMissingField indicates an accessor for a field that was never registered.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// ErrCodeInvalidField indicates a field or operation name that is malformed.
	ErrCodeInvalidField ErrorCode = "INVALID_FIELD"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidScale reports whether err is an INVALID_SCALE error.
func IsInvalidScale(err error) bool {
	return hasCode(err, ErrCodeInvalidScale)
}

// IsInvalidValue reports whether err is an INVALID_VALUE error.
func IsInvalidValue(err error) bool {
	return hasCode(err, ErrCodeInvalidValue)
}

// IsMissingField reports whether err is a MISSING_FIELD error.
func IsMissingField(err error) bool {
	return hasCode(err, ErrCodeMissingField)
}

// IsInvalidField reports whether err is an INVALID_FIELD error.
func IsInvalidField(err error) bool {
	return hasCode(err, ErrCodeInvalidField)
}

func hasCode(err error, code ErrorCode) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

func newScaleError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidScale,
		Message: fmt.Sprintf(format, args...),
	}
}

func newValueError(field string, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidValue,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func newMissingFieldError(field string) *Error {
	return &Error{
		Code:    ErrCodeMissingField,
		Field:   field,
		Message: "no fixed point field registered with this name",
	}
}

func newFieldError(field string, message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidField,
		Field:   field,
		Message: message,
	}
}
