// Package domainerrors carries coded, user-facing errors across service
// boundaries. Stores return infrastructure sentinels; services translate them
// into one of the codes below and the HTTP layer maps codes to statuses.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the category of a domain error. Codes are stable strings and
// are returned verbatim in API error envelopes.
type Code string

const (
	CodeDuplicateIdentity   Code = "duplicate_identity"
	CodeDuplicateNationalID Code = "duplicate_national_id"
	CodeWeakSecret          Code = "weak_secret"
	CodeInvalidNationalID   Code = "invalid_national_id"
	CodeAuthenticationFail  Code = "authentication_failed"
	CodePermissionDenied    Code = "permission_denied"
	CodeValidation          Code = "validation_error"
	CodeNotFound            Code = "not_found"
	CodeOperationFailed     Code = "operation_failed"

	CodeUnauthorized Code = "unauthorized"
	CodeBadRequest   Code = "bad_request"
	CodeTimeout      Code = "timeout"
	CodeRateLimited  Code = "rate_limit_exceeded"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a domain error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// As returns the outermost domain error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, or CodeOperationFailed for uncoded errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeOperationFailed
}
