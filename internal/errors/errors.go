// Package errors defines the typed errors library services return.
//
// Every error carries a Code. The HTTP layer renders the code and its status
// without looking at the message, and errors.Is matches on the code alone:
//
//	err := errors.AlreadyExistsf("book with isbn %s already exists", isbn)
//	stdlib.Is(err, errors.ErrAlreadyExists) // true
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable kind of an error.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeConflict           Code = "CONFLICT"
	CodeValidation         Code = "VALIDATION"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeInternal           Code = "INTERNAL"
)

var statusByCode = map[Code]int{
	CodeNotFound:           http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodeConflict:           http.StatusConflict,
	CodeValidation:         http.StatusBadRequest,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeTokenExpired:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeRateLimited:        http.StatusTooManyRequests,
}

// HTTPStatus returns the response status for c. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeForStatus picks the code for an HTTP failure raised outside the
// services, such as a malformed request body. 422 is reported as VALIDATION.
func CodeForStatus(status int) Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeRateLimited
	default:
		return CodeInternal
	}
}

// Error is a coded error. Details is rendered to clients as-is, so it must
// never hold internal state; cause is only visible to logs.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && t.Code == e.Code
}

// HTTPStatus returns the response status for the error's code.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// Sentinels for errors.Is. Only the code is compared.
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrConflict           = &Error{Code: CodeConflict, Message: "conflict"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrTokenExpired       = &Error{Code: CodeTokenExpired, Message: "token expired"}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrRateLimited        = &Error{Code: CodeRateLimited, Message: "too many requests"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
)

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches err as the cause of a new coded error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

func NotFound(msg string) *Error { return newError(CodeNotFound, msg) }

func AlreadyExists(msg string) *Error { return newError(CodeAlreadyExists, msg) }

func AlreadyExistsf(format string, args ...any) *Error {
	return newError(CodeAlreadyExists, fmt.Sprintf(format, args...))
}

// Conflict reports a state that forbids the operation, such as no copies left.
func Conflict(msg string) *Error { return newError(CodeConflict, msg) }

func Validation(msg string) *Error { return newError(CodeValidation, msg) }

func Validationf(format string, args ...any) *Error {
	return newError(CodeValidation, fmt.Sprintf(format, args...))
}

// ValidationWithDetails carries per-field messages keyed by JSON path.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

func Unauthorized(msg string) *Error { return newError(CodeUnauthorized, msg) }

func InvalidCredentials(msg string) *Error { return newError(CodeInvalidCredentials, msg) }

func TokenExpired(msg string) *Error { return newError(CodeTokenExpired, msg) }

func Forbidden(msg string) *Error { return newError(CodeForbidden, msg) }

func Forbiddenf(format string, args ...any) *Error {
	return newError(CodeForbidden, fmt.Sprintf(format, args...))
}

func RateLimited(msg string) *Error { return newError(CodeRateLimited, msg) }

// Internal is the error shown to clients when something unexpected failed.
func Internal(msg string) *Error { return newError(CodeInternal, msg) }
