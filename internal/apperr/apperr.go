// Package apperr defines the error taxonomy shared by the player store, the
// save service and the outer surfaces.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeNotFound         Code = "NOT_FOUND"
	CodeIndexOutOfRange  Code = "INDEX_OUT_OF_RANGE"
	CodeUnparsable       Code = "UNPARSABLE"
	CodeValidation       Code = "VALIDATION"
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"
	CodeInvalidResult    Code = "INVALID_RESULT"
	CodeAlreadyConcluded Code = "ALREADY_CONCLUDED"
	CodeStorage          Code = "STORAGE"
)

// Sentinels for errors.Is. Refined codes also match their family sentinel, so
// an out-of-range team index is a NotFound and a full team is a Validation error.
var (
	ErrNotFound   = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrStorage    = &Error{Code: CodeStorage, Message: "storage failure"}
)

var family = map[Code]Code{
	CodeIndexOutOfRange:  CodeNotFound,
	CodeUnparsable:       CodeNotFound,
	CodeCapacityExceeded: CodeValidation,
	CodeInvalidResult:    CodeValidation,
	CodeAlreadyConcluded: CodeValidation,
}

// Error is the domain error type.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code, treating a refined code as a member of its family.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code == t.Code {
		return true
	}
	return family[e.Code] == t.Code
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HTTPStatus maps an error to the status code the REST surface reports.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeNotFound, CodeIndexOutOfRange, CodeUnparsable:
		return http.StatusNotFound
	case CodeAlreadyConcluded:
		return http.StatusConflict
	case CodeValidation, CodeCapacityExceeded, CodeInvalidResult:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
