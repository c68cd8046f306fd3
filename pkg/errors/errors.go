package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code identifies an error category. Codes map one to one onto HTTP
// statuses and public messages, so services never reason about HTTP.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeConflict           Code = "CONFLICT"
	CodeStateConflict      Code = "STATE_CONFLICT"
	CodeVerificationFailed Code = "VERIFICATION_FAILED"
	CodeRateLimit          Code = "RATE_LIMIT_EXCEEDED"
	CodeUpstream           Code = "UPSTREAM_UNAVAILABLE"
	CodeDependency         Code = "DEPENDENCY_ERROR"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Metadata is what the response layer needs to render a code.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

func meta(status int, msg string) Metadata {
	return Metadata{HTTPStatus: status, PublicMessage: msg}
}

func (m Metadata) withDetails() Metadata {
	m.DetailsAllowed = true
	return m
}

func (m Metadata) retryable() Metadata {
	m.Retryable = true
	return m
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:         meta(http.StatusBadRequest, "validation failed").withDetails(),
	CodeUnauthorized:       meta(http.StatusUnauthorized, "authentication required"),
	CodeForbidden:          meta(http.StatusForbidden, "access denied"),
	CodeNotFound:           meta(http.StatusNotFound, "resource not found"),
	CodeConflict:           meta(http.StatusConflict, "conflict detected").withDetails(),
	CodeStateConflict:      meta(http.StatusUnprocessableEntity, "state transition disallowed").withDetails(),
	CodeVerificationFailed: meta(http.StatusBadRequest, "payment verification failed"),
	CodeRateLimit:          meta(http.StatusTooManyRequests, "rate limit exceeded"),
	CodeUpstream:           meta(http.StatusBadGateway, "payment gateway unavailable").retryable(),
	CodeDependency:         meta(http.StatusServiceUnavailable, "dependency unavailable").withDetails().retryable(),
	CodeInternal:           meta(http.StatusInternalServerError, "internal server error").retryable(),
}

// MetadataFor resolves a code's render rules, falling back to the
// internal error rules for codes it does not recognize.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// Error is the coded error type used across the service layer.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying cause. A nil cause
// degrades to New.
func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches structured details. They only reach clients when
// the code's metadata allows it.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As finds the first coded error in err's chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
