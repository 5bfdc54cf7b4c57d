// Package errors provides the coded error type used across MailSweep.
// Every layer (application, infrastructure, interfaces) carries failures as
// *AppError so that HTTP responses, logs, and metrics all classify errors the
// same way. The type supports Go 1.13+ wrapping, so errors.Is / errors.As
// work across layer boundaries.
package errors

import (
	"errors"
	"fmt"
)

// AppError is the single structured error type used throughout the service.
//
//	return errors.New(errors.CodeDatabaseError, "failed to persist operation record")
//	return errors.Wrap(err, errors.CodeRemoteAPIError, "batch delete rejected")
//	return errors.InvalidParam("message_ids must not be empty").WithDetail("op=delete")
type AppError struct {
	// Code identifies the failure category; see codes.go.
	Code ErrorCode

	// Message is the primary human-readable description, safe to return
	// to API callers.
	Message string

	// Detail carries supplementary debugging context (ids, counts) that
	// must not leak sensitive internals.
	Detail string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
// Format: "[<name>(<int>)] <message>: <detail>", detail omitted when empty.
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s(%d)] %s: %s", e.Code.String(), int(e.Code), e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s(%d)] %s", e.Code.String(), int(e.Code), e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a shallow copy with Detail set. Safe on nil receivers.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy with Cause set. Safe on nil receivers.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// New constructs a fresh AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf constructs a fresh AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an AppError wrapping err. It returns nil when err is nil so
// it can be used inline on a call's error return. When err is already an
// *AppError and code is CodeUnknown, the original code is preserved so that
// cross-layer wrapping does not lose the classification.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// IsCode reports whether any error in err's chain is an *AppError with code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the ErrorCode from the first *AppError in err's chain,
// CodeOK for nil errors, and CodeUnknown for foreign errors. Middleware and
// metric recorders use this to obtain a single label value per error.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// Convenience factories for the most common conditions.

// InvalidParam constructs a CodeInvalidParam AppError.
func InvalidParam(message string) *AppError {
	return &AppError{Code: CodeInvalidParam, Message: message}
}

// NotFound constructs a CodeNotFound AppError.
func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

// Internal constructs a CodeInternal AppError.
func Internal(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message}
}

// Unavailable constructs a CodeUnavailable AppError.
func Unavailable(message string) *AppError {
	return &AppError{Code: CodeUnavailable, Message: message}
}

// Cancelled constructs a CodeCancelled AppError.
func Cancelled(message string) *AppError {
	return &AppError{Code: CodeCancelled, Message: message}
}
