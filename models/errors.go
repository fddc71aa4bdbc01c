package models

import (
	"context"
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeSiteUnreachable = "SITE_UNREACHABLE"
	ErrCodeTimeout         = "TIMEOUT"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeBrowserCrash    = "BROWSER_CRASH"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeDeliveryFailed  = "DELIVERY_FAILED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// Sentinels for errors.Is. Matching compares codes only.
var (
	ErrSiteUnreachable = &AuditError{Code: ErrCodeSiteUnreachable}
	ErrTimeout         = &AuditError{Code: ErrCodeTimeout}
	ErrInvalidInput    = &AuditError{Code: ErrCodeInvalidInput}
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

// AuditError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type AuditError struct {
	Code    string
	Message string

	// Status is the HTTP status of the audited page when it is known
	// (SITE_UNREACHABLE only). Zero means unknown.
	Status int

	Err error // wrapped original error
}

func (e *AuditError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *AuditError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AuditError with the same code.
func (e *AuditError) Is(target error) bool {
	t, ok := target.(*AuditError)
	return ok && t.Code == e.Code
}

// NewAuditError creates a new AuditError.
func NewAuditError(code, message string, err error) *AuditError {
	return &AuditError{Code: code, Message: message, Err: err}
}

// SiteUnreachable builds the error returned when the page answered with a
// status outside 2xx/3xx. status may be 0 when the server never answered.
func SiteUnreachable(status int, message string, err error) *AuditError {
	return &AuditError{Code: ErrCodeSiteUnreachable, Message: message, Status: status, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *AuditError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message, Status: e.Status}
}

// AsAuditError returns err as an *AuditError, wrapping unknown errors as
// INTERNAL_ERROR.
func AsAuditError(err error) *AuditError {
	var ae *AuditError
	if errors.As(err, &ae) {
		return ae
	}
	return NewAuditError(ErrCodeInternal, err.Error(), err)
}

// CategorizeTransportError maps a navigation or fetch failure onto the audit
// taxonomy: deadline and cancellation become TIMEOUT, everything else
// (DNS, refused connections, TLS) is SITE_UNREACHABLE with unknown status.
func CategorizeTransportError(err error, msg string) *AuditError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewAuditError(ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return NewAuditError(ErrCodeTimeout, "audit canceled", err)
	default:
		return SiteUnreachable(0, msg, err)
	}
}
