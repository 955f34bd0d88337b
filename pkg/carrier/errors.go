package carrier

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure in the unified error taxonomy.
type Code string

const (
	CodeAuthFailed        Code = "AUTH_FAILED"
	CodeAuthTokenInvalid  Code = "AUTH_TOKEN_INVALID"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNetwork           Code = "NETWORK_ERROR"
	CodeTimeout           Code = "TIMEOUT"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
	CodeAPIError          Code = "API_ERROR"
	CodeMalformedResponse Code = "MALFORMED_RESPONSE"
	CodeCircuitOpen       Code = "CIRCUIT_OPEN"
	CodeConfig            Code = "CONFIG_ERROR"
	CodeUnknown           Code = "UNKNOWN_ERROR"
)

// SystemCarrier is the carrier identifier used for faults that are not
// attributable to a specific carrier.
const SystemCarrier = "SYSTEM"

// Error is the typed error that crosses every carrier boundary. No raw
// transport or parse error escapes a Carrier implementation untyped.
type Error struct {
	Carrier    string
	Code       Code
	Message    string
	StatusCode int
	Retryable  bool
	Details    map[string]any
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	carrierName := e.Carrier
	if carrierName == "" {
		carrierName = SystemCarrier
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", carrierName, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", carrierName, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is; two Errors match when their codes match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new Error.
func NewError(carrierName string, code Code, message string) *Error {
	return &Error{
		Carrier: carrierName,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithDetails attaches an opaque details payload.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// AsError extracts a typed *Error from err, if present.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryable reports whether err is a typed Error marked retryable.
// Untyped errors are never retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// Wrap guarantees err is a typed *Error tagged with a carrier name.
// An already-typed error keeps its classification and is tagged with
// carrierName only if it lacks one; anything else becomes UNKNOWN_ERROR
// with the original error preserved as cause.
func Wrap(carrierName string, err error) *Error {
	if e, ok := AsError(err); ok {
		if e.Carrier == "" {
			e.Carrier = carrierName
		}
		return e
	}
	return NewError(carrierName, CodeUnknown, "unexpected error").WithCause(err)
}

// FromStatusCode classifies a non-2xx HTTP status from a carrier endpoint
// into the taxonomy. It is a pure function: the orchestration layer decides
// what to do with the result (e.g., the 401 token-refresh protocol).
func FromStatusCode(carrierName string, status int) *Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewError(carrierName, CodeAuthTokenInvalid, "carrier rejected credentials").
			WithStatusCode(status)
	case status == http.StatusTooManyRequests:
		return NewError(carrierName, CodeRateLimitExceeded, "carrier rate limit exceeded").
			WithStatusCode(status).
			WithRetryable(true)
	case status >= 500:
		return NewError(carrierName, CodeAPIError, fmt.Sprintf("carrier returned HTTP %d", status)).
			WithStatusCode(status).
			WithRetryable(true)
	default:
		return NewError(carrierName, CodeAPIError, fmt.Sprintf("carrier returned HTTP %d", status)).
			WithStatusCode(status)
	}
}

// ErrCarrierNotFound indicates the requested carrier is not registered.
var ErrCarrierNotFound = errors.New("carrier not found")
