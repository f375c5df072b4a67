package types

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrorKind is a closed sum of the ways an adapter call can fail.
type ErrorKind string

const (
	KindNetworkTimeout    ErrorKind = "NetworkTimeout"
	KindHTTPStatus        ErrorKind = "HttpStatus"
	KindRateLimited       ErrorKind = "RateLimited"
	KindValidationFailure ErrorKind = "ValidationFailure"
	KindConfigMissing     ErrorKind = "ConfigMissing"
	KindUnknown           ErrorKind = "Unknown"
)

// PlatformError carries a tagged error kind plus the originating platform
// and an optional underlying cause.
type PlatformError struct {
	Kind        ErrorKind
	Platform    Platform
	StatusCode  int            // set for KindHTTPStatus
	RetryAfterS int            // set for KindRateLimited, 0 if unspecified
	Payload     []byte         // set for KindValidationFailure
	Cause       error
}

func (e *PlatformError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s]: %v", e.Kind, e.Platform, e.Cause)
	}
	return fmt.Sprintf("%s[%s]", e.Kind, e.Platform)
}

func (e *PlatformError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether a PlatformError should be retried by the Retry
// Driver: network timeouts, 5xx statuses, and rate limiting all qualify.
func Retryable(err error) bool {
	var pe *PlatformError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Kind {
	case KindNetworkTimeout, KindRateLimited:
		return true
	case KindHTTPStatus:
		return pe.StatusCode >= 500
	default:
		return false
	}
}

// SuggestedDelay returns the recommended backoff before retrying err.
func SuggestedDelay(err error) time.Duration {
	var pe *PlatformError
	if !errors.As(err, &pe) {
		return 0
	}
	switch pe.Kind {
	case KindRateLimited:
		if pe.RetryAfterS > 0 {
			return time.Duration(pe.RetryAfterS) * time.Second
		}
		return 60 * time.Second
	case KindHTTPStatus:
		if pe.StatusCode >= 500 {
			return 5 * time.Second
		}
		return 0
	case KindNetworkTimeout:
		return 2 * time.Second
	default:
		return 0
	}
}

// Classify maps a transport or schema error into the PlatformError sum.
// statusCode is 0 when the error occurred before an HTTP status was read.
func Classify(err error, platform Platform, statusCode int, retryAfterS int) *PlatformError {
	if err == nil && statusCode == 0 {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &PlatformError{Kind: KindNetworkTimeout, Platform: platform, Cause: err}
	}

	if statusCode == 429 {
		return &PlatformError{Kind: KindRateLimited, Platform: platform, StatusCode: statusCode, RetryAfterS: retryAfterS, Cause: err}
	}

	if statusCode > 0 {
		return &PlatformError{Kind: KindHTTPStatus, Platform: platform, StatusCode: statusCode, Cause: err}
	}

	if err != nil {
		return &PlatformError{Kind: KindUnknown, Platform: platform, Cause: err}
	}

	return &PlatformError{Kind: KindUnknown, Platform: platform}
}

// NewValidationFailure builds a ValidationFailure carrying the offending payload.
func NewValidationFailure(platform Platform, payload []byte, cause error) *PlatformError {
	return &PlatformError{Kind: KindValidationFailure, Platform: platform, Payload: payload, Cause: cause}
}

// NewConfigMissing builds a ConfigMissing error for the given platform/subsystem.
func NewConfigMissing(platform Platform, cause error) *PlatformError {
	return &PlatformError{Kind: KindConfigMissing, Platform: platform, Cause: cause}
}
