package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed generation call
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindRateLimited
	KindServiceUnavailable
	KindNetworkUnavailable
)

// String returns a stable identifier used in logs, metrics and API responses
func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindNetworkUnavailable:
		return "network_unavailable"
	}
	return "unknown"
}

// DefaultMessage is shown when the upstream response carries no message
func (k ErrorKind) DefaultMessage() string {
	switch k {
	case KindUnauthorized:
		return "The text generation service rejected the credentials. Check the API key."
	case KindRateLimited:
		return "Too many requests to the text generation service. Please try again later."
	case KindServiceUnavailable:
		return "The text generation service is temporarily unavailable. Please try again later."
	case KindNetworkUnavailable:
		return "Could not reach the text generation service. Check the network connection."
	}
	return "An unexpected error occurred while generating the summary."
}

// Retryable reports whether a failure of this kind may succeed on retry
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindServiceUnavailable, KindNetworkUnavailable:
		return true
	}
	return false
}

// Error is a classified generation failure
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

// NewError builds an Error, falling back to the kind's default message
func NewError(kind ErrorKind, message string, err error) *Error {
	if message == "" {
		message = kind.DefaultMessage()
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the ErrorKind of err. Errors that were never classified
// are KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable returns true if err is a classified error of a retryable kind
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind.Retryable()
}

// ClassifyStatus maps an HTTP status code onto an ErrorKind
func ClassifyStatus(statusCode int) ErrorKind {
	switch {
	case statusCode == 401, statusCode == 403:
		return KindUnauthorized
	case statusCode == 429:
		return KindRateLimited
	case statusCode >= 500:
		return KindServiceUnavailable
	}
	return KindUnknown
}
