package apiclient

import (
	"errors"
	"fmt"
)

// Kind tags the outcome of an API call so views can switch on it.
type Kind int

const (
	KindNone Kind = iota
	KindNetwork
	KindAPI
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindAPI:
		return "api"
	case KindValidation:
		return "validation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// NetworkError is a transport failure: DNS, refused connection, cancelled
// context, or a success response whose body could not be parsed.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return "network error or server unreachable: " + e.Message
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is any non-2xx response. Message is already normalized; Status is
// kept for logs only.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// ValidationError is raised before a request is built.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports which of the contract errors err is. Unrelated errors and
// nil report KindNone.
func KindOf(err error) Kind {
	var netErr *NetworkError
	var apiErr *APIError
	var valErr *ValidationError
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &valErr):
		return KindValidation
	case errors.As(err, &apiErr):
		return KindAPI
	case errors.As(err, &netErr):
		return KindNetwork
	default:
		return KindNone
	}
}
