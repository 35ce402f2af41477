package tlerror

import (
	"net/http"

	"github.com/pkg/errors"
)

// A Kind classifies an error so callers can branch on it.
type Kind int

const (
	// Unknown is the kind of errors not produced by this package.
	Unknown Kind = iota
	// Connectivity is for unreachable network, failed fetch or timeout.
	Connectivity
	// Authentication is for rejected or expired bearer tokens.
	Authentication
	// Storage is for an unavailable or full local store.
	Storage
	// Validation is for malformed payloads and missing required fields.
	Validation
	// Offline is returned when an operation requires connectivity.
	Offline
	// Remote is for any other failure declared by the remote API.
	Remote
)

// ErrOffline is returned when a synchronization is requested while offline.
var ErrOffline = New(Offline, "cannot sync offline")

// An Error is a classified error.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	cause      error
}

// New returns a new Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap annotates err with the given kind and message.
// If err is nil, Wrap returns nil.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, cause: err}
}

// Error implements error interface.
func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.cause.Error()
}

// Cause returns the underlying cause of the error.
func (e *Error) Cause() error {
	return e.cause
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the kind of the first Error found in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is returns true if err is classified with the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusCode returns the HTTP status code matching the error.
func StatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Kind {
	case Connectivity:
		return http.StatusBadGateway
	case Authentication:
		return http.StatusUnauthorized
	case Validation:
		return http.StatusBadRequest
	case Offline:
		return http.StatusServiceUnavailable
	case Remote:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Connectivity:
		return "connectivity"
	case Authentication:
		return "authentication"
	case Storage:
		return "storage"
	case Validation:
		return "validation"
	case Offline:
		return "offline"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}
