package libtl

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

var (
	// ErrMissingDescription is returned when a story has no description.
	ErrMissingDescription = errors.New("description is required")
	// ErrMissingPhoto is returned when a story has no photo.
	ErrMissingPhoto = errors.New("photo is required")
	// ErrIncompleteLocation is returned when only one of lat/lon is defined.
	ErrIncompleteLocation = errors.New("lat and lon must be defined together")
	// ErrIncompleteSubscription is returned when a push subscription misses its endpoint or keys.
	ErrIncompleteSubscription = errors.New("endpoint and keys are required")
	// ErrNoToken is returned when an authenticated request is performed without bearer token.
	ErrNoToken = errors.New("you must login first")
)

// An APIError reprensents an error returned by the story API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unauthorized returns true if the error means the bearer token is invalid or expired.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || strings.Contains(strings.ToLower(e.Message), "token")
}

// IsUnauthorized returns true if err is an authentication error.
func IsUnauthorized(err error) bool {
	if errors.Cause(err) == ErrNoToken {
		return true
	}

	var apierr *APIError
	return errors.As(err, &apierr) && apierr.Unauthorized()
}

// IsTransportError returns true if err comes from the network layer (unreachable host, timeout).
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		return true
	}

	var nerr net.Error
	return errors.As(err, &nerr)
}

// parseAPIError builds an APIError from the given body.
// Bodies that are not JSON envelopes use the status text as message.
func parseAPIError(body []byte, code int) error {
	apierr := &APIError{
		StatusCode: code,
		Message:    http.StatusText(code),
	}

	v, err := fastjson.ParseBytes(body)
	if err != nil {
		return apierr
	}

	if message := v.GetStringBytes("message"); len(message) > 0 {
		apierr.Message = string(message)
	}
	return apierr
}
