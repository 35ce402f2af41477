// Package service holds the offline-first use cases: story submission, feed, bookmarks,
// session and the reconciliation of pending stories.
package service

import (
	"context"
	"net/http"

	"github.com/mdouchement/travellog/internal/model"
	"github.com/mdouchement/travellog/internal/tlerror"
	"github.com/mdouchement/travellog/pkg/libtl"
	"github.com/pkg/errors"
)

// A Publisher publishes stories on the remote API.
type Publisher interface {
	AddStory(ctx context.Context, story libtl.NewStory) error
}

// classify maps remote API errors to the error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var tlerr *tlerror.Error
	if errors.As(err, &tlerr) {
		return err
	}

	switch errors.Cause(err) {
	case libtl.ErrMissingDescription, libtl.ErrMissingPhoto, libtl.ErrIncompleteLocation:
		return tlerror.Wrap(tlerror.Validation, err, "invalid story")
	}

	switch {
	case libtl.IsUnauthorized(err):
		return tlerror.Wrap(tlerror.Authentication, err, "authentication required")
	case libtl.IsTransportError(err):
		return tlerror.Wrap(tlerror.Connectivity, err, "remote API unreachable")
	}

	var apierr *libtl.APIError
	if errors.As(err, &apierr) {
		return &tlerror.Error{
			Kind:       tlerror.Remote,
			Message:    apierr.Message,
			StatusCode: apierr.StatusCode,
		}
	}

	return err
}

func notFound(message string) error {
	return &tlerror.Error{
		Kind:       tlerror.Validation,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func toNewStory(p *model.Pending) libtl.NewStory {
	return libtl.NewStory{
		Description: p.Description,
		Photo: libtl.Photo{
			Filename:    p.Photo.Filename,
			ContentType: p.Photo.ContentType,
			Data:        p.Photo.Data,
		},
		Lat: p.Lat,
		Lon: p.Lon,
	}
}
