package libtl

import (
	"encoding/json"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
)

type (
	// A Story is a story published on the API.
	Story struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		PhotoURL    string    `json:"photoUrl"`
		CreatedAt   time.Time `json:"createdAt"`
		Lat         *float64  `json:"lat"`
		Lon         *float64  `json:"lon"`
	}

	// A NewStory is the payload used to publish a story.
	NewStory struct {
		Description string
		Photo       Photo
		Lat         *float64
		Lon         *float64
	}

	// A Photo is a binary payload with its metadata.
	Photo struct {
		Filename    string
		ContentType string
		Data        []byte
	}
)

// UnmarshalJSON implements json.Unmarshaler.
// The creation date is parsed whatever its layout.
func (s *Story) UnmarshalJSON(data []byte) error {
	type alias Story
	var v struct {
		alias
		CreatedAt string `json:"createdAt"`
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Story(v.alias)

	if v.CreatedAt == "" {
		return nil
	}

	t, err := dateparse.ParseAny(v.CreatedAt)
	if err != nil {
		return errors.Wrapf(err, "could not parse createdAt of story %s", s.ID)
	}
	s.CreatedAt = t.UTC()
	return nil
}

// Validate checks the required fields of the payload.
func (s NewStory) Validate() error {
	if s.Description == "" {
		return ErrMissingDescription
	}
	if len(s.Photo.Data) == 0 {
		return ErrMissingPhoto
	}
	if (s.Lat == nil) != (s.Lon == nil) {
		return ErrIncompleteLocation
	}
	return nil
}
