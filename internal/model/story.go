package model

import (
	"time"
)

type (
	// A Story is the local copy of a story fetched from the remote API.
	Story struct {
		ID          string    `json:"id"          msgpack:"id"          storm:"id"`
		Name        string    `json:"name"        msgpack:"name"`
		Description string    `json:"description" msgpack:"description"`
		PhotoURL    string    `json:"photoUrl"    msgpack:"photo_url"`
		Lat         *float64  `json:"lat"         msgpack:"lat"`
		Lon         *float64  `json:"lon"         msgpack:"lon"`
		CreatedAt   time.Time `json:"createdAt"   msgpack:"created_at"  storm:"index"`
	}

	// A Bookmark is a snapshot of a story the user has bookmarked.
	// It lives independently of the cached story it comes from.
	Bookmark struct {
		Story `msgpack:",inline" storm:"inline"`

		BookmarkedAt time.Time `json:"bookmarkedAt" msgpack:"bookmarked_at" storm:"index"`
		IsBookmarked bool      `json:"isBookmarked" msgpack:"is_bookmarked"`
	}
)

// GetID returns the model's ID.
func (m *Story) GetID() string {
	return m.ID
}

// HasLocation returns true if the story is geolocated.
func (m *Story) HasLocation() bool {
	return m.Lat != nil && m.Lon != nil
}
