package model

import (
	"time"
)

type (
	// A Pending is a story created locally and not yet accepted by the remote API.
	// Records are immutable: they are deleted once pushed, never flagged as synced.
	Pending struct {
		ID          string    `json:"id"          msgpack:"id"          storm:"id"`
		Description string    `json:"description" msgpack:"description"`
		Photo       Photo     `json:"photo"       msgpack:"photo"`
		Lat         *float64  `json:"lat"         msgpack:"lat"`
		Lon         *float64  `json:"lon"         msgpack:"lon"`
		CreatedAt   time.Time `json:"createdAt"   msgpack:"created_at"  storm:"index"`
		Synced      bool      `json:"synced"      msgpack:"synced"`
	}

	// A Photo is an owned binary payload.
	Photo struct {
		Filename    string `json:"filename"     msgpack:"filename"`
		ContentType string `json:"content_type" msgpack:"content_type"`
		Size        int64  `json:"size"         msgpack:"size"`
		Data        []byte `json:"-"            msgpack:"data"`
	}
)

// GetID returns the model's ID.
func (m *Pending) GetID() string {
	return m.ID
}

// HasLocation returns true if the draft is geolocated.
func (m *Pending) HasLocation() bool {
	return m.Lat != nil && m.Lon != nil
}

// NewPhoto returns a Photo for the given payload.
func NewPhoto(filename, contentType string, data []byte) Photo {
	return Photo{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}
}

// Empty returns true if the photo has no payload.
func (p Photo) Empty() bool {
	return len(p.Data) == 0
}
