package model

import (
	"strings"
)

// PendingIDPrefix is the namespace of locally generated identifiers.
// Server-assigned identifiers never start with it.
const PendingIDPrefix = "offline-"

// A Model defines an object that can be stored in database.
type Model interface {
	// GetID returns the model's ID.
	GetID() string
}

// IsPendingID returns true if id has been generated locally.
func IsPendingID(id string) bool {
	return strings.HasPrefix(id, PendingIDPrefix)
}
