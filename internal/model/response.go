package model

import (
	"time"
)

// A CachedResponse is an HTTP response snapshot stored in a named cache partition.
type CachedResponse struct {
	ID         string              `msgpack:"id"          storm:"id"`
	Partition  string              `msgpack:"partition"   storm:"index"`
	Key        string              `msgpack:"key"`
	StatusCode int                 `msgpack:"status_code"`
	Header     map[string][]string `msgpack:"header"`
	Body       []byte              `msgpack:"body"`
	StoredAt   time.Time           `msgpack:"stored_at"`
}

// GetID returns the model's ID.
func (m *CachedResponse) GetID() string {
	return m.ID
}

// CachedResponseID returns the identifier of a response in the given partition.
func CachedResponseID(partition, key string) string {
	return partition + "|" + key
}
