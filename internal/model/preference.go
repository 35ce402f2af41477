package model

// A Preference is an opaque user setting.
type Preference struct {
	ID    string `msgpack:"id"    storm:"id"`
	Value []byte `msgpack:"value"`
}

// GetID returns the model's ID.
func (m *Preference) GetID() string {
	return m.ID
}
