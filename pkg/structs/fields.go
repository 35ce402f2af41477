// Package structs reads struct fields by name.
package structs

import (
	"github.com/oleiade/reflections"
	"github.com/pkg/errors"
)

// GetField returns the value of the provided obj field. obj can whether be a structure or pointer to structure.
func GetField(obj any, name string) (any, error) {
	v, err := reflections.GetField(obj, name)
	return v, errors.Wrapf(err, "field %s", name)
}

// Project returns the named fields of obj, promoted fields included.
// All the exported fields are returned when no name is given.
func Project(obj any, names ...string) (map[string]any, error) {
	if len(names) == 0 {
		items, err := reflections.ItemsDeep(obj)
		return items, errors.Wrap(err, "could not list fields")
	}

	projection := make(map[string]any, len(names))
	for _, name := range names {
		v, err := GetField(obj, name)
		if err != nil {
			return nil, err
		}
		projection[name] = v
	}
	return projection, nil
}
