package structs_test

import (
	"testing"

	"github.com/mdouchement/travellog/internal/model"
	"github.com/mdouchement/travellog/pkg/structs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	bookmark := &model.Bookmark{
		Story:        model.Story{ID: "story-1", Name: "Dimas"},
		IsBookmarked: true,
	}

	projection, err := structs.Project(bookmark, "ID", "IsBookmarked")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ID": "story-1", "IsBookmarked": true}, projection)

	projection, err = structs.Project(bookmark)
	require.NoError(t, err)
	assert.Equal(t, "Dimas", projection["Name"])
	assert.Contains(t, projection, "BookmarkedAt")

	_, err = structs.Project(bookmark, "Unknown")
	assert.EqualError(t, err, "field Unknown: No such field: Unknown in obj")
}
