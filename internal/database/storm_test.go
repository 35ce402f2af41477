package database_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/mdouchement/travellog/internal/database"
	"github.com/mdouchement/travellog/internal/model"
	"github.com/mdouchement/travellog/internal/tlerror"
	"github.com/mdouchement/travellog/pkg/stormcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...database.Option) (database.Client, string) {
	filename := filepath.Join(t.TempDir(), "travellog.db")

	db, err := database.StormOpen(filename, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	return db, filename
}

func float(v float64) *float64 {
	return &v
}

func TestStormOpen(t *testing.T) {
	db, filename := setup(t)

	version, err := db.SchemaVersion()
	assert.NoError(t, err)
	assert.Equal(t, database.SchemaVersion, version)

	// Idempotent open
	assert.NoError(t, db.Close())
	db, err = database.StormOpen(filename)
	require.NoError(t, err)
	defer db.Close()

	version, err = db.SchemaVersion()
	assert.NoError(t, err)
	assert.Equal(t, database.SchemaVersion, version)
}

func TestStormOpen_Locked(t *testing.T) {
	_, filename := setup(t)

	_, err := database.StormOpen(filename, database.WithTimeout(50*time.Millisecond))
	assert.True(t, tlerror.Is(err, tlerror.Storage))
}

func TestStormOpen_Codecs(t *testing.T) {
	for _, c := range []string{"msgpack", "cbor", "binc"} {
		codec, err := stormcodec.Lookup(c)
		require.NoError(t, err)

		db, _ := setup(t, database.WithCodec(codec))

		record, err := db.CreatePending(&model.Pending{
			Description: "Sunset at Kuta",
			Photo:       model.NewPhoto("kuta.jpg", "image/jpeg", []byte("jpeg")),
		})
		assert.NoError(t, err, c)

		pending, err := db.FindPending(record.ID)
		assert.NoError(t, err, c)
		assert.Equal(t, "Sunset at Kuta", pending.Description, c)
		assert.Equal(t, []byte("jpeg"), pending.Photo.Data, c)
	}
}

func TestMigration_KeepsDraftsAndBookmarks(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "travellog.db")

	// Layout 1
	legacy, err := storm.Open(filename, storm.Codec(stormcodec.Default))
	require.NoError(t, err)
	require.NoError(t, legacy.Save(&model.Story{ID: "story-1", Name: "Dimas"}))
	require.NoError(t, legacy.Save(&model.Bookmark{Story: model.Story{ID: "story-1"}, IsBookmarked: true}))
	require.NoError(t, legacy.Save(&model.Pending{ID: "offline-1", Description: "draft"}))
	require.NoError(t, legacy.Save(&model.Preference{ID: "token", Value: []byte("jwt")}))
	require.NoError(t, legacy.Set("meta", "schema_version", 1))
	require.NoError(t, legacy.Close())

	db, err := database.StormOpen(filename)
	require.NoError(t, err)
	defer db.Close()

	story, err := db.FindStory("story-1")
	assert.NoError(t, err)
	assert.Nil(t, story)

	bookmark, err := db.FindBookmark("story-1")
	assert.NoError(t, err)
	assert.NotNil(t, bookmark)

	pending, err := db.FindPending("offline-1")
	assert.NoError(t, err)
	assert.Equal(t, "draft", pending.Description)

	preference, err := db.FindPreference("token")
	assert.NoError(t, err)
	assert.Equal(t, []byte("jwt"), preference.Value)
}

func TestMigration_NewerSchema(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "travellog.db")

	legacy, err := storm.Open(filename, storm.Codec(stormcodec.Default))
	require.NoError(t, err)
	require.NoError(t, legacy.Set("meta", "schema_version", database.SchemaVersion+1))
	require.NoError(t, legacy.Close())

	_, err = database.StormOpen(filename)
	assert.True(t, tlerror.Is(err, tlerror.Storage))
}

func TestStories(t *testing.T) {
	db, _ := setup(t)

	stories, err := db.FindStories()
	assert.NoError(t, err)
	assert.Empty(t, stories)

	story, err := db.FindStory("story-unknown")
	assert.NoError(t, err)
	assert.Nil(t, story)

	now := time.Now().UTC().Truncate(time.Millisecond)
	assert.NoError(t, db.Save(&model.Story{ID: "story-1", Name: "Dimas", CreatedAt: now.Add(-time.Hour)}))
	assert.NoError(t, db.Save(&model.Story{ID: "story-2", Name: "Ayu", CreatedAt: now, Lat: float(-8.7), Lon: float(115.2)}))
	assert.NoError(t, db.Save(&model.Story{ID: "story-1", Name: "Dimas R.", CreatedAt: now.Add(-time.Hour)}))

	stories, err = db.FindStories()
	assert.NoError(t, err)
	if assert.Len(t, stories, 2) {
		assert.Equal(t, "story-2", stories[0].ID)
		assert.Equal(t, -8.7, *stories[0].Lat)
		assert.Equal(t, "Dimas R.", stories[1].Name)
	}

	assert.NoError(t, db.DeleteStory("story-1"))
	assert.NoError(t, db.DeleteStory("story-1"))

	assert.NoError(t, db.ClearStories())
	stories, err = db.FindStories()
	assert.NoError(t, err)
	assert.Empty(t, stories)
}

func TestSave_WithoutID(t *testing.T) {
	db, _ := setup(t)

	err := db.Save(&model.Story{Name: "anonymous"})
	assert.True(t, tlerror.Is(err, tlerror.Validation))
}

func TestBookmarks_Independence(t *testing.T) {
	db, _ := setup(t)

	story := &model.Story{ID: "story-1", Name: "Dimas", Description: "Bromo"}
	assert.NoError(t, db.Save(story))
	assert.NoError(t, db.Save(&model.Bookmark{Story: *story, BookmarkedAt: time.Now(), IsBookmarked: true}))

	assert.NoError(t, db.ClearStories())

	bookmark, err := db.FindBookmark("story-1")
	assert.NoError(t, err)
	if assert.NotNil(t, bookmark) {
		assert.Equal(t, "Bromo", bookmark.Description)
		assert.True(t, bookmark.IsBookmarked)
	}

	bookmarks, err := db.FindBookmarks()
	assert.NoError(t, err)
	assert.Len(t, bookmarks, 1)

	assert.NoError(t, db.DeleteBookmark("story-1"))
	assert.NoError(t, db.DeleteBookmark("story-1"))

	bookmark, err = db.FindBookmark("story-1")
	assert.NoError(t, err)
	assert.Nil(t, bookmark)
}

func TestCreatePending(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	db, _ := setup(t, database.WithClock(func() time.Time { return at }))

	ids := map[string]bool{}
	for i := 0; i < 20; i++ {
		record, err := db.CreatePending(&model.Pending{
			ID:          "story-forged",
			Description: "Draft",
			Photo:       model.NewPhoto("a.png", "image/png", []byte{1, 2, 3}),
			Lat:         float(-7.9),
			Lon:         float(112.9),
			Synced:      true,
		})
		require.NoError(t, err)

		assert.True(t, model.IsPendingID(record.ID))
		assert.Contains(t, record.ID, "1709287200000")
		assert.False(t, record.Synced)
		assert.Equal(t, at, record.CreatedAt)
		assert.False(t, ids[record.ID], "duplicated id %s", record.ID)
		ids[record.ID] = true

		again, err := db.FindPending(record.ID)
		assert.NoError(t, err)
		assert.Equal(t, record.ID, again.ID)
		assert.Equal(t, int64(3), again.Photo.Size)
		assert.Equal(t, "image/png", again.Photo.ContentType)
	}

	pendings, err := db.FindPendings()
	assert.NoError(t, err)
	assert.Len(t, pendings, 20)

	for _, p := range pendings {
		assert.NoError(t, db.DeletePending(p.ID))
		assert.NoError(t, db.DeletePending(p.ID))
	}

	pendings, err = db.FindPendings()
	assert.NoError(t, err)
	assert.Empty(t, pendings)
}

func TestCreatePending_Closed(t *testing.T) {
	db, _ := setup(t)
	db.Close()

	_, err := db.CreatePending(&model.Pending{Description: "lost?"})
	assert.True(t, tlerror.Is(err, tlerror.Storage))
}

func TestPreferences(t *testing.T) {
	db, _ := setup(t)

	preference, err := db.FindPreference("theme")
	assert.NoError(t, err)
	assert.Nil(t, preference)

	assert.NoError(t, db.Save(&model.Preference{ID: "theme", Value: []byte("dark")}))
	preference, err = db.FindPreference("theme")
	assert.NoError(t, err)
	assert.Equal(t, []byte("dark"), preference.Value)

	assert.NoError(t, db.DeletePreference("theme"))
	assert.NoError(t, db.DeletePreference("theme"))
}

func TestResponses(t *testing.T) {
	db, _ := setup(t)

	for _, r := range []*model.CachedResponse{
		{Partition: "travellog-v1.3.0", Key: "GET https://app.lan/"},
		{Partition: "travellog-v1.4.0", Key: "GET https://app.lan/"},
		{Partition: "travellog-api-v1", Key: "GET https://api.lan/v1/stories"},
	} {
		r.ID = model.CachedResponseID(r.Partition, r.Key)
		r.StatusCode = 200
		r.Body = []byte(r.Partition)
		assert.NoError(t, db.Save(r))
	}

	response, err := db.FindResponse("travellog-v1.4.0", "GET https://app.lan/")
	assert.NoError(t, err)
	assert.Equal(t, []byte("travellog-v1.4.0"), response.Body)

	response, err = db.FindResponse("travellog-v1.4.0", "GET https://app.lan/missing")
	assert.NoError(t, err)
	assert.Nil(t, response)

	partitions, err := db.FindResponsePartitions()
	assert.NoError(t, err)
	assert.Equal(t, []string{"travellog-api-v1", "travellog-v1.3.0", "travellog-v1.4.0"}, partitions)

	assert.NoError(t, db.DeleteResponsePartition("travellog-v1.3.0"))
	assert.NoError(t, db.DeleteResponsePartition("travellog-v1.3.0"))

	partitions, err = db.FindResponsePartitions()
	assert.NoError(t, err)
	assert.Equal(t, []string{"travellog-api-v1", "travellog-v1.4.0"}, partitions)
}

func TestStormReIndex(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "travellog.db")

	assert.NoError(t, database.StormInit(filename))
	assert.NoError(t, database.StormReIndex(filename))

	_, err := os.Stat(filename)
	assert.NoError(t, err)
}
