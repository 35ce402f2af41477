package database

import (
	"github.com/mdouchement/travellog/internal/model"
)

type (
	// A Client can interacts with the local record store.
	// Lookups never fail on a miss: they return a nil record or an empty slice.
	// Persistence failures are returned as tlerror.Storage errors.
	Client interface {
		// Save inserts or updates the entry in database with the given model.
		Save(m model.Model) error
		// Delete deletes the entry in database with the given model.
		// Deleting an absent entry is not an error.
		Delete(m model.Model) error
		// Close the database.
		Close() error
		// SchemaVersion returns the version of the database layout.
		SchemaVersion() (int, error)

		StoryInteraction
		BookmarkInteraction
		PendingInteraction
		PreferenceInteraction
		ResponseInteraction
	}

	// A StoryInteraction defines all the methods used to interact with the synced cache.
	StoryInteraction interface {
		// FindStory returns the cached story for the given id.
		FindStory(id string) (*model.Story, error)
		// FindStories returns all the cached stories, newest first.
		FindStories() ([]*model.Story, error)
		// DeleteStory removes the cached story for the given id.
		DeleteStory(id string) error
		// ClearStories removes all the cached stories.
		ClearStories() error
	}

	// A BookmarkInteraction defines all the methods used to interact with bookmarks.
	BookmarkInteraction interface {
		// FindBookmark returns the bookmark for the given story id.
		FindBookmark(id string) (*model.Bookmark, error)
		// FindBookmarks returns all bookmarks, most recently bookmarked first.
		FindBookmarks() ([]*model.Bookmark, error)
		// DeleteBookmark removes the bookmark for the given story id.
		DeleteBookmark(id string) error
	}

	// A PendingInteraction defines all the methods used to interact with pending drafts.
	PendingInteraction interface {
		// CreatePending stamps, identifies and stores the given draft.
		CreatePending(draft *model.Pending) (*model.Pending, error)
		// FindPending returns the pending draft for the given id.
		FindPending(id string) (*model.Pending, error)
		// FindPendings returns all the pending drafts, oldest first.
		FindPendings() ([]*model.Pending, error)
		// DeletePending removes the pending draft for the given id.
		DeletePending(id string) error
	}

	// A PreferenceInteraction defines all the methods used to interact with user's preferences.
	PreferenceInteraction interface {
		// FindPreference returns the preference for the given key.
		FindPreference(key string) (*model.Preference, error)
		// DeletePreference removes the preference for the given key.
		DeletePreference(key string) error
	}

	// A ResponseInteraction defines all the methods used to interact with cached HTTP responses.
	ResponseInteraction interface {
		// FindResponse returns the response stored for the given key in the given partition.
		FindResponse(partition, key string) (*model.CachedResponse, error)
		// FindResponsePartitions returns the names of all the non-empty partitions.
		FindResponsePartitions() ([]string, error)
		// DeleteResponsePartition removes all responses of the given partition.
		DeleteResponsePartition(partition string) error
	}
)
