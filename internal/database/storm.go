package database

import (
	"fmt"
	"sort"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/codec"
	"github.com/asdine/storm/v3/q"
	"github.com/gofrs/uuid"
	"github.com/mdouchement/travellog/internal/model"
	"github.com/mdouchement/travellog/internal/tlerror"
	"github.com/mdouchement/travellog/pkg/stormcodec"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const (
	// SchemaVersion is the current layout version of the database.
	SchemaVersion = 2

	metaBucket = "meta"
	schemaKey  = "schema_version"
)

type (
	strm struct {
		db  *storm.DB
		now func() time.Time
	}

	// An Option configures the Storm database.
	Option func(*options)

	options struct {
		codec   codec.MarshalUnmarshaler
		timeout time.Duration
		now     func() time.Time
	}
)

// WithCodec defines the format used to store data in the database.
func WithCodec(c codec.MarshalUnmarshaler) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithTimeout defines how long to wait for the database file lock.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithClock defines the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func open(database string, opts []Option) (*storm.DB, *options, error) {
	o := &options{
		codec:   stormcodec.Default,
		timeout: time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	db, err := storm.Open(database,
		storm.Codec(o.codec),
		storm.BoltOptions(0600, &bolt.Options{Timeout: o.timeout}),
	)
	if err != nil {
		return nil, nil, tlerror.Wrap(tlerror.Storage, err, "could not get database connection")
	}
	return db, o, nil
}

// StormInit initializes Storm database.
func StormInit(database string, opts ...Option) error {
	db, _, err := open(database, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	return migrate(db)
}

// StormReIndex reindex Storm database.
func StormReIndex(database string, opts ...Option) error {
	db, _, err := open(database, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, m := range []any{&model.Story{}, &model.Bookmark{}, &model.Pending{}, &model.CachedResponse{}} {
		if err := db.ReIndex(m); err != nil {
			return tlerror.Wrap(tlerror.Storage, err, fmt.Sprintf("could not ReIndex %T", m))
		}
	}
	return nil
}

// StormOpen returns a new Storm database connection.
// Opening is idempotent: the layout is upgraded only once.
func StormOpen(database string, opts ...Option) (Client, error) {
	db, o, err := open(database, opts)
	if err != nil {
		return nil, err
	}

	if err = migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &strm{
		db:  db,
		now: o.now,
	}, nil
}

// migrate upgrades the database layout to SchemaVersion.
// Bookmarks, pending drafts and preferences are always preserved.
func migrate(db *storm.DB) error {
	var version int
	err := db.Get(metaBucket, schemaKey, &version)
	if err != nil && err != storm.ErrNotFound {
		return tlerror.Wrap(tlerror.Storage, err, "could not read schema version")
	}

	if version > SchemaVersion {
		return tlerror.New(tlerror.Storage, fmt.Sprintf("database schema %d is newer than supported %d", version, SchemaVersion))
	}

	if version == SchemaVersion {
		return nil
	}

	if version == 1 {
		// Layout 1 stored stories without index, the synced cache is rebuilt on next fetch.
		if err = db.Drop(&model.Story{}); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return tlerror.Wrap(tlerror.Storage, err, "could not drop legacy stories")
		}
	}

	for _, m := range []any{&model.Story{}, &model.Bookmark{}, &model.Pending{}, &model.Preference{}, &model.CachedResponse{}} {
		if err = db.Init(m); err != nil {
			return tlerror.Wrap(tlerror.Storage, err, fmt.Sprintf("could not init %T", m))
		}
	}

	err = db.Set(metaBucket, schemaKey, SchemaVersion)
	return tlerror.Wrap(tlerror.Storage, err, "could not write schema version")
}

// Save inserts or updates the entry in database with the given model.
func (c *strm) Save(m model.Model) error {
	if m.GetID() == "" {
		return tlerror.New(tlerror.Validation, fmt.Sprintf("could not save %T without id", m))
	}

	return tlerror.Wrap(tlerror.Storage, c.db.Save(m), "could not save the model")
}

// Delete deletes the entry in database with the given model.
func (c *strm) Delete(m model.Model) error {
	err := c.db.DeleteStruct(m)
	if c.isNotFound(err) {
		return nil
	}
	return tlerror.Wrap(tlerror.Storage, err, "could not delete the model")
}

// Close the database.
func (c *strm) Close() error {
	return c.db.Close()
}

// SchemaVersion returns the version of the database layout.
func (c *strm) SchemaVersion() (int, error) {
	var version int
	err := c.db.Get(metaBucket, schemaKey, &version)
	return version, tlerror.Wrap(tlerror.Storage, err, "could not read schema version")
}

func (c *strm) isNotFound(err error) bool {
	return errors.Cause(err) == storm.ErrNotFound || errors.Is(err, bolt.ErrBucketNotFound)
}

// one fetches a record by id and returns false on a miss.
func (c *strm) one(id string, to any) (bool, error) {
	err := c.db.One("ID", id, to)
	if c.isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, tlerror.Wrap(tlerror.Storage, err, fmt.Sprintf("could not find %T", to))
	}
	return true, nil
}

//
// Synced cache
//

// FindStory returns the cached story for the given id.
func (c *strm) FindStory(id string) (*model.Story, error) {
	var story model.Story
	found, err := c.one(id, &story)
	if !found {
		return nil, err
	}
	return &story, nil
}

// FindStories returns all the cached stories, newest first.
func (c *strm) FindStories() ([]*model.Story, error) {
	stories := make([]*model.Story, 0)
	err := c.db.Select().OrderBy("CreatedAt").Reverse().Find(&stories)
	if err != nil && !c.isNotFound(err) {
		return nil, tlerror.Wrap(tlerror.Storage, err, "could not find stories")
	}
	return stories, nil
}

// DeleteStory removes the cached story for the given id.
func (c *strm) DeleteStory(id string) error {
	return c.Delete(&model.Story{ID: id})
}

// ClearStories removes all the cached stories.
func (c *strm) ClearStories() error {
	err := c.db.Drop(&model.Story{})
	if err != nil && !c.isNotFound(err) {
		return tlerror.Wrap(tlerror.Storage, err, "could not clear stories")
	}
	return tlerror.Wrap(tlerror.Storage, c.db.Init(&model.Story{}), "could not init stories")
}

//
// Bookmarks
//

// FindBookmark returns the bookmark for the given story id.
func (c *strm) FindBookmark(id string) (*model.Bookmark, error) {
	var bookmark model.Bookmark
	found, err := c.one(id, &bookmark)
	if !found {
		return nil, err
	}
	return &bookmark, nil
}

// FindBookmarks returns all bookmarks, most recently bookmarked first.
func (c *strm) FindBookmarks() ([]*model.Bookmark, error) {
	bookmarks := make([]*model.Bookmark, 0)
	err := c.db.Select().OrderBy("BookmarkedAt").Reverse().Find(&bookmarks)
	if err != nil && !c.isNotFound(err) {
		return nil, tlerror.Wrap(tlerror.Storage, err, "could not find bookmarks")
	}
	return bookmarks, nil
}

// DeleteBookmark removes the bookmark for the given story id.
func (c *strm) DeleteBookmark(id string) error {
	return c.Delete(&model.Bookmark{Story: model.Story{ID: id}})
}

//
// Pending drafts
//

// CreatePending stamps, identifies and stores the given draft.
// The generated id is time-based inside the model.PendingIDPrefix namespace.
func (c *strm) CreatePending(draft *model.Pending) (*model.Pending, error) {
	now := c.now().UTC()

	record := *draft
	record.ID = fmt.Sprintf("%s%d-%s", model.PendingIDPrefix, now.UnixMilli(), uuid.Must(uuid.NewV4()).String()[:8])
	record.CreatedAt = now
	record.Synced = false

	if err := c.db.Save(&record); err != nil {
		return nil, tlerror.Wrap(tlerror.Storage, err, "could not save pending story")
	}
	return &record, nil
}

// FindPending returns the pending draft for the given id.
func (c *strm) FindPending(id string) (*model.Pending, error) {
	var pending model.Pending
	found, err := c.one(id, &pending)
	if !found {
		return nil, err
	}
	return &pending, nil
}

// FindPendings returns all the pending drafts, oldest first.
func (c *strm) FindPendings() ([]*model.Pending, error) {
	pendings := make([]*model.Pending, 0)
	err := c.db.Select().OrderBy("CreatedAt").Find(&pendings)
	if err != nil && !c.isNotFound(err) {
		return nil, tlerror.Wrap(tlerror.Storage, err, "could not find pending stories")
	}
	return pendings, nil
}

// DeletePending removes the pending draft for the given id.
func (c *strm) DeletePending(id string) error {
	return c.Delete(&model.Pending{ID: id})
}

//
// Preferences
//

// FindPreference returns the preference for the given key.
func (c *strm) FindPreference(key string) (*model.Preference, error) {
	var preference model.Preference
	found, err := c.one(key, &preference)
	if !found {
		return nil, err
	}
	return &preference, nil
}

// DeletePreference removes the preference for the given key.
func (c *strm) DeletePreference(key string) error {
	return c.Delete(&model.Preference{ID: key})
}

//
// Cached responses
//

// FindResponse returns the response stored for the given key in the given partition.
func (c *strm) FindResponse(partition, key string) (*model.CachedResponse, error) {
	var response model.CachedResponse
	found, err := c.one(model.CachedResponseID(partition, key), &response)
	if !found {
		return nil, err
	}
	return &response, nil
}

// FindResponsePartitions returns the names of all the non-empty partitions.
func (c *strm) FindResponsePartitions() ([]string, error) {
	set := map[string]bool{}
	err := c.db.Select().Each(new(model.CachedResponse), func(record any) error {
		set[record.(*model.CachedResponse).Partition] = true
		return nil
	})
	if err != nil && !c.isNotFound(err) {
		return nil, tlerror.Wrap(tlerror.Storage, err, "could not list cache partitions")
	}

	partitions := make([]string, 0, len(set))
	for partition := range set {
		partitions = append(partitions, partition)
	}
	sort.Strings(partitions)
	return partitions, nil
}

// DeleteResponsePartition removes all responses of the given partition.
func (c *strm) DeleteResponsePartition(partition string) error {
	err := c.db.Select(q.Eq("Partition", partition)).Delete(new(model.CachedResponse))
	if c.isNotFound(err) {
		return nil
	}
	return tlerror.Wrap(tlerror.Storage, err, "could not delete cache partition")
}
