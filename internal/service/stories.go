package service

import (
	"context"
	"time"

	"github.com/mdouchement/travellog/internal/database"
	"github.com/mdouchement/travellog/internal/model"
	"github.com/mdouchement/travellog/internal/reachability"
	"github.com/mdouchement/travellog/internal/tlerror"
	"github.com/mdouchement/travellog/pkg/libtl"
	"github.com/sirupsen/logrus"
)

// OfflineStoryName is the author displayed for pending stories.
const OfflineStoryName = "Offline story"

type (
	// A Submission is the result of a story submission.
	Submission struct {
		// Published is true when the remote API accepted the story.
		Published bool `json:"published"`
		// Pending is the draft saved locally when the story could not be published.
		Pending *model.Pending `json:"pending,omitempty"`
	}

	// A FeedStory is a story displayed to the user.
	FeedStory struct {
		model.Story
		Offline bool `json:"offline"`
	}

	// A Feed is the list of stories displayed to the user, pending ones first.
	Feed struct {
		Stories []*FeedStory `json:"stories"`
		// Cached is true when the server stories come from the local cache.
		Cached bool `json:"cached"`
	}

	// A Stories service manages the stories of the user.
	Stories struct {
		db      database.Client
		api     libtl.Client
		signal  reachability.Signal
		timeout time.Duration
		logger  logrus.FieldLogger
		now     func() time.Time
	}
)

// NewStories returns a new Stories service.
// Submissions are bounded by the given timeout.
func NewStories(db database.Client, api libtl.Client, signal reachability.Signal, timeout time.Duration, logger logrus.FieldLogger) *Stories {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Stories{
		db:      db,
		api:     api,
		signal:  signal,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Submit publishes the story or saves it as a pending story when the remote API is unreachable.
func (s *Stories) Submit(ctx context.Context, story libtl.NewStory) (*Submission, error) {
	if err := story.Validate(); err != nil {
		return nil, classify(err)
	}

	if !s.signal.Online() {
		return s.saveOffline(story)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := classify(s.api.AddStory(ctx, story))
	switch {
	case err == nil:
		return &Submission{Published: true}, nil
	case tlerror.Is(err, tlerror.Connectivity):
		s.logger.WithError(err).Info("story saved offline")
		return s.saveOffline(story)
	default:
		return nil, err
	}
}

func (s *Stories) saveOffline(story libtl.NewStory) (*Submission, error) {
	pending, err := s.db.CreatePending(&model.Pending{
		Description: story.Description,
		Photo:       model.NewPhoto(story.Photo.Filename, story.Photo.ContentType, story.Photo.Data),
		Lat:         story.Lat,
		Lon:         story.Lon,
	})
	if err != nil {
		return nil, err
	}

	return &Submission{Pending: pending}, nil
}

// Feed returns the stories of the remote API, or the cached ones when it is unreachable,
// preceded by the pending stories.
func (s *Stories) Feed(ctx context.Context) (*Feed, error) {
	feed := &Feed{
		Stories: []*FeedStory{},
	}

	pendings, err := s.db.FindPendings()
	if err != nil {
		return nil, err
	}
	for _, pending := range pendings {
		feed.Stories = append(feed.Stories, &FeedStory{
			Story: model.Story{
				ID:          pending.ID,
				Name:        OfflineStoryName,
				Description: pending.Description,
				Lat:         pending.Lat,
				Lon:         pending.Lon,
				CreatedAt:   pending.CreatedAt,
			},
			Offline: true,
		})
	}

	stories, err := s.fetch(ctx)
	if err != nil {
		if !tlerror.Is(err, tlerror.Connectivity) && !tlerror.Is(err, tlerror.Remote) {
			return nil, err
		}
		s.logger.WithError(err).Info("using cached stories")
	}

	if stories == nil {
		if stories, err = s.db.FindStories(); err != nil {
			return nil, err
		}
		feed.Cached = true
	}

	for _, story := range stories {
		feed.Stories = append(feed.Stories, &FeedStory{Story: *story})
	}
	return feed, nil
}

// fetch returns the stories of the remote API and refreshes the synced cache.
// It returns nil stories when offline.
func (s *Stories) fetch(ctx context.Context) ([]*model.Story, error) {
	if !s.signal.Online() {
		return nil, nil
	}

	remote, err := s.api.Stories(ctx)
	if err != nil {
		return nil, classify(err)
	}

	stories := make([]*model.Story, 0, len(remote))
	for _, r := range remote {
		story := &model.Story{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			PhotoURL:    r.PhotoURL,
			Lat:         r.Lat,
			Lon:         r.Lon,
			CreatedAt:   r.CreatedAt,
		}
		stories = append(stories, story)

		if err = s.db.Save(story); err != nil {
			s.logger.WithField("story", story.ID).WithError(err).Warn("could not cache story")
		}
	}

	return stories, nil
}

// Pendings returns all the pending stories, oldest first.
func (s *Stories) Pendings() ([]*model.Pending, error) {
	return s.db.FindPendings()
}

// DeletePending discards the pending story identified by id.
func (s *Stories) DeletePending(id string) error {
	return s.db.DeletePending(id)
}

// Bookmark bookmarks the cached story identified by id.
func (s *Stories) Bookmark(id string) (*model.Bookmark, error) {
	story, err := s.db.FindStory(id)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, notFound("story not found")
	}

	bookmark := &model.Bookmark{
		Story:        *story,
		BookmarkedAt: s.now().UTC(),
		IsBookmarked: true,
	}
	if err = s.db.Save(bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

// Unbookmark removes the bookmark of the story identified by id.
func (s *Stories) Unbookmark(id string) error {
	return s.db.DeleteBookmark(id)
}

// IsBookmarked returns true if the story identified by id is bookmarked.
func (s *Stories) IsBookmarked(id string) (bool, error) {
	bookmark, err := s.db.FindBookmark(id)
	if err != nil {
		return false, err
	}
	return bookmark != nil && bookmark.IsBookmarked, nil
}

// Bookmarks returns all bookmarks, most recently bookmarked first.
func (s *Stories) Bookmarks() ([]*model.Bookmark, error) {
	return s.db.FindBookmarks()
}
