package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mdouchement/travellog/internal/database"
	"github.com/mdouchement/travellog/internal/model"
	"github.com/mdouchement/travellog/pkg/libtl"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var errRefused = &dialError{}

type dialError struct{}

func (*dialError) Error() string   { return "dial tcp: connection refused" }
func (*dialError) Timeout() bool   { return false }
func (*dialError) Temporary() bool { return true }

// api is an in-memory libtl.Client.
type api struct {
	mu        sync.Mutex
	token     string
	handler   func()
	stories   []*libtl.Story
	listErr   error
	failures  map[string]error
	pushed    []libtl.NewStory
	delay     time.Duration
	pushCalls int
	endpoints map[string]libtl.Subscription
}

func newAPI() *api {
	return &api{
		token:     "jwt-token",
		failures:  map[string]error{},
		endpoints: map[string]libtl.Subscription{},
	}
}

func (a *api) Login(ctx context.Context, email, password string) error {
	if password != "12345678" {
		return &libtl.APIError{StatusCode: 401, Message: "Invalid password"}
	}
	a.SetBearerToken("jwt-" + email)
	return nil
}

func (a *api) Register(ctx context.Context, name, email, password string) error {
	if email == "" {
		return &libtl.APIError{StatusCode: 400, Message: `"email" is not allowed to be empty`}
	}
	return nil
}

func (a *api) BearerToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *api) SetBearerToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

func (a *api) SetUnauthorizedHandler(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = fn
}

func (a *api) Stories(ctx context.Context) ([]*libtl.Story, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.listErr != nil {
		return nil, a.fail(a.listErr)
	}
	return a.stories, nil
}

func (a *api) AddStory(ctx context.Context, story libtl.NewStory) error {
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "could not perform request")
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.pushCalls++
	if a.token == "" {
		return libtl.ErrNoToken
	}
	if err := a.failures[story.Description]; err != nil {
		return a.fail(err)
	}
	a.pushed = append(a.pushed, story)
	return nil
}

func (a *api) Subscribe(ctx context.Context, subscription libtl.Subscription) error {
	if err := subscription.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == "" {
		return libtl.ErrNoToken
	}
	a.endpoints[subscription.Endpoint] = subscription
	return nil
}

func (a *api) Unsubscribe(ctx context.Context, endpoint string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == "" {
		return libtl.ErrNoToken
	}
	delete(a.endpoints, endpoint)
	return nil
}

// fail must be called with the lock held.
func (a *api) fail(err error) error {
	if libtl.IsUnauthorized(err) {
		a.token = ""
		if a.handler != nil {
			go a.handler()
		}
	}
	return err
}

func (a *api) descriptions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var descriptions []string
	for _, story := range a.pushed {
		descriptions = append(descriptions, story.Description)
	}
	return descriptions
}

func setup(t *testing.T, opts ...database.Option) database.Client {
	db, err := database.StormOpen(filepath.Join(t.TempDir(), "travellog.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func draft(t *testing.T, db database.Client, description string) *model.Pending {
	pending, err := db.CreatePending(&model.Pending{
		Description: description,
		Photo:       model.NewPhoto("photo.jpg", "image/jpeg", []byte("jpeg")),
	})
	require.NoError(t, err)
	return pending
}

func snapshot(t *testing.T, db database.Client) []*model.Pending {
	pendings, err := db.FindPendings()
	require.NoError(t, err)
	return pendings
}

func float(v float64) *float64 {
	return &v
}
