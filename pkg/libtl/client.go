package libtl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

type (
	// A Client defines all interactions that can be performed on the story API.
	Client interface {
		// Login connects the Client to the story API and keeps the returned bearer token.
		Login(ctx context.Context, email, password string) error
		// Register creates a new account.
		Register(ctx context.Context, name, email, password string) error
		// BearerToken returns the authentication used for requests sent to the story API.
		BearerToken() string
		// SetBearerToken sets the authentication used for requests sent to the story API.
		SetBearerToken(token string)
		// SetUnauthorizedHandler defines the function called when the API rejects the bearer token.
		SetUnauthorizedHandler(fn func())
		// Stories returns all the published stories.
		Stories(ctx context.Context) ([]*Story, error)
		// AddStory publishes a new story.
		AddStory(ctx context.Context, story NewStory) error
		// Subscribe registers a web push subscription for the authenticated user.
		Subscribe(ctx context.Context, subscription Subscription) error
		// Unsubscribe removes the web push subscription identified by its endpoint.
		Unsubscribe(ctx context.Context, endpoint string) error
	}

	p      map[string]any
	client struct {
		http           *http.Client
		endpoint       string
		mu             sync.RWMutex
		bearer         string
		onUnauthorized func()
	}

	envelope struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
)

// NewDefaultClient returns a new Client with default HTTP client.
func NewDefaultClient(endpoint string) (Client, error) {
	return NewClient(http.DefaultClient, endpoint)
}

// NewClient returns a new Client.
func NewClient(c *http.Client, endpoint string) (Client, error) {
	_, err := url.Parse(endpoint)
	return &client{endpoint: endpoint, http: c}, errors.Wrap(err, "could not parse endpoint")
}

func (c *client) Login(ctx context.Context, email, password string) error {
	var login struct {
		envelope
		LoginResult struct {
			UserID string `json:"userId"`
			Name   string `json:"name"`
			Token  string `json:"token"`
		} `json:"loginResult"`
	}

	err := c.doJSON(ctx, "/login", p{"email": email, "password": password}, &login)
	if err != nil {
		return err
	}

	if login.LoginResult.Token == "" {
		return errors.New("token not found in response")
	}
	c.SetBearerToken(login.LoginResult.Token)
	return nil
}

func (c *client) Register(ctx context.Context, name, email, password string) error {
	var register envelope
	return c.doJSON(ctx, "/register", p{"name": name, "email": email, "password": password}, &register)
}

func (c *client) BearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.bearer
}

func (c *client) SetBearerToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bearer = token
}

func (c *client) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onUnauthorized = fn
}

func (c *client) Stories(ctx context.Context) ([]*Story, error) {
	u, err := c.url("/stories")
	if err != nil {
		return nil, err
	}

	//
	// Build request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not build request")
	}
	req.Header.Add("Accept", "application/json")

	//
	// Perform request
	var stories struct {
		envelope
		ListStory []*Story `json:"listStory"`
	}
	if err = c.do(req, &stories); err != nil {
		return nil, err
	}

	if stories.ListStory == nil {
		stories.ListStory = []*Story{}
	}
	return stories.ListStory, nil
}

func (c *client) AddStory(ctx context.Context, story NewStory) error {
	if err := story.Validate(); err != nil {
		return err
	}

	u, err := c.url("/stories")
	if err != nil {
		return err
	}

	//
	// Build request
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	if err = form.WriteField("description", story.Description); err != nil {
		return errors.Wrap(err, "could not write description")
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, filename(story.Photo)))
	header.Set("Content-Type", contentType(story.Photo))
	part, err := form.CreatePart(header)
	if err != nil {
		return errors.Wrap(err, "could not create photo part")
	}
	if _, err = part.Write(story.Photo.Data); err != nil {
		return errors.Wrap(err, "could not write photo")
	}

	if story.Lat != nil && story.Lon != nil {
		if err = form.WriteField("lat", strconv.FormatFloat(*story.Lat, 'f', -1, 64)); err != nil {
			return errors.Wrap(err, "could not write lat")
		}
		if err = form.WriteField("lon", strconv.FormatFloat(*story.Lon, 'f', -1, 64)); err != nil {
			return errors.Wrap(err, "could not write lon")
		}
	}

	if err = form.Close(); err != nil {
		return errors.Wrap(err, "could not close multipart form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &body)
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Add("Accept", "application/json")

	//
	// Perform request
	var created envelope
	return c.do(req, &created)
}

// Subscribe implements Client.
func (c *client) Subscribe(ctx context.Context, subscription Subscription) error {
	if err := subscription.Validate(); err != nil {
		return err
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost, "/notifications/subscribe", subscription)
	if err != nil {
		return err
	}

	var subscribed envelope
	return c.do(req, &subscribed)
}

// Unsubscribe implements Client.
func (c *client) Unsubscribe(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return ErrIncompleteSubscription
	}

	req, err := c.newJSONRequest(ctx, http.MethodDelete, "/notifications/subscribe", p{"endpoint": endpoint})
	if err != nil {
		return err
	}

	var unsubscribed envelope
	return c.do(req, &unsubscribed)
}

func (c *client) url(p string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", errors.Wrap(err, "could not parse endpoint")
	}
	u.Path = path.Join(u.Path, p)
	return u.String(), nil
}

// doJSON performs an unauthenticated POST with a JSON body.
func (c *client) doJSON(ctx context.Context, endpoint string, params p, v any) error {
	req, err := c.newJSONRequest(ctx, http.MethodPost, endpoint, params)
	if err != nil {
		return err
	}
	return c.send(req, v)
}

func (c *client) newJSONRequest(ctx context.Context, method, endpoint string, params any) (*http.Request, error) {
	u, err := c.url(endpoint)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, errors.Wrap(err, "could not serialize params")
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "could not build request")
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req, nil
}

// do performs an authenticated request.
func (c *client) do(req *http.Request, v any) error {
	token := c.BearerToken()
	if token == "" {
		return ErrNoToken
	}
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", token))

	err := c.send(req, v)
	if IsUnauthorized(err) {
		c.invalidate()
	}
	return err
}

func (c *client) send(req *http.Request, v any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "could not perform request")
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "could not read response")
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return parseAPIError(payload, res.StatusCode)
	}

	//
	// Process response
	var env envelope
	if err = json.Unmarshal(payload, &env); err != nil {
		return errors.Wrap(err, "could not parse response")
	}
	if env.Error {
		return &APIError{StatusCode: res.StatusCode, Message: env.Message}
	}

	return errors.Wrap(json.Unmarshal(payload, v), "could not parse response")
}

func (c *client) invalidate() {
	c.mu.Lock()
	c.bearer = ""
	fn := c.onUnauthorized
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func filename(photo Photo) string {
	if photo.Filename != "" {
		return photo.Filename
	}
	return "photo"
}

func contentType(photo Photo) string {
	if photo.ContentType != "" {
		return photo.ContentType
	}
	return http.DetectContentType(photo.Data)
}
