package service

import (
	"context"
	"time"

	"github.com/mdouchement/travellog/internal/database"
	"github.com/mdouchement/travellog/internal/model"
	"github.com/mdouchement/travellog/internal/tlerror"
	"github.com/mdouchement/travellog/pkg/libtl"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// TokenPreference is the preference holding the bearer token.
	TokenPreference = "token"
	// SubscriptionPreference is the preference holding the endpoint of the web push subscription.
	SubscriptionPreference = "push_subscription"
)

// A Session manages the authentication against the remote API.
// The bearer token is persisted in the preferences and removed as soon as the API rejects it.
type Session struct {
	db     database.Client
	api    libtl.Client
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewSession returns a new Session bound to the given API client.
func NewSession(db database.Client, api libtl.Client, logger logrus.FieldLogger) *Session {
	s := &Session{
		db:     db,
		api:    api,
		logger: logger,
		now:    time.Now,
	}
	api.SetUnauthorizedHandler(s.invalidate)

	return s
}

// Restore loads the persisted bearer token.
// It returns false when there is no token or when it has expired.
func (s *Session) Restore() (bool, error) {
	token, err := s.Preference(TokenPreference)
	if err != nil {
		return false, err
	}
	if len(token) == 0 {
		return false, nil
	}

	if libtl.TokenExpiredAt(string(token), s.now()) {
		s.logger.Info("bearer token expired")
		return false, s.db.DeletePreference(TokenPreference)
	}

	s.api.SetBearerToken(string(token))
	return true, nil
}

// Login authenticates the user and persists the bearer token.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if err := s.api.Login(ctx, email, password); err != nil {
		return classify(err)
	}

	return s.SetPreference(TokenPreference, []byte(s.api.BearerToken()))
}

// Register creates a new account.
func (s *Session) Register(ctx context.Context, name, email, password string) error {
	return classify(s.api.Register(ctx, name, email, password))
}

// Logout forgets the bearer token.
func (s *Session) Logout() error {
	s.api.SetBearerToken("")
	return s.db.DeletePreference(TokenPreference)
}

// Subscribe registers the web push subscription on the remote API and remembers its endpoint.
func (s *Session) Subscribe(ctx context.Context, subscription libtl.Subscription) error {
	if err := s.api.Subscribe(ctx, subscription); err != nil {
		if errors.Cause(err) == libtl.ErrIncompleteSubscription {
			return tlerror.Wrap(tlerror.Validation, err, "invalid subscription")
		}
		return classify(err)
	}

	return s.SetPreference(SubscriptionPreference, []byte(subscription.Endpoint))
}

// Unsubscribe removes the remembered web push subscription from the remote API.
// It returns false when no subscription is known.
func (s *Session) Unsubscribe(ctx context.Context) (bool, error) {
	endpoint, err := s.Preference(SubscriptionPreference)
	if err != nil || len(endpoint) == 0 {
		return false, err
	}

	if err = s.api.Unsubscribe(ctx, string(endpoint)); err != nil {
		return false, classify(err)
	}
	return true, s.db.DeletePreference(SubscriptionPreference)
}

// LoggedIn returns true if a bearer token is available.
func (s *Session) LoggedIn() bool {
	return s.api.BearerToken() != ""
}

// Preference returns the value of the preference identified by key, nil if absent.
func (s *Session) Preference(key string) ([]byte, error) {
	preference, err := s.db.FindPreference(key)
	if err != nil || preference == nil {
		return nil, err
	}
	return preference.Value, nil
}

// SetPreference stores the value of the preference identified by key.
func (s *Session) SetPreference(key string, value []byte) error {
	return s.db.Save(&model.Preference{
		ID:    key,
		Value: value,
	})
}

func (s *Session) invalidate() {
	s.logger.Warn("bearer token rejected, login required")

	if err := s.db.DeletePreference(TokenPreference); err != nil {
		s.logger.WithError(err).Error("could not remove bearer token")
	}
}
