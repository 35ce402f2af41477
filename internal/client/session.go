package client

import (
	"context"
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/mdouchement/travellog/pkg/libtl"
	"github.com/pkg/errors"
)

// Login connects to the story API and keeps the bearer token in the local store.
func Login(ctx context.Context, app *App, w io.Writer) error {
	email, err := readline.Line("Email: ")
	if err != nil {
		return errors.Wrap(err, "could not read email from stdin")
	}

	password, err := readline.Password("Password: ")
	if err != nil {
		return errors.Wrap(err, "could not read password from stdin")
	}

	if err = app.Session.Login(ctx, email, string(password)); err != nil {
		return errors.Wrap(err, "could not login")
	}

	fmt.Fprintln(w, "Logged in as", email)
	return nil
}

// Register creates a new account on the story API.
func Register(ctx context.Context, app *App, w io.Writer) error {
	name, err := readline.Line("Name: ")
	if err != nil {
		return errors.Wrap(err, "could not read name from stdin")
	}

	email, err := readline.Line("Email: ")
	if err != nil {
		return errors.Wrap(err, "could not read email from stdin")
	}

	password, err := readline.Password("Password: ")
	if err != nil {
		return errors.Wrap(err, "could not read password from stdin")
	}

	if err = app.Session.Register(ctx, name, email, string(password)); err != nil {
		return errors.Wrap(err, "could not register")
	}

	fmt.Fprintln(w, "Account created, you can now login")
	return nil
}

// Logout forgets the bearer token.
func Logout(app *App, w io.Writer) error {
	if err := app.Session.Logout(); err != nil {
		return errors.Wrap(err, "could not logout")
	}

	fmt.Fprintln(w, "Logged out")
	return nil
}

// GetPreference prints the value of the given preference.
func GetPreference(app *App, w io.Writer, key string) error {
	value, err := app.Session.Preference(key)
	if err != nil {
		return err
	}
	if value == nil {
		return errors.Errorf("preference %s not found", key)
	}

	fmt.Fprintln(w, string(value))
	return nil
}

// SetPreference stores the value of the given preference.
func SetPreference(app *App, key, value string) error {
	return app.Session.SetPreference(key, []byte(value))
}

// Subscribe registers a web push subscription for the logged in user.
func Subscribe(ctx context.Context, app *App, w io.Writer, subscription libtl.Subscription) error {
	if err := app.Session.Subscribe(ctx, subscription); err != nil {
		return errors.Wrap(err, "could not subscribe")
	}

	fmt.Fprintln(w, "Subscribed", subscription.Endpoint)
	return nil
}

// Unsubscribe removes the web push subscription of the logged in user.
func Unsubscribe(ctx context.Context, app *App, w io.Writer) error {
	ok, err := app.Session.Unsubscribe(ctx)
	if err != nil {
		return errors.Wrap(err, "could not unsubscribe")
	}

	if !ok {
		fmt.Fprintln(w, "No subscription")
		return nil
	}
	fmt.Fprintln(w, "Unsubscribed")
	return nil
}
