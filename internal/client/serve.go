package client

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mdouchement/travellog/internal/interceptor"
	"github.com/mdouchement/travellog/internal/server"
	"github.com/mdouchement/travellog/internal/service"
	"github.com/pkg/errors"
)

// Serve runs the local offline proxy until ctx is done.
func Serve(ctx context.Context, app *App, version string) error {
	cache, err := interceptor.New(app.DB, http.DefaultTransport, app.Config.Cache, app.Logger)
	if err != nil {
		return err
	}

	install, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err = cache.Install(install); err != nil {
		app.Logger.WithError(err).Warn("could not cache application shell")
	}
	cancel()

	if err = cache.Activate(); err != nil {
		return errors.Wrap(err, "could not activate cache")
	}

	//
	// Background sync

	autosync := service.NewAutoSync(app.Reconciler, app.Probe, app.Config.SyncDebounce, app.Logger)
	autosync.OnResult(func(outcomes []service.Outcome, err error) {
		if err == nil && len(outcomes) > 0 {
			app.Logger.WithField("outcomes", len(outcomes)).Info("background sync completed")
		}
	})
	stop := autosync.Start(ctx)
	defer stop()

	go app.Probe.Run(ctx)
	autosync.Trigger()

	//
	// Proxy

	api, err := url.Parse(app.Config.Endpoint)
	if err != nil {
		return errors.Wrap(err, "could not parse endpoint")
	}
	api.Path = ""

	shell, err := url.Parse(app.Config.Cache.ShellOrigin)
	if err != nil {
		return errors.Wrap(err, "could not parse shell origin")
	}

	engine := server.EchoEngine(server.IOC{
		Version:     version,
		Logger:      app.Logger,
		Signal:      app.Probe,
		Stories:     app.Stories,
		Reconciler:  app.Reconciler,
		Session:     app.Session,
		Transport:   cache,
		APIOrigin:   api,
		APIPrefix:   app.Config.Cache.APIPrefix,
		ShellOrigin: shell,
	})
	server.PrintRoutes(engine)

	go func() {
		<-ctx.Done()

		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := engine.Shutdown(shutdown); err != nil {
			app.Logger.WithError(err).Warn("could not shutdown server")
		}
	}()

	address := app.Config.Address
	message := "could not run server"
	app.Logger.Infof("Server listening on %s", address)

	parts := strings.Split(address, ":")
	if len(parts) == 2 && parts[0] == "unix" {
		socketFile := parts[1]
		if _, err := os.Stat(socketFile); err == nil {
			app.Logger.Infof("Removing existing %s", socketFile)
			os.Remove(socketFile)
		}
		defer os.Remove(socketFile)

		listener, err := net.Listen(parts[0], socketFile)
		if err != nil {
			return err
		}
		return ignoreClosed(errors.Wrap(engine.Server.Serve(listener), message))
	}
	return ignoreClosed(errors.Wrap(engine.Start(address), message))
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
