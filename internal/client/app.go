package client

import (
	"context"
	"net/http"

	"github.com/mdouchement/travellog/internal/database"
	"github.com/mdouchement/travellog/internal/logger"
	"github.com/mdouchement/travellog/internal/reachability"
	"github.com/mdouchement/travellog/internal/service"
	"github.com/mdouchement/travellog/pkg/libtl"
	"github.com/mdouchement/travellog/pkg/stormcodec"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// An App holds all the components used by the commands.
type App struct {
	Config     Config
	Logger     *logrus.Logger
	DB         database.Client
	API        libtl.Client
	Probe      *reachability.Probe
	Session    *service.Session
	Stories    *service.Stories
	Reconciler *service.Reconciler
}

// Open opens the local store and restores the session.
func Open(ctx context.Context, cfg Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger.New(cfg.Log),
	}

	codec, err := stormcodec.Lookup(cfg.DatabaseCodec)
	if err != nil {
		return nil, err
	}

	app.DB, err = database.StormOpen(cfg.DatabaseFile(), database.WithCodec(codec))
	if err != nil {
		return nil, errors.Wrap(err, "could not open database")
	}

	app.API, err = libtl.NewDefaultClient(cfg.Endpoint)
	if err != nil {
		app.DB.Close()
		return nil, errors.Wrap(err, "could not reach given endpoint")
	}

	app.Probe = reachability.NewProbe(http.DefaultClient, cfg.Probe, app.Logger)
	app.Probe.Check(ctx)

	app.Session = service.NewSession(app.DB, app.API, app.Logger)
	if _, err = app.Session.Restore(); err != nil {
		app.DB.Close()
		return nil, errors.Wrap(err, "could not restore session")
	}

	app.Stories = service.NewStories(app.DB, app.API, app.Probe, cfg.SubmitTimeout, app.Logger)
	app.Reconciler = service.NewReconciler(app.DB, app.API, app.Probe, cfg.PushTimeout, app.Logger)

	logger.Dump(app.Logger, cfg)
	return app, nil
}

// Close releases the local store.
func (a *App) Close() error {
	return a.DB.Close()
}
