package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/mdouchement/travellog/internal/client"
	"github.com/mdouchement/travellog/internal/database"
	"github.com/mdouchement/travellog/pkg/libtl"
	"github.com/mdouchement/travellog/pkg/stormcodec"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cfg string
)

func main() {
	c := &cobra.Command{
		Use:          "travellog",
		Short:        "Offline-first TravelLog client",
		Version:      fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}
	c.PersistentFlags().StringVarP(&cfg, "config", "c", "", "Configuration file")

	c.AddCommand(initCmd)
	c.AddCommand(reindexCmd)
	c.AddCommand(loginCmd)
	c.AddCommand(registerCmd)
	c.AddCommand(logoutCmd)
	c.AddCommand(storiesCmd)
	c.AddCommand(postCmd)
	c.AddCommand(pendingCmd)
	c.AddCommand(discardCmd)
	c.AddCommand(syncCmd)
	c.AddCommand(bookmarkCmd)
	c.AddCommand(prefCmd)
	c.AddCommand(notificationsCmd)
	c.AddCommand(serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// run opens the application for the duration of fn.
func run(cmd *cobra.Command, fn func(ctx context.Context, app *client.App) error) error {
	config, err := client.LoadConfig(cfg)
	if err != nil {
		return err
	}

	app, err := client.Open(cmd.Context(), config)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(cmd.Context(), app)
}

func coordinate(cmd *cobra.Command, name string) (*float64, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}

	v, err := strconv.ParseFloat(cmd.Flag(name).Value.String(), 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", name)
	}
	return &v, nil
}

var (
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Init the local store",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			config, err := client.LoadConfig(cfg)
			if err != nil {
				return err
			}

			codec, err := stormcodec.Lookup(config.DatabaseCodec)
			if err != nil {
				return err
			}
			return database.StormInit(config.DatabaseFile(), database.WithCodec(codec))
		},
	}

	//
	reindexCmd = &cobra.Command{
		Use:   "reindex",
		Short: "Reindex the local store",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			config, err := client.LoadConfig(cfg)
			if err != nil {
				return err
			}

			codec, err := stormcodec.Lookup(config.DatabaseCodec)
			if err != nil {
				return err
			}
			return database.StormReIndex(config.DatabaseFile(), database.WithCodec(codec))
		},
	}

	//
	//
	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Login to the TravelLog API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, app *client.App) error {
				return client.Login(ctx, app, os.Stdout)
			})
		},
	}

	registerCmd = &cobra.Command{
		Use:   "register",
		Short: "Create an account on the TravelLog API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, app *client.App) error {
				return client.Register(ctx, app, os.Stdout)
			})
		},
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Forget the TravelLog session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(_ context.Context, app *client.App) error {
				return client.Logout(app, os.Stdout)
			})
		},
	}

	//
	//
	storiesCmd = &cobra.Command{
		Use:   "stories",
		Short: "List the stories, pending ones first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, app *client.App) error {
				return client.Stories(ctx, app, os.Stdout)
			})
		},
	}

	postCmd = &cobra.Command{
		Use:   "post <photo> <description>",
		Short: "Publish a story, or keep it for later when offline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := coordinate(cmd, "lat")
			if err != nil {
				return err
			}
			lon, err := coordinate(cmd, "lon")
			if err != nil {
				return err
			}

			return run(cmd, func(ctx context.Context, app *client.App) error {
				return client.Publish(ctx, app, os.Stdout, client.Post{
					PhotoPath:   args[0],
					Description: args[1],
					Lat:         lat,
					Lon:         lon,
				})
			})
		},
	}

	pendingCmd = &cobra.Command{
		Use:   "pending",
		Short: "List the stories waiting to be synced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(_ context.Context, app *client.App) error {
				return client.Pendings(app, os.Stdout)
			})
		},
	}

	discardCmd = &cobra.Command{
		Use:   "discard <id>",
		Short: "Delete a pending story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(_ context.Context, app *client.App) error {
				return client.Discard(app, args[0])
			})
		},
	}

	syncCmd = &cobra.Command{
		Use:   "sync [id]",
		Short: "Push the pending stories",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) > 0 {
				id = args[0]
			}

			return run(cmd, func(ctx context.Context, app *client.App) error {
				return client.Sync(ctx, app, os.Stdout, id)
			})
		},
	}

	bookmarkCmd = &cobra.Command{
		Use:   "bookmark [id]",
		Short: "Bookmark a story or list the bookmarks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remove, _ := cmd.Flags().GetBool("remove")

			return run(cmd, func(_ context.Context, app *client.App) error {
				switch {
				case len(args) == 0:
					return client.Bookmarks(app, os.Stdout)
				case remove:
					return client.Unbookmark(app, args[0])
				default:
					return client.Bookmark(app, os.Stdout, args[0])
				}
			})
		},
	}

	prefCmd = &cobra.Command{
		Use:   "pref <key> [value]",
		Short: "Read or write a preference",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(_ context.Context, app *client.App) error {
				if len(args) == 2 {
					return client.SetPreference(app, args[0], args[1])
				}
				return client.GetPreference(app, os.Stdout, args[0])
			})
		},
	}

	notificationsCmd = &cobra.Command{
		Use:   "notifications <endpoint> <p256dh> <auth>",
		Short: "Subscribe to web push notifications of new stories",
		Args: func(cmd *cobra.Command, args []string) error {
			if remove, _ := cmd.Flags().GetBool("remove"); remove {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			remove, _ := cmd.Flags().GetBool("remove")

			return run(cmd, func(ctx context.Context, app *client.App) error {
				if remove {
					return client.Unsubscribe(ctx, app, os.Stdout)
				}
				return client.Subscribe(ctx, app, os.Stdout, libtl.Subscription{
					Endpoint: args[0],
					Keys: libtl.SubscriptionKeys{
						P256DH: args[1],
						Auth:   args[2],
					},
				})
			})
		},
	}

	//
	//
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the local offline proxy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, app *client.App) error {
				return client.Serve(ctx, app, version)
			})
		},
	}
)

func init() {
	postCmd.Flags().Float64("lat", 0, "Latitude of the story")
	postCmd.Flags().Float64("lon", 0, "Longitude of the story")
	bookmarkCmd.Flags().BoolP("remove", "r", false, "Remove the bookmark")
	notificationsCmd.Flags().BoolP("remove", "r", false, "Remove the known subscription")
}
