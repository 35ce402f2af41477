package server

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mdouchement/travellog/internal/reachability"
	"github.com/mdouchement/travellog/internal/server/middlewares"
	"github.com/mdouchement/travellog/internal/service"
	"github.com/sirupsen/logrus"
)

// An IOC is an Iversion Of Control pattern used to init the server package.
type IOC struct {
	Version    string
	Logger     *logrus.Logger
	Signal     reachability.Signal
	Stories    *service.Stories
	Reconciler *service.Reconciler
	Session    *service.Session
	// Proxy params
	Transport   http.RoundTripper
	APIOrigin   *url.URL
	APIPrefix   string
	ShellOrigin *url.URL
}

// EchoEngine instantiates the local offline proxy.
func EchoEngine(ctrl IOC) *echo.Echo {
	engine := echo.New()
	engine.HideBanner = true
	engine.Use(middleware.Recover())
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	engine.Use(middleware.Gzip())

	engine.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${status}] ${method} ${uri} (${bytes_in}) ${latency_human}\n",
		Output: ctrl.Logger.Writer(),
	}))
	engine.Binder = middlewares.NewBinder()
	// Error handler
	engine.HTTPErrorHandler = middlewares.HTTPErrorHandler(ctrl.Logger)

	////////////
	// Router //
	////////////

	router := engine.Group("/-")

	// generic handlers
	//
	router.GET("/status", func(c echo.Context) error {
		pendings, err := ctrl.Stories.Pendings()
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, echo.Map{
			"version":   ctrl.Version,
			"online":    ctrl.Signal.Online(),
			"logged_in": ctrl.Session.LoggedIn(),
			"pending":   len(pendings),
		})
	})

	//
	// pending handlers
	//
	pending := &pending{
		stories:    ctrl.Stories,
		reconciler: ctrl.Reconciler,
	}
	router.GET("/pending", pending.List)
	router.DELETE("/pending/:id", pending.Discard)
	router.POST("/sync", pending.SyncAll)
	router.POST("/sync/:id", pending.SyncOne)

	//
	// bookmark handlers
	//
	bookmark := &bookmark{
		stories: ctrl.Stories,
	}
	router.GET("/bookmarks", bookmark.List)
	router.POST("/bookmarks", bookmark.Create)
	router.DELETE("/bookmarks/:id", bookmark.Delete)

	//
	// proxy handler
	//
	proxy := &proxy{
		transport: ctrl.Transport,
		api:       ctrl.APIOrigin,
		apiPrefix: ctrl.APIPrefix,
		shell:     ctrl.ShellOrigin,
	}
	engine.Any("/*", proxy.Forward)

	return engine
}

// PrintRoutes prints the Echo engin exposed routes.
func PrintRoutes(e *echo.Echo) {
	ignored := map[string]bool{
		"":  true,
		".": true,
	}

	routes := e.Routes()
	sort.Slice(routes, func(i int, j int) bool {
		return routes[i].Path < routes[j].Path
	})

	fmt.Println("Routes:")
	for _, route := range routes {
		if ignored[route.Path] {
			continue
		}
		fmt.Printf("%6s %s\n", route.Method, route.Path)
	}
}
