package middlewares

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/travellog/internal/tlerror"
)

type binder struct {
	echo.DefaultBinder
	methodsWithBody map[string]bool
}

// NewBinder returns a wrap of the default binder implementation rejecting empty bodies.
func NewBinder() echo.Binder {
	return &binder{
		methodsWithBody: map[string]bool{
			http.MethodPost:  true,
			http.MethodPatch: true,
			http.MethodPut:   true,
		},
	}
}

// Bind implements the echo.Bind interface.
func (b *binder) Bind(i any, c echo.Context) error {
	if c.Request().ContentLength == 0 && b.methodsWithBody[c.Request().Method] {
		return tlerror.New(tlerror.Validation, "request body can't be empty")
	}

	if err := b.DefaultBinder.Bind(i, c); err != nil {
		return tlerror.Wrap(tlerror.Validation, err, "could not parse request body")
	}
	return nil
}
