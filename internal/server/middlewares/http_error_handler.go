package middlewares

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/mdouchement/travellog/internal/tlerror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HTTPErrorHandler returns a handler that formats rendered errors like the remote API does.
func HTTPErrorHandler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var herr *echo.HTTPError
		if errors.As(err, &herr) {
			logger.WithError(herr.Internal).Debug("echo error")
			_ = c.JSON(herr.Code, echo.Map{
				"error":   true,
				"message": fmt.Sprint(herr.Message),
			})
			return
		}

		status := tlerror.StatusCode(err)
		if tlerror.KindOf(err) != tlerror.Unknown && status < 500 || tlerror.Is(err, tlerror.Offline) {
			_ = c.JSON(status, echo.Map{
				"error":   true,
				"kind":    tlerror.KindOf(err).String(),
				"message": err.Error(),
			})
			return
		}

		internal(logger, err, status, c)
	}
}

func internal(logger logrus.FieldLogger, err error, status int, c echo.Context) {
	id := uuid.Must(uuid.NewV4()).String()
	logger.WithField("id", id).WithError(err).Error("request failed")

	_ = c.JSON(status, echo.Map{
		"error":   true,
		"kind":    tlerror.KindOf(err).String(),
		"message": fmt.Sprintf("Unexpected error (id: %s)", id),
	})
}
