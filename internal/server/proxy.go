package server

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/travellog/internal/tlerror"
	"github.com/pkg/errors"
)

// Hop-by-hop headers and headers rewritten by the transport.
var skippedHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
	"Content-Length":    true,
	"Content-Encoding":  true,
}

// proxy forwards requests to the remote API or the application shell origin.
type proxy struct {
	transport http.RoundTripper
	api       *url.URL
	apiPrefix string
	shell     *url.URL
}

// Forward sends the request through the transport and copies the response back.
func (h *proxy) Forward(c echo.Context) error {
	in := c.Request()

	target := *h.shell
	if strings.HasPrefix(in.URL.Path, h.apiPrefix) {
		target = *h.api
	}
	target.Path = in.URL.Path
	target.RawPath = in.URL.RawPath
	target.RawQuery = in.URL.RawQuery

	req, err := http.NewRequestWithContext(in.Context(), in.Method, target.String(), in.Body)
	if err != nil {
		return errors.Wrap(err, "could not build upstream request")
	}
	req.ContentLength = in.ContentLength
	for k, v := range in.Header {
		if skippedHeaders[k] || k == "Accept-Encoding" {
			continue
		}
		req.Header[k] = v
	}

	res, err := h.transport.RoundTrip(req)
	if err != nil {
		return tlerror.Wrap(tlerror.Connectivity, err, "could not reach upstream")
	}
	defer res.Body.Close()

	header := c.Response().Header()
	for k, v := range res.Header {
		if skippedHeaders[k] {
			continue
		}
		header[k] = v
	}

	c.Response().WriteHeader(res.StatusCode)
	_, err = io.Copy(c.Response(), res.Body)
	return errors.Wrap(err, "could not copy upstream response")
}
