// Package interceptor implements an offline-aware HTTP transport.
//
// Static application shell assets are served cache-first and API reads are served network-first,
// both falling back to responses stored in versioned cache partitions when the network fails.
package interceptor

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mdouchement/travellog/internal/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
)

// SourceHeader is set on responses that were not fetched from the network.
const SourceHeader = "X-Travellog-Source"

type (
	// A Storage persists cached responses by partition.
	Storage interface {
		Save(m model.Model) error
		FindResponse(partition, key string) (*model.CachedResponse, error)
		FindResponsePartitions() ([]string, error)
		DeleteResponsePartition(partition string) error
	}

	// A Config defines the cache partitions and the application shell.
	Config struct {
		// ShellVersion names the partition of the application shell assets.
		ShellVersion string
		// APIVersion names the partition of the API response snapshots.
		APIVersion string
		// APIPrefix is the path prefix of API requests.
		APIPrefix string
		// ShellOrigin is the base URL the shell assets are resolved against.
		ShellOrigin string
		// ShellAssets are the assets stored at install time.
		ShellAssets []string
		// ShellEntry is served to navigation requests when the network fails.
		ShellEntry string
		// Placeholder is served to image requests when the network fails.
		Placeholder string
	}

	// An Interceptor is an http.RoundTripper serving cached responses when the network fails.
	// Until it is activated, all requests pass through untouched.
	Interceptor struct {
		storage Storage
		next    http.RoundTripper
		config  Config
		origin  *url.URL
		logger  logrus.FieldLogger
		active  atomic.Bool
	}
)

// DefaultConfig returns the cache configuration of the TravelLog application.
func DefaultConfig() Config {
	return Config{
		ShellVersion: "travellog-v1.4.0",
		APIVersion:   "travellog-api-v1",
		APIPrefix:    "/v1/",
		ShellAssets: []string{
			"./",
			"./index.html",
			"./app.bundle.js",
			"./sw.js",
			"./styles/styles.css",
			"./icons/icon-192x192.png",
			"./icons/icon-512x512.png",
			"./favicon.png",
		},
		ShellEntry:  "./index.html",
		Placeholder: "./icons/icon-192x192.png",
	}
}

// New returns a new Interceptor sending requests through next.
func New(store Storage, next http.RoundTripper, config Config, logger logrus.FieldLogger) (*Interceptor, error) {
	if next == nil {
		next = http.DefaultTransport
	}

	origin, err := url.Parse(config.ShellOrigin)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse shell origin")
	}

	return &Interceptor{
		storage: store,
		next:    next,
		config:  config,
		origin:  origin,
		logger:  logger,
	}, nil
}

// Active returns true once the interceptor controls the requests.
func (i *Interceptor) Active() bool {
	return i.active.Load()
}

// RoundTrip implements http.RoundTripper.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	if !i.Active() || req.Method != http.MethodGet {
		return i.next.RoundTrip(req)
	}

	if strings.HasPrefix(req.URL.Path, i.config.APIPrefix) {
		return i.networkFirst(req)
	}
	return i.cacheFirst(req)
}

// networkFirst serves API reads from the network and falls back to the last snapshot of the same request.
func (i *Interceptor) networkFirst(req *http.Request) (*http.Response, error) {
	key := req.URL.String()
	logger := i.logger.WithField("url", key)

	res, err := i.next.RoundTrip(req)
	if err == nil {
		if res.StatusCode != http.StatusOK {
			return res, nil
		}
		if res, err = i.store(i.config.APIVersion, key, res); err == nil {
			return res, nil
		}
	}
	logger.WithError(err).Debug("network failed, using API cache")

	if cached := i.lookup(i.config.APIVersion, key); cached != nil {
		return replay(req, cached), nil
	}

	logger.Info("no API snapshot, serving offline body")
	return offline(req), nil
}

// cacheFirst serves shell assets from the cache, fetching and storing them on a miss.
func (i *Interceptor) cacheFirst(req *http.Request) (*http.Response, error) {
	key := req.URL.String()

	if cached := i.lookup(i.config.ShellVersion, key); cached != nil {
		return replay(req, cached), nil
	}

	res, err := i.next.RoundTrip(req)
	if err == nil {
		if res.StatusCode != http.StatusOK || !i.sameOrigin(req.URL) {
			return res, nil
		}
		if res, err = i.store(i.config.ShellVersion, key, res); err == nil {
			return res, nil
		}
	}
	i.logger.WithField("url", key).WithError(err).Debug("network failed, using shell fallback")

	var fallback *model.CachedResponse
	switch {
	case isNavigation(req):
		fallback = i.lookup(i.config.ShellVersion, i.resolve(i.config.ShellEntry))
	case isImage(req):
		fallback = i.lookup(i.config.ShellVersion, i.resolve(i.config.Placeholder))
	}
	if fallback != nil {
		return replay(req, fallback), nil
	}

	return synthesize(req, http.StatusRequestTimeout, "text/plain", []byte("Network error happened")), nil
}

// store snapshots the response in the given partition before handing it back with a fresh body.
// A body that cannot be read is reported as a network failure.
func (i *Interceptor) store(partition, key string, res *http.Response) (*http.Response, error) {
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	if err != nil {
		return nil, errors.Wrap(err, "could not read response")
	}
	res.Body = io.NopCloser(bytes.NewReader(body))

	err = i.storage.Save(&model.CachedResponse{
		ID:         model.CachedResponseID(partition, key),
		Partition:  partition,
		Key:        key,
		StatusCode: res.StatusCode,
		Header:     res.Header.Clone(),
		Body:       body,
		StoredAt:   time.Now().UTC(),
	})
	if err != nil {
		i.logger.WithField("url", key).WithError(err).Warn("could not store response")
	}

	return res, nil
}

func (i *Interceptor) lookup(partition, key string) *model.CachedResponse {
	cached, err := i.storage.FindResponse(partition, key)
	if err != nil {
		i.logger.WithField("url", key).WithError(err).Warn("could not read cache")
		return nil
	}
	return cached
}

func (i *Interceptor) resolve(asset string) string {
	ref, err := url.Parse(asset)
	if err != nil {
		return asset
	}
	return i.origin.ResolveReference(ref).String()
}

func (i *Interceptor) sameOrigin(u *url.URL) bool {
	return u.Scheme == i.origin.Scheme && u.Host == i.origin.Host
}

func isNavigation(req *http.Request) bool {
	return req.Header.Get("Sec-Fetch-Mode") == "navigate" || strings.Contains(req.Header.Get("Accept"), "text/html")
}

func isImage(req *http.Request) bool {
	return req.Header.Get("Sec-Fetch-Dest") == "image" || strings.HasPrefix(req.Header.Get("Accept"), "image/")
}

func replay(req *http.Request, cached *model.CachedResponse) *http.Response {
	res := synthesize(req, cached.StatusCode, "", cached.Body)
	for k, v := range cached.Header {
		res.Header[k] = append([]string(nil), v...)
	}
	res.Header.Set(SourceHeader, "cache")
	return res
}

func offline(req *http.Request) *http.Response {
	var a fastjson.Arena
	o := a.NewObject()
	o.Set("error", a.NewTrue())
	o.Set("message", a.NewString("You are offline"))
	o.Set("listStory", a.NewArray())

	res := synthesize(req, http.StatusOK, "application/json", o.MarshalTo(nil))
	res.Header.Set(SourceHeader, "offline")
	return res
}

func synthesize(req *http.Request, code int, contentType string, body []byte) *http.Response {
	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", code, http.StatusText(code)),
		StatusCode:    code,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
