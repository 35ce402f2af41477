package client

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/mdouchement/travellog/internal/interceptor"
	"github.com/mdouchement/travellog/internal/logger"
	"github.com/mdouchement/travellog/internal/reachability"
	"github.com/pkg/errors"
)

const (
	dbname    = "travellog.db"
	envPrefix = "TRAVELLOG_"
)

// A Config holds client's configuration.
type Config struct {
	Endpoint      string
	DatabasePath  string
	DatabaseCodec string
	SubmitTimeout time.Duration
	PushTimeout   time.Duration
	SyncDebounce  time.Duration
	Address       string
	Probe         reachability.ProbeConfig
	Cache         interceptor.Config
	Log           logger.Config
}

func defaults() map[string]any {
	cache := interceptor.DefaultConfig()

	return map[string]any{
		"endpoint":            "https://story-api.dicoding.dev/v1",
		"database_path":       "",
		"database_codec":      "msgpack",
		"submit_timeout":      "15s",
		"push_timeout":        "15s",
		"sync_debounce":       "500ms",
		"address":             "localhost:8080",
		"probe.url":           "",
		"probe.interval":      "10s",
		"probe.ttl":           "5s",
		"probe.timeout":       "3s",
		"cache.shell_version": cache.ShellVersion,
		"cache.api_version":   cache.APIVersion,
		"cache.api_prefix":    cache.APIPrefix,
		"cache.shell_origin":  "",
		"cache.shell_assets":  cache.ShellAssets,
		"cache.shell_entry":   cache.ShellEntry,
		"cache.placeholder":   cache.Placeholder,
		"log.file":            "travellog.log",
		"log.level":           "info",
		"log.stderr":          false,
	}
}

// LoadConfig loads the configuration from the defaults, the given YAML file if any
// and the TRAVELLOG_ environment variables (e.g. TRAVELLOG_PROBE__URL for probe.url).
func LoadConfig(filename string) (Config, error) {
	konf := koanf.New(".")
	if err := konf.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, errors.Wrap(err, "could not load defaults")
	}

	if filename != "" {
		if err := konf.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "could not load %s", filename)
		}
	}

	err := konf.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return Config{}, errors.Wrap(err, "could not load environment")
	}

	cfg := Config{
		Endpoint:      strings.TrimSuffix(konf.String("endpoint"), "/"),
		DatabasePath:  konf.String("database_path"),
		DatabaseCodec: konf.String("database_codec"),
		SubmitTimeout: konf.Duration("submit_timeout"),
		PushTimeout:   konf.Duration("push_timeout"),
		SyncDebounce:  konf.Duration("sync_debounce"),
		Address:       konf.String("address"),
		Probe: reachability.ProbeConfig{
			URL:      konf.String("probe.url"),
			Interval: konf.Duration("probe.interval"),
			TTL:      konf.Duration("probe.ttl"),
			Timeout:  konf.Duration("probe.timeout"),
		},
		Cache: interceptor.Config{
			ShellVersion: konf.String("cache.shell_version"),
			APIVersion:   konf.String("cache.api_version"),
			APIPrefix:    konf.String("cache.api_prefix"),
			ShellOrigin:  konf.String("cache.shell_origin"),
			ShellAssets:  konf.Strings("cache.shell_assets"),
			ShellEntry:   konf.String("cache.shell_entry"),
			Placeholder:  konf.String("cache.placeholder"),
		},
		Log: logger.Config{
			File:   konf.String("log.file"),
			Level:  konf.String("log.level"),
			Stderr: konf.Bool("log.stderr"),
		},
	}

	if cfg.Endpoint == "" {
		return cfg, errors.New("endpoint is required")
	}
	if cfg.Probe.URL == "" {
		cfg.Probe.URL = cfg.Endpoint
	}
	if cfg.Cache.ShellOrigin == "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return cfg, errors.Wrap(err, "could not parse endpoint")
		}
		cfg.Cache.ShellOrigin = u.Scheme + "://" + u.Host + "/"
	}

	return cfg, nil
}

// DatabaseFile returns the location of the local store.
func (c Config) DatabaseFile() string {
	if len(c.DatabasePath) == 0 {
		return dbname
	}
	return filepath.Join(c.DatabasePath, dbname)
}
