package reachability

import (
	"context"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const probeKey = "online"

type (
	// A ProbeConfig defines how the reachability of the remote API is checked.
	ProbeConfig struct {
		URL      string
		Interval time.Duration
		TTL      time.Duration
		Timeout  time.Duration
	}

	// Probe is a Signal that checks the remote API with HEAD requests.
	// Results are kept for the configured TTL so frequent callers do not flood the network.
	Probe struct {
		*Manual
		http   *http.Client
		config ProbeConfig
		cache  *cache.Cache
		logger logrus.FieldLogger
	}
)

// NewProbe returns a new Probe, assumed online until the first check.
func NewProbe(c *http.Client, config ProbeConfig, logger logrus.FieldLogger) *Probe {
	if config.Interval <= 0 {
		config.Interval = 10 * time.Second
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 3 * time.Second
	}

	return &Probe{
		Manual: NewManual(true),
		http:   c,
		config: config,
		cache:  cache.New(config.TTL, 2*config.TTL),
		logger: logger,
	}
}

// Check returns the reachability of the remote API, probing it when the last result has expired.
// Transitions are broadcast to subscribers.
func (p *Probe) Check(ctx context.Context) bool {
	if v, found := p.cache.Get(probeKey); found {
		return v.(bool)
	}

	online := p.probe(ctx)
	p.cache.Set(probeKey, online, cache.DefaultExpiration)

	if p.Set(online) {
		p.logger.WithField("online", online).Info("reachability changed")
	}
	return online
}

// Run checks the reachability at every interval until ctx is done.
func (p *Probe) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

func (p *Probe) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.config.URL, nil)
	if err != nil {
		p.logger.WithError(err).Warn("could not build probe request")
		return false
	}

	res, err := p.http.Do(req)
	if err != nil {
		p.logger.WithError(err).Debug("probe failed")
		return false
	}
	res.Body.Close()

	// Any answer from the server proves it is reachable.
	return true
}
