package service

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/mdouchement/travellog/internal/reachability"
	"github.com/mdouchement/travellog/internal/tlerror"
	"github.com/sirupsen/logrus"
)

// An AutoSync reconciles the pending stories when the connectivity is restored.
type AutoSync struct {
	reconciler *Reconciler
	signal     reachability.Signal
	debounced  func(func())
	logger     logrus.FieldLogger

	mu       sync.Mutex
	ctx      context.Context
	onResult func([]Outcome, error)
}

// NewAutoSync returns a new AutoSync.
// Bursts of transitions and triggers within delay result in a single reconciliation.
func NewAutoSync(reconciler *Reconciler, signal reachability.Signal, delay time.Duration, logger logrus.FieldLogger) *AutoSync {
	return &AutoSync{
		reconciler: reconciler,
		signal:     signal,
		debounced:  debounce.New(delay),
		logger:     logger,
		ctx:        context.Background(),
	}
}

// OnResult defines the function called after each automatic reconciliation.
func (a *AutoSync) OnResult(fn func([]Outcome, error)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.onResult = fn
}

// Start watches the reachability signal until the returned function is called or ctx is done.
func (a *AutoSync) Start(ctx context.Context) (stop func()) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	unsubscribe := a.signal.Subscribe(func(online bool) {
		if online {
			a.logger.Debug("connectivity restored")
			a.Trigger()
		}
	})

	done := make(chan struct{})
	var once sync.Once
	stop = func() {
		once.Do(func() {
			close(done)
			unsubscribe()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return stop
}

// Trigger requests a reconciliation outside of connectivity transitions.
func (a *AutoSync) Trigger() {
	a.debounced(a.run)
}

func (a *AutoSync) run() {
	a.mu.Lock()
	ctx, onResult := a.ctx, a.onResult
	a.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	outcomes, err := a.reconciler.Reconcile(ctx)
	if err != nil && !tlerror.Is(err, tlerror.Offline) {
		a.logger.WithError(err).Error("automatic reconciliation failed")
	}

	if onResult != nil {
		onResult(outcomes, err)
	}
}
