package service

import (
	"context"
	"sync"
	"time"

	"github.com/mdouchement/travellog/internal/database"
	"github.com/mdouchement/travellog/internal/model"
	"github.com/mdouchement/travellog/internal/reachability"
	"github.com/mdouchement/travellog/internal/tlerror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type (
	// An Outcome is the result of the push of one pending story.
	Outcome struct {
		RecordID string `json:"recordId"`
		Success  bool   `json:"success"`
		Error    string `json:"error,omitempty"`
		Err      error  `json:"-"`
	}

	// A Reconciler pushes pending stories to the remote API.
	Reconciler struct {
		db      database.PendingInteraction
		api     Publisher
		signal  reachability.Signal
		timeout time.Duration
		logger  logrus.FieldLogger

		group singleflight.Group
		mu    sync.Mutex
	}
)

// NewReconciler returns a new Reconciler.
// Each push is bounded by the given timeout.
func NewReconciler(db database.PendingInteraction, api Publisher, signal reachability.Signal, timeout time.Duration, logger logrus.FieldLogger) *Reconciler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Reconciler{
		db:      db,
		api:     api,
		signal:  signal,
		timeout: timeout,
		logger:  logger,
	}
}

// Reconcile attempts to push every pending story once.
// Pushed stories are removed from the pending partition, failed ones are left untouched for the next pass.
// Individual failures are reported in the outcomes, only the offline precondition and
// the listing of the pending partition fail the whole call.
//
// Concurrent calls share the result of the pass in flight. The pass outlives the
// cancellation of the caller that started it, each push stays bounded by the push timeout.
func (r *Reconciler) Reconcile(ctx context.Context) ([]Outcome, error) {
	if !r.signal.Online() {
		return nil, tlerror.ErrOffline
	}

	v, err, shared := r.group.Do("reconcile", func() (any, error) {
		return r.reconcile(context.WithoutCancel(ctx))
	})
	if shared {
		r.logger.Debug("reconciliation coalesced with the pass in flight")
	}
	if err != nil {
		return nil, err
	}

	outcomes := v.([]Outcome)
	out := make([]Outcome, len(outcomes))
	copy(out, outcomes)
	return out, nil
}

// ReconcileOne attempts to push the pending story identified by id.
func (r *Reconciler) ReconcileOne(ctx context.Context, id string) (Outcome, error) {
	if !r.signal.Online() {
		return Outcome{}, tlerror.ErrOffline
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pending, err := r.db.FindPending(id)
	if err != nil {
		return Outcome{}, err
	}
	if pending == nil {
		return Outcome{}, notFound("pending story not found")
	}

	return r.push(ctx, pending), nil
}

func (r *Reconciler) reconcile(ctx context.Context) ([]Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pendings, err := r.db.FindPendings()
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(pendings))
	var failures int
	for _, pending := range pendings {
		outcome := r.push(ctx, pending)
		if !outcome.Success {
			failures++
		}
		outcomes = append(outcomes, outcome)
	}

	if len(outcomes) > 0 {
		r.logger.WithFields(logrus.Fields{
			"pushed": len(outcomes) - failures,
			"failed": failures,
		}).Info("reconciliation done")
	}
	return outcomes, nil
}

func (r *Reconciler) push(ctx context.Context, pending *model.Pending) Outcome {
	logger := r.logger.WithField("record", pending.ID)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := classify(r.api.AddStory(ctx, toNewStory(pending))); err != nil {
		logger.WithError(err).Warn("could not push pending story")
		return failure(pending.ID, err)
	}

	if err := r.db.DeletePending(pending.ID); err != nil {
		logger.WithError(err).Error("pushed story still pending")
		return failure(pending.ID, err)
	}

	logger.Info("pending story pushed")
	return Outcome{RecordID: pending.ID, Success: true}
}

func failure(id string, err error) Outcome {
	return Outcome{
		RecordID: id,
		Error:    err.Error(),
		Err:      err,
	}
}
