package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mdouchement/travellog/internal/database"
	"github.com/mdouchement/travellog/internal/logger"
	"github.com/mdouchement/travellog/internal/reachability"
	"github.com/mdouchement/travellog/internal/service"
	"github.com/mdouchement/travellog/internal/tlerror"
	"github.com/mdouchement/travellog/pkg/libtl"
	"github.com/mdouchement/travellog/pkg/stormcodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile_Idempotence(t *testing.T) {
	db := setup(t)
	remote := newAPI()
	reconciler := service.NewReconciler(db, remote, reachability.NewManual(true), time.Second, logger.Discard())

	for _, description := range []string{"Bromo", "Kuta", "Ubud"} {
		draft(t, db, description)
	}

	outcomes, err := reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	for _, outcome := range outcomes {
		assert.True(t, outcome.Success)
		assert.Empty(t, outcome.Error)
	}
	assert.Empty(t, snapshot(t, db))
	assert.ElementsMatch(t, []string{"Bromo", "Kuta", "Ubud"}, remote.descriptions())

	outcomes, err = reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, outcomes)
	assert.Empty(t, outcomes)
	assert.Len(t, remote.descriptions(), 3)
}

func TestReconcile_Codecs(t *testing.T) {
	for _, name := range []string{"msgpack", "cbor", "binc"} {
		codec, err := stormcodec.Lookup(name)
		require.NoError(t, err)

		db := setup(t, database.WithCodec(codec))
		remote := newAPI()
		reconciler := service.NewReconciler(db, remote, reachability.NewManual(true), time.Second, logger.Discard())

		draft(t, db, "Bromo")

		outcomes, err := reconciler.Reconcile(context.Background())
		require.NoError(t, err, name)
		require.Len(t, outcomes, 1, name)
		assert.True(t, outcomes[0].Success, name)
		require.Len(t, remote.pushed, 1, name)
		assert.Equal(t, []byte("jpeg"), remote.pushed[0].Photo.Data, name)
		assert.Equal(t, "image/jpeg", remote.pushed[0].Photo.ContentType, name)
	}
}

func TestReconcile_CallerCancellation(t *testing.T) {
	db := setup(t)
	remote := newAPI()
	remote.delay = 50 * time.Millisecond
	reconciler := service.NewReconciler(db, remote, reachability.NewManual(true), time.Second, logger.Discard())

	draft(t, db, "Bromo")
	draft(t, db, "Kuta")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	outcomes, err := reconciler.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.True(t, outcome.Success)
	}
	assert.Empty(t, snapshot(t, db))
}

func TestReconcile_PartialFailure(t *testing.T) {
	db := setup(t)
	remote := newAPI()
	remote.failures["Kuta"] = &libtl.APIError{StatusCode: 413, Message: "Payload too large"}
	reconciler := service.NewReconciler(db, remote, reachability.NewManual(true), time.Second, logger.Discard())

	first := draft(t, db, "Bromo")
	second := draft(t, db, "Kuta")
	third := draft(t, db, "Ubud")

	outcomes, err := reconciler.Reconcile(context.Background())
	require.NoError(t, err)

	results := map[string]service.Outcome{}
	for _, outcome := range outcomes {
		results[outcome.RecordID] = outcome
	}
	require.Len(t, results, 3)
	assert.True(t, results[first.ID].Success)
	assert.True(t, results[third.ID].Success)
	assert.False(t, results[second.ID].Success)
	assert.Equal(t, "Payload too large", results[second.ID].Error)
	assert.True(t, tlerror.Is(results[second.ID].Err, tlerror.Remote))

	pendings := snapshot(t, db)
	require.Len(t, pendings, 1)
	assert.Equal(t, second.ID, pendings[0].ID)
	assert.Equal(t, second.Photo, pendings[0].Photo)

	// Only the remaining record is retried.
	delete(remote.failures, "Kuta")
	outcomes, err = reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []service.Outcome{{RecordID: second.ID, Success: true}}, outcomes)
	descriptions := remote.descriptions()
	require.Len(t, descriptions, 3)
	assert.ElementsMatch(t, []string{"Bromo", "Ubud"}, descriptions[:2])
	assert.Equal(t, "Kuta", descriptions[2])
}

func TestReconcile_Offline(t *testing.T) {
	db := setup(t)
	remote := newAPI()
	reconciler := service.NewReconciler(db, remote, reachability.NewManual(false), time.Second, logger.Discard())

	draft(t, db, "Bromo")
	draft(t, db, "Kuta")
	before := snapshot(t, db)

	outcomes, err := reconciler.Reconcile(context.Background())
	assert.Equal(t, tlerror.ErrOffline, err)
	assert.EqualError(t, err, "cannot sync offline")
	assert.Nil(t, outcomes)
	assert.Equal(t, before, snapshot(t, db))
	assert.Zero(t, remote.pushCalls)

	_, err = reconciler.ReconcileOne(context.Background(), before[0].ID)
	assert.True(t, tlerror.Is(err, tlerror.Offline))
	assert.Equal(t, before, snapshot(t, db))
}

func TestReconcile_Timeout(t *testing.T) {
	db := setup(t)
	remote := newAPI()
	remote.delay = time.Second
	reconciler := service.NewReconciler(db, remote, reachability.NewManual(true), 20*time.Millisecond, logger.Discard())

	pending := draft(t, db, "Bromo")

	outcomes, err := reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Success)
	assert.True(t, tlerror.Is(outcomes[0].Err, tlerror.Connectivity))
	pendings := snapshot(t, db)
	require.Len(t, pendings, 1)
	assert.Equal(t, pending.ID, pendings[0].ID)
}

func TestReconcile_Unauthorized(t *testing.T) {
	db := setup(t)
	remote := newAPI()
	remote.failures["Bromo"] = &libtl.APIError{StatusCode: 401, Message: "Unauthorized"}
	reconciler := service.NewReconciler(db, remote, reachability.NewManual(true), time.Second, logger.Discard())

	draft(t, db, "Bromo")
	draft(t, db, "Kuta")

	outcomes, err := reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, outcome := range outcomes {
		assert.False(t, outcome.Success)
		assert.True(t, tlerror.Is(outcome.Err, tlerror.Authentication))
	}
	assert.Len(t, snapshot(t, db), 2)
	assert.Empty(t, remote.descriptions())
}

func TestReconcile_Coalescing(t *testing.T) {
	db := setup(t)
	remote := newAPI()
	remote.delay = 50 * time.Millisecond
	reconciler := service.NewReconciler(db, remote, reachability.NewManual(true), time.Second, logger.Discard())

	draft(t, db, "Bromo")
	draft(t, db, "Kuta")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reconciler.Reconcile(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Empty(t, snapshot(t, db))
	assert.ElementsMatch(t, []string{"Bromo", "Kuta"}, remote.descriptions())
}

func TestReconcileOne(t *testing.T) {
	db := setup(t)
	remote := newAPI()
	reconciler := service.NewReconciler(db, remote, reachability.NewManual(true), time.Second, logger.Discard())

	first := draft(t, db, "Bromo")
	second := draft(t, db, "Kuta")

	outcome, err := reconciler.ReconcileOne(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, service.Outcome{RecordID: second.ID, Success: true}, outcome)

	pendings := snapshot(t, db)
	require.Len(t, pendings, 1)
	assert.Equal(t, first.ID, pendings[0].ID)

	_, err = reconciler.ReconcileOne(context.Background(), second.ID)
	assert.True(t, tlerror.Is(err, tlerror.Validation))
	assert.Equal(t, 404, tlerror.StatusCode(err))
}
