package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"listing-sync/core/reconcile"
	"listing-sync/feature/history"
	"listing-sync/feature/listings"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	runs  []history.SyncRun
	err   error
	limit int
}

func (s *stubLister) Recent(_ context.Context, limit int) ([]history.SyncRun, error) {
	s.limit = limit
	return s.runs, s.err
}

func setupTestApp(t *testing.T, src *fakeSource, col *fakeCollection, runs RunLister) (*fiber.App, *Runner) {
	t.Helper()
	r := newTestRunner(t, src, col)
	feature := NewFeature(context.Background(), r, runs, nil)
	assert.Equal(t, "sync", feature.Name())
	assert.True(t, feature.IsEnabled())

	app := fiber.New()
	require.NoError(t, feature.Load(app))
	return app, r
}

func decode[T any](t *testing.T, app *fiber.App, method, target string, wantStatus int) T {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode)

	var body T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHandleRun(t *testing.T) {
	src := &fakeSource{listings: []listings.Listing{listing("L1")}, block: make(chan struct{})}
	col := newFakeCollection()
	app, r := setupTestApp(t, src, col, nil)

	accepted := decode[RunAccepted](t, app, "POST", "/sync/run?dry_run=true", fiber.StatusAccepted)
	assert.Equal(t, "run-1", accepted.RunID)
	assert.Equal(t, "accepted", accepted.Status)

	conflict := decode[map[string]string](t, app, "POST", "/sync/run", fiber.StatusConflict)
	assert.Equal(t, ErrRunInProgress.Error(), conflict["error"])

	close(src.block)
	require.Eventually(t, func() bool { return !r.Status().Running }, time.Second, 5*time.Millisecond)
	assert.Equal(t, reconcile.RunSkipped, r.Status().Last.Status)
	assert.Zero(t, col.mutations())
}

func TestHandleStatus(t *testing.T) {
	src := &fakeSource{listings: []listings.Listing{listing("L1")}}
	app, r := setupTestApp(t, src, newFakeCollection(), nil)

	idle := decode[Status](t, app, "GET", "/sync/status", fiber.StatusOK)
	assert.Equal(t, StateIdle, idle.State)
	assert.Nil(t, idle.Last)

	_, err := r.Run(context.Background(), r.DefaultOptions())
	require.NoError(t, err)

	done := decode[Status](t, app, "GET", "/sync/status", fiber.StatusOK)
	require.NotNil(t, done.Last)
	assert.Equal(t, reconcile.RunSucceeded, done.Last.Status)
	assert.Len(t, done.Last.Created, 1)
}

func TestHandlePlan(t *testing.T) {
	src := &fakeSource{listings: []listings.Listing{listing("L1"), listing("L2")}}
	col := newFakeCollection(keyedItem("i1", "L1"), keyedItem("i9", "L9"))
	app, _ := setupTestApp(t, src, col, nil)

	plan := decode[PlanResponse](t, app, "GET", "/sync/plan", fiber.StatusOK)
	assert.Equal(t, []PlanEntry{{Key: "L2"}}, plan.Creates)
	assert.Equal(t, []PlanEntry{{Key: "L1", ItemID: "i1"}}, plan.Updates)
	assert.Equal(t, []PlanEntry{{Key: "L9", ItemID: "i9"}}, plan.Deletes)
	assert.Equal(t, 2, plan.Summary.Listings)
	assert.Zero(t, col.mutations())

	col.listErr = reconcile.ErrFetchCollection
	failed := decode[map[string]string](t, app, "GET", "/sync/plan", fiber.StatusBadGateway)
	assert.Contains(t, failed["error"], "collection")
}

func TestHandleHistory(t *testing.T) {
	src := &fakeSource{}

	t.Run("NotMountedWithoutLister", func(t *testing.T) {
		app, _ := setupTestApp(t, src, newFakeCollection(), nil)
		resp, err := app.Test(httptest.NewRequest("GET", "/sync/history", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("ListsRuns", func(t *testing.T) {
		lister := &stubLister{runs: []history.SyncRun{{RunID: "run-2"}, {RunID: "run-1"}}}
		app, _ := setupTestApp(t, src, newFakeCollection(), lister)

		runs := decode[[]history.SyncRun](t, app, "GET", "/sync/history?limit=5", fiber.StatusOK)
		require.Len(t, runs, 2)
		assert.Equal(t, "run-2", runs[0].RunID)
		assert.Equal(t, 5, lister.limit)
	})

	t.Run("BadLimit", func(t *testing.T) {
		app, _ := setupTestApp(t, src, newFakeCollection(), &stubLister{})
		decode[map[string]string](t, app, "GET", "/sync/history?limit=abc", fiber.StatusBadRequest)
	})

	t.Run("QueryFails", func(t *testing.T) {
		app, _ := setupTestApp(t, src, newFakeCollection(), &stubLister{err: errors.New("db down")})
		body := decode[map[string]string](t, app, "GET", "/sync/history", fiber.StatusInternalServerError)
		assert.Equal(t, "db down", body["error"])
	})
}
