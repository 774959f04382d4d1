package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"listing-sync/core/batch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testListing struct {
	Key     string
	Address string
	Price   int
}

type testMapper struct {
	fail map[string]bool
}

func (m testMapper) Key(l testListing) string { return l.Key }

func (m testMapper) Map(l testListing) (FieldSet, error) {
	if m.fail[l.Key] {
		return nil, fmt.Errorf("cannot map %s", l.Key)
	}
	return FieldSet{
		"idnum":    l.Key,
		"slug":     strings.ToLower(strings.ReplaceAll(l.Address, " ", "-")),
		"name":     l.Address,
		"priceint": l.Price,
	}, nil
}

// memStore is an in-memory collection with injectable failures.
type memStore struct {
	mu         sync.Mutex
	items      map[string]Item
	failCreate map[string]bool
	failUpdate map[string]bool
	failDelete map[string]bool
	calls      []string
}

func newMemStore(items ...Item) *memStore {
	s := &memStore{items: map[string]Item{}}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *memStore) CreateItem(ctx context.Context, fields FieldSet, id string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, _ := fields["idnum"].(string)
	s.calls = append(s.calls, "create:"+key)
	if s.failCreate[key] {
		return Item{}, errors.New("create rejected")
	}
	slug, _ := fields["slug"].(string)
	name, _ := fields["name"].(string)
	it := Item{ID: id, Slug: slug, Name: name, FieldData: fields.Clone()}
	s.items[id] = it
	return it, nil
}

func (s *memStore) UpdateItem(ctx context.Context, id string, fields FieldSet) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "update:"+id)
	if s.failUpdate[id] {
		return Item{}, errors.New("update rejected")
	}
	it, ok := s.items[id]
	if !ok {
		return Item{}, fmt.Errorf("item %s not found", id)
	}
	for k, v := range fields {
		it.FieldData[k] = v
	}
	if slug, ok := fields["slug"].(string); ok {
		it.Slug = slug
	}
	if name, ok := fields["name"].(string); ok {
		it.Name = name
	}
	s.items[id] = it
	return it, nil
}

func (s *memStore) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "delete:"+id)
	if s.failDelete[id] {
		return errors.New("delete rejected")
	}
	delete(s.items, id)
	return nil
}

func (s *memStore) snapshot() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		cp := it
		cp.FieldData = it.FieldData.Clone()
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func item(id, key string) Item {
	return Item{ID: id, Slug: "slug-" + id, Name: "name-" + id, FieldData: FieldSet{"idnum": key}}
}

func newTestEngine(t *testing.T, store Store, mapper Mapper[testListing]) *Engine[testListing] {
	t.Helper()
	n := 0
	var mu sync.Mutex
	engine, err := NewEngine(Spec[testListing]{
		Mapper: mapper,
		Store:  store,
		Batch: batch.Config{
			Size:  2,
			Sleep: func(ctx context.Context, d time.Duration) error { return nil },
		},
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("new-%d", n)
		},
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	return engine
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(Spec[testListing]{Store: newMemStore(), Batch: batch.Config{Size: 1}})
	assert.Error(t, err)

	_, err = NewEngine(Spec[testListing]{Mapper: testMapper{}, Batch: batch.Config{Size: 1}})
	assert.Error(t, err)

	_, err = NewEngine(Spec[testListing]{Mapper: testMapper{}, Store: newMemStore()})
	assert.Error(t, err)

	e, err := NewEngine(Spec[testListing]{Mapper: testMapper{}, Store: newMemStore(), Batch: batch.Config{Size: 1}})
	require.NoError(t, err)
	assert.Equal(t, DefaultKeyField, e.keyField)
	assert.NotEmpty(t, e.newID())
}

func TestEngine_SyncCreatesAndUpdates(t *testing.T) {
	store := newMemStore(item("x", "B"), item("y", "C"), item("z", "D"))
	engine := newTestEngine(t, store, testMapper{})
	items := store.snapshot()

	listings := []testListing{
		{Key: "A", Address: "1 Main St", Price: 100},
		{Key: "B", Address: "2 Main St", Price: 200},
		{Key: "C", Address: "3 Main St", Price: 300},
	}

	res, err := engine.Sync(context.Background(), listings, items, ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"new-1"}, res.Created)
	assert.ElementsMatch(t, []string{"x", "y"}, res.Updated)
	assert.Empty(t, res.Failed)
	assert.ElementsMatch(t, []string{"new-1", "x", "y"}, res.Touched())

	created := store.items["new-1"]
	assert.Equal(t, "A", created.FieldData["idnum"])
	assert.Equal(t, "1-main-st", created.Slug)
	assert.Equal(t, 200, store.items["x"].FieldData["priceint"])

	// Sync never deletes.
	assert.Contains(t, store.items, "z")
}

func TestEngine_UpdatePreservesIdentity(t *testing.T) {
	existing := Item{ID: "x", Slug: "keep-me", Name: "Original Name", FieldData: FieldSet{"idnum": "B"}}
	blank := Item{ID: "y", FieldData: FieldSet{"idnum": "C"}}
	store := newMemStore(existing, blank)
	engine := newTestEngine(t, store, testMapper{})

	listings := []testListing{
		{Key: "B", Address: "Totally New Address"},
		{Key: "C", Address: "Another Address"},
	}
	_, err := engine.Sync(context.Background(), listings, store.snapshot(), ReconcileOptions{})
	require.NoError(t, err)

	got := store.items["x"]
	assert.Equal(t, "keep-me", got.Slug)
	assert.Equal(t, "Original Name", got.Name)
	assert.Equal(t, "keep-me", got.FieldData["slug"])
	assert.Equal(t, "Original Name", got.FieldData["name"])

	// Blank identity on the item is left to the store.
	noIdentity := store.items["y"]
	assert.Empty(t, noIdentity.Slug)
	assert.NotContains(t, noIdentity.FieldData, "slug")
	assert.NotContains(t, noIdentity.FieldData, "name")
}

func TestEngine_NoCrossContamination(t *testing.T) {
	store := newMemStore(item("x", "B"), item("y", "C"))
	engine := newTestEngine(t, store, testMapper{})

	listings := []testListing{
		{Key: "B", Address: "b", Price: 2},
		{Key: "C", Address: "c", Price: 3},
	}
	_, err := engine.Sync(context.Background(), listings, store.snapshot(), ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, "B", store.items["x"].FieldData["idnum"])
	assert.Equal(t, 2, store.items["x"].FieldData["priceint"])
	assert.Equal(t, "C", store.items["y"].FieldData["idnum"])
	assert.Equal(t, 3, store.items["y"].FieldData["priceint"])
}

func TestEngine_RecoverableFailures(t *testing.T) {
	store := newMemStore(item("x", "B"), item("y", "C"))
	store.failCreate = map[string]bool{"A": true}
	store.failUpdate = map[string]bool{"x": true}
	engine := newTestEngine(t, store, testMapper{fail: map[string]bool{"E": true}})

	listings := []testListing{{Key: "A"}, {Key: "B"}, {Key: "C"}, {Key: "E"}, {Key: "F"}}
	res, err := engine.Sync(context.Background(), listings, store.snapshot(), ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"y"}, res.Updated)
	assert.Len(t, res.Created, 1)
	require.Len(t, res.Failed, 3)
	assert.Equal(t, Failure{Key: "A", Action: ActionCreate, Cause: "create rejected"}, res.Failed[0])
	assert.Equal(t, Failure{Key: "B", Action: ActionUpdate, Cause: "update rejected"}, res.Failed[1])
	assert.Equal(t, "E", res.Failed[2].Key)
	assert.Contains(t, res.Failed[2].Cause, "cannot map E")
}

func TestEngine_Cleanup(t *testing.T) {
	store := newMemStore(item("x", "B"), item("y", "C"), item("z", "D"), item("w", "E"))
	store.failDelete = map[string]bool{"w": true}
	engine := newTestEngine(t, store, testMapper{})

	res, err := engine.Cleanup(context.Background(), []testListing{{Key: "B"}, {Key: "C"}}, store.snapshot(), ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"z"}, res.Deleted)
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, Failure{Key: "E", Action: ActionDelete, Cause: "delete rejected"}, res.Failed[0])
	assert.Contains(t, store.items, "x")
	assert.Contains(t, store.items, "y")
	assert.NotContains(t, store.items, "z")
}

func TestEngine_CleanupMinimumGuard(t *testing.T) {
	store := newMemStore(item("x", "B"), item("y", "C"))
	engine := newTestEngine(t, store, testMapper{})

	res, err := engine.Cleanup(context.Background(), []testListing{{Key: "B"}}, store.snapshot(), ReconcileOptions{MinListings: 5})
	assert.ErrorIs(t, err, ErrTooFewListings)
	assert.Empty(t, res.Deleted)
	assert.Zero(t, store.mutations())

	res, err = engine.Cleanup(context.Background(), []testListing{{Key: "B"}}, store.snapshot(), ReconcileOptions{MinListings: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, res.Deleted)
}

func TestEngine_Idempotence(t *testing.T) {
	store := newMemStore(item("old", "GONE"))
	engine := newTestEngine(t, store, testMapper{})
	listings := []testListing{
		{Key: "A", Address: "1 Main St", Price: 1},
		{Key: "B", Address: "2 Main St", Price: 2},
		{Key: "C", Address: "3 Main St", Price: 3},
	}

	run := func() {
		ctx := context.Background()
		items := store.snapshot()
		_, err := engine.Sync(ctx, listings, items, ReconcileOptions{})
		require.NoError(t, err)
		_, err = engine.Cleanup(ctx, listings, items, ReconcileOptions{})
		require.NoError(t, err)
	}

	run()
	first := store.snapshot()
	require.Len(t, first, 3)

	run()
	second := store.snapshot()
	assert.Equal(t, first, second)

	plan := engine.Plan(listings, second)
	assert.Zero(t, plan.Summary.Creates)
	assert.Zero(t, plan.Summary.Deletes)
	assert.Equal(t, 3, plan.Summary.Updates)
}

func TestEngine_DryRunDoesNotMutate(t *testing.T) {
	store := newMemStore(item("x", "B"), item("z", "D"))
	engine := newTestEngine(t, store, testMapper{})
	listings := []testListing{{Key: "A"}, {Key: "B"}}
	opts := ReconcileOptions{DryRun: true}

	plan := engine.Plan(listings, store.snapshot())
	synced, err := engine.SyncPlan(context.Background(), plan, opts)
	require.NoError(t, err)
	cleaned, err := engine.CleanupPlan(context.Background(), plan, opts)
	require.NoError(t, err)

	assert.Empty(t, synced.Touched())
	assert.Empty(t, cleaned.Deleted)
	assert.Zero(t, store.mutations())
	assert.Equal(t, 1, plan.Summary.Creates)
	assert.Equal(t, 1, plan.Summary.Deletes)
}

func TestEngine_CancelledContext(t *testing.T) {
	store := newMemStore()
	engine := newTestEngine(t, store, testMapper{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Sync(ctx, []testListing{{Key: "A"}}, nil, ReconcileOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPreserveIdentity(t *testing.T) {
	fields := FieldSet{"slug": "new", "name": "New"}
	preserveIdentity(fields, nil)
	assert.Empty(t, fields)

	fields = FieldSet{"slug": "new", "name": "New"}
	preserveIdentity(fields, &Item{Slug: "old"})
	assert.Equal(t, FieldSet{"slug": "old"}, fields)
}
