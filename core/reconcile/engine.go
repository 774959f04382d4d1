package reconcile

import (
	"context"
	"errors"
	"fmt"

	"listing-sync/core/batch"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrTooFewListings is returned by Cleanup when the listing count is below the
// configured minimum. No item is deleted in that case.
var ErrTooFewListings = errors.New("listing count below cleanup minimum")

// Spec wires an Engine to its collaborators.
type Spec[L any] struct {
	// Mapper derives keys and field sets from listings.
	Mapper Mapper[L]

	// Store receives create, update and delete calls.
	Store Store

	// KeyField is the item field mirroring the listing key. Defaults to DefaultKeyField.
	KeyField string

	// Batch paces both the sync and the cleanup pass.
	Batch batch.Config

	// NewID assigns identifiers to created items. Defaults to random UUIDs.
	NewID func() string

	// Logger receives engine progress. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Engine reconciles a listing set against the target collection.
type Engine[L any] struct {
	mapper   Mapper[L]
	store    Store
	keyField string
	batch    batch.Config
	newID    func() string
	logger   *zap.Logger
}

// NewEngine validates the spec and builds an Engine.
func NewEngine[L any](spec Spec[L]) (*Engine[L], error) {
	if spec.Mapper == nil {
		return nil, fmt.Errorf("reconcile: mapper is required")
	}
	if spec.Store == nil {
		return nil, fmt.Errorf("reconcile: store is required")
	}
	if err := spec.Batch.Validate(); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	e := &Engine[L]{
		mapper:   spec.Mapper,
		store:    spec.Store,
		keyField: spec.KeyField,
		batch:    spec.Batch,
		newID:    spec.NewID,
		logger:   spec.Logger,
	}
	if e.keyField == "" {
		e.keyField = DefaultKeyField
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e, nil
}

// WithLogger returns a copy of the engine logging to l.
func (e *Engine[L]) WithLogger(l *zap.Logger) *Engine[L] {
	cp := *e
	cp.logger = l
	cp.batch.Logger = l
	return &cp
}

// Plan computes the create/update/delete diff without touching the store.
func (e *Engine[L]) Plan(listings []L, items []Item) *Plan[L] {
	plan := BuildPlan(listings, items, e.mapper.Key, e.keyField)

	if plan.Summary.DuplicateListings > 0 {
		e.logger.Warn("Duplicate listing keys, last occurrence wins",
			zap.Int("duplicates", plan.Summary.DuplicateListings))
	}
	if plan.Summary.DuplicateItems > 0 {
		e.logger.Warn("Duplicate item keys, last item wins the match",
			zap.Int("duplicates", plan.Summary.DuplicateItems))
	}
	if plan.Summary.UnkeyedListings > 0 {
		e.logger.Warn("Listings without key skipped",
			zap.Int("count", plan.Summary.UnkeyedListings))
	}
	return plan
}

// Sync runs the create/update pass: every listing is matched by key against the
// items and either updated in place or created. Per-listing failures are collected
// in the result; the returned error is only ever the context error.
func (e *Engine[L]) Sync(ctx context.Context, listings []L, items []Item, opts ReconcileOptions) (SyncResult, error) {
	return e.SyncPlan(ctx, e.Plan(listings, items), opts)
}

type upsertOutcome struct {
	id      string
	created bool
}

// SyncPlan executes the upserts of a precomputed plan.
func (e *Engine[L]) SyncPlan(ctx context.Context, plan *Plan[L], opts ReconcileOptions) (SyncResult, error) {
	result := SyncResult{Created: []string{}, Updated: []string{}, Failed: []Failure{}}

	e.logger.Info("Starting sync pass",
		zap.Int("creates", plan.Summary.Creates),
		zap.Int("updates", plan.Summary.Updates),
		zap.Bool("dry_run", opts.DryRun),
	)
	if opts.DryRun || len(plan.Upserts) == 0 {
		return result, ctx.Err()
	}

	results := batch.Run(ctx, e.batch, plan.Upserts, e.upsert)
	for i, res := range results {
		action := plan.Upserts[i]
		if !res.OK() {
			result.Failed = append(result.Failed, Failure{
				Key:    action.Key,
				Action: action.Type,
				Cause:  causeOf(res.Err),
			})
			e.logger.Warn("Listing sync failed",
				zap.String("key", action.Key),
				zap.String("action", string(action.Type)),
				zap.Error(res.Err),
			)
			continue
		}
		if res.Value.created {
			result.Created = append(result.Created, res.Value.id)
		} else {
			result.Updated = append(result.Updated, res.Value.id)
		}
	}

	e.logger.Info("Sync pass finished",
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, ctx.Err()
}

func (e *Engine[L]) upsert(ctx context.Context, action Action[L]) (upsertOutcome, error) {
	fields, err := e.mapper.Map(action.Listing)
	if err != nil {
		return upsertOutcome{}, fmt.Errorf("map listing: %w", err)
	}
	fields = fields.Clone()
	fields[e.keyField] = action.Key

	if action.Type == ActionUpdate {
		preserveIdentity(fields, action.Item)
		item, err := e.store.UpdateItem(ctx, action.ItemID, fields)
		if err != nil {
			return upsertOutcome{}, err
		}
		return upsertOutcome{id: firstNonEmpty(item.ID, action.ItemID)}, nil
	}

	id := e.newID()
	item, err := e.store.CreateItem(ctx, fields, id)
	if err != nil {
		return upsertOutcome{}, err
	}
	return upsertOutcome{id: firstNonEmpty(item.ID, id), created: true}, nil
}

// preserveIdentity keeps the store-owned slug and name of an existing item.
// A blank value on the item drops the field so the store keeps what it has.
func preserveIdentity(fields FieldSet, item *Item) {
	if item == nil {
		delete(fields, FieldSlug)
		delete(fields, FieldName)
		return
	}
	if item.Slug != "" {
		fields[FieldSlug] = item.Slug
	} else {
		delete(fields, FieldSlug)
	}
	if item.Name != "" {
		fields[FieldName] = item.Name
	} else {
		delete(fields, FieldName)
	}
}

// Cleanup runs the delete pass: every item whose key is absent from the listing set
// is deleted. Per-item failures are collected in the result.
func (e *Engine[L]) Cleanup(ctx context.Context, listings []L, items []Item, opts ReconcileOptions) (CleanupResult, error) {
	return e.CleanupPlan(ctx, e.Plan(listings, items), opts)
}

// CleanupPlan executes the deletes of a precomputed plan.
func (e *Engine[L]) CleanupPlan(ctx context.Context, plan *Plan[L], opts ReconcileOptions) (CleanupResult, error) {
	result := CleanupResult{Deleted: []string{}, Failed: []Failure{}}

	if opts.MinListings > 0 && plan.Summary.Listings < opts.MinListings {
		e.logger.Warn("Cleanup aborted, too few listings",
			zap.Int("listings", plan.Summary.Listings),
			zap.Int("minimum", opts.MinListings),
			zap.Int("would_delete", plan.Summary.Deletes),
		)
		return result, fmt.Errorf("%w: %d < %d", ErrTooFewListings, plan.Summary.Listings, opts.MinListings)
	}

	e.logger.Info("Starting cleanup pass",
		zap.Int("deletes", plan.Summary.Deletes),
		zap.Bool("dry_run", opts.DryRun),
	)
	if opts.DryRun || len(plan.Deletes) == 0 {
		return result, ctx.Err()
	}

	results := batch.Run(ctx, e.batch, plan.Deletes, func(ctx context.Context, a Action[L]) (string, error) {
		return a.ItemID, e.store.DeleteItem(ctx, a.ItemID)
	})
	for i, res := range results {
		action := plan.Deletes[i]
		if !res.OK() {
			result.Failed = append(result.Failed, Failure{
				Key:    firstNonEmpty(action.Key, action.ItemID),
				Action: ActionDelete,
				Cause:  causeOf(res.Err),
			})
			e.logger.Warn("Item delete failed",
				zap.String("item_id", action.ItemID),
				zap.Error(res.Err),
			)
			continue
		}
		result.Deleted = append(result.Deleted, res.Value)
	}
	result.Count = len(result.Deleted)

	e.logger.Info("Cleanup pass finished",
		zap.Int("deleted", result.Count),
		zap.Int("failed", len(result.Failed)),
	)
	return result, ctx.Err()
}

// causeOf unwraps the batch position so reports carry the store's own message.
func causeOf(err error) string {
	var itemErr *batch.ItemError
	if errors.As(err, &itemErr) {
		return itemErr.Cause.Error()
	}
	return err.Error()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
