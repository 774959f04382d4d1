package reconcile

import (
	"errors"
	"time"
)

// FieldSet is a complete field mapping conforming to the target collection schema.
type FieldSet map[string]any

// Clone returns a shallow copy of the field set.
func (f FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Field names owned by the collection store once an item exists.
const (
	FieldSlug = "slug"
	FieldName = "name"
)

// DefaultKeyField is the item field that mirrors the listing identity key.
const DefaultKeyField = "idnum"

// Item is one record of the target collection.
type Item struct {
	// ID is the store-assigned identifier.
	ID string `json:"id"`

	// Slug is the URL-safe identifier. Store-owned after creation.
	Slug string `json:"slug"`

	// Name is the store-owned display name.
	Name string `json:"name"`

	// FieldData holds all collection fields, including the key mirror field.
	FieldData FieldSet `json:"fieldData"`
}

// Key returns the listing key stored in keyField, or "" if absent.
func (i Item) Key(keyField string) string {
	v, ok := i.FieldData[keyField]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionCreate creates a new item from a listing.
	ActionCreate ActionType = "create"
	// ActionUpdate updates an existing item in place.
	ActionUpdate ActionType = "update"
	// ActionDelete deletes an item whose listing disappeared.
	ActionDelete ActionType = "delete"
)

// Action represents a planned mutation operation.
type Action[L any] struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key is the listing identity key.
	Key string `json:"key"`

	// ItemID is the existing item identifier. Empty for creates.
	ItemID string `json:"item_id,omitempty"`

	// Listing is the source record for creates and updates.
	Listing L `json:"-"`

	// Item is the matched collection item for updates and deletes.
	Item *Item `json:"-"`
}

// Plan is the create/update/delete diff between a listing set and an item set.
type Plan[L any] struct {
	// Upserts holds creates and updates in listing order.
	Upserts []Action[L] `json:"upserts"`

	// Deletes holds obsolete items in collection order.
	Deletes []Action[L] `json:"deletes"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// Listings is the number of distinct listing keys.
	Listings int `json:"listings"`

	// Items is the number of collection items considered.
	Items int `json:"items"`

	// Creates counts listings without a matching item.
	Creates int `json:"creates"`

	// Updates counts listings with a matching item.
	Updates int `json:"updates"`

	// Deletes counts items whose key is absent from the listings.
	Deletes int `json:"deletes"`

	// DuplicateListings counts listings dropped because a later listing had the same key.
	DuplicateListings int `json:"duplicate_listings"`

	// DuplicateItems counts items shadowed in the match index by a later item with the same key.
	DuplicateItems int `json:"duplicate_items"`

	// UnkeyedItems counts items without a stored listing key. They are always deleted.
	UnkeyedItems int `json:"unkeyed_items"`

	// UnkeyedListings counts listings skipped because they carry no identity key.
	UnkeyedListings int `json:"unkeyed_listings"`
}

// ReconcileOptions controls reconcile behavior.
type ReconcileOptions struct {
	// DryRun computes the plan but performs no mutation.
	DryRun bool

	// SkipCleanup disables the delete pass.
	SkipCleanup bool

	// SkipPublish disables item and site publishing.
	SkipPublish bool

	// MinListings aborts cleanup when fewer listings were fetched. Zero disables the guard.
	MinListings int
}

// Failure records one listing or item that could not be processed.
type Failure struct {
	// Key is the listing key, or the item id when no key is known.
	Key string `json:"key"`

	// Action is the attempted mutation.
	Action ActionType `json:"action"`

	// Cause is the error message.
	Cause string `json:"cause"`
}

// SyncResult is the outcome of the sync (create/update) pass.
type SyncResult struct {
	Created []string  `json:"created"`
	Updated []string  `json:"updated"`
	Failed  []Failure `json:"failed"`
}

// Touched returns the ids of every item created or updated.
func (r SyncResult) Touched() []string {
	ids := make([]string, 0, len(r.Created)+len(r.Updated))
	ids = append(ids, r.Created...)
	return append(ids, r.Updated...)
}

// CleanupResult is the outcome of the cleanup (delete) pass.
type CleanupResult struct {
	Deleted []string  `json:"deleted"`
	Failed  []Failure `json:"failed"`
	Count   int       `json:"count"`
}

// RunStatus is the terminal outcome of a run.
type RunStatus string

const (
	// RunSucceeded means every stage completed. Item failures may still be present.
	RunSucceeded RunStatus = "succeeded"
	// RunFailed means a fatal error stopped the run.
	RunFailed RunStatus = "failed"
	// RunSkipped means the run was a dry run and performed no mutation.
	RunSkipped RunStatus = "dry_run"
)

// RunResult is the report of one sync run.
type RunResult struct {
	RunID      string      `json:"run_id"`
	Status     RunStatus   `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Created    []string    `json:"created"`
	Updated    []string    `json:"updated"`
	Deleted    []string    `json:"deleted"`
	Failed     []Failure   `json:"failed"`
	Summary    PlanSummary `json:"summary"`
	Warnings   []string    `json:"warnings,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Duration returns the wall time of the run.
func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Run-level errors. They are fatal: the orchestrator stops and reports a failed run.
var (
	// ErrNoCredential means the listing source granted no usable access token.
	ErrNoCredential = errors.New("no listing source credential")
	// ErrFetchListings means the complete listing set could not be fetched.
	ErrFetchListings = errors.New("failed to fetch listings")
	// ErrFetchCollection means the complete collection item set could not be fetched.
	ErrFetchCollection = errors.New("failed to fetch collection items")
)
