// Package reconcile keeps a CMS collection in step with an external listing set.
//
// A run is split into two passes over the same snapshot of listings and items:
//
// 1. Sync: every listing is matched by identity key against the items. A match is
//    updated in place with freshly mapped fields, keeping the item's slug and name.
//    A listing without a match is created under a new caller-assigned id.
//
// 2. Cleanup: every item whose key no longer appears among the listings is deleted.
//
// Both passes are executed through package batch, so they inherit its pacing and its
// per-item failure isolation. The caller runs Sync to completion before Cleanup.
//
// # Matching
//
// Items are indexed by the field that mirrors the listing key (idnum by default).
// Duplicate keys on either side resolve last-seen-wins and are counted in the plan
// summary. The plan never contains the same item as both an update and a delete.
//
// # Usage Example
//
//	engine, err := reconcile.NewEngine(reconcile.Spec[listings.Listing]{
//	    Mapper: fieldMapper,
//	    Store:  cmsClient,
//	    Batch:  batch.Config{Size: 100, Delay: time.Minute},
//	})
//
//	plan := engine.Plan(all, items)
//	synced, _ := engine.SyncPlan(ctx, plan, reconcile.ReconcileOptions{})
//	cleaned, _ := engine.CleanupPlan(ctx, plan, reconcile.ReconcileOptions{})
package reconcile
