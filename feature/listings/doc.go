// Package listings is the CREA DDF listing source.
//
// It exchanges client credentials for an access token at the CREA identity
// provider, pages through the OData Property resource following @odata.nextLink,
// and resolves the listing and co-listing agents (Member) with their brokerage
// (Office).
//
// # Failure Semantics
//
//   - Token failures return reconcile.ErrNoCredential.
//   - Any failed Property page returns reconcile.ErrFetchListings; a partial
//     listing set is never returned, so downstream cleanup cannot delete live items.
//   - Member and Office lookup failures are logged and leave the sub-record nil.
//
// # Feeds
//
// The member feed is always fetched. With national_enabled the national pool is
// fetched as well and merged: the national record wins on a shared ListingKey.
//
// # Usage
//
//	client := listings.NewClient(cfg.Crea, logger)
//	source := listings.NewSource(client, cfg.Crea, logger)
//	all, err := source.Fetch(ctx)
package listings
