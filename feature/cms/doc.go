// Package cms is the Webflow collection store.
//
// It lists every item of the listing collection with offset paging, creates,
// updates and deletes items, and publishes items and the site. Items are always
// written live: the legacy _archived and _draft fields produced by the mapper are
// lifted into the top-level isArchived and isDraft flags.
package cms
