// Package sync orchestrates reconciliation runs.
//
// A Runner fetches the listing set and the collection, hands both to the
// reconcile engine, publishes what changed and reports the run to the history
// sinks. At most one run is active per process; concurrent triggers get
// ErrRunInProgress. The Scheduler fires runs from a cron expression and the
// Handler exposes manual triggers, status and dry-run plans over HTTP.
package sync
