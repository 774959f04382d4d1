// Package history records finished sync runs.
//
// A run report is handed to every configured ReportSink: the sync_runs table,
// a JSON object in the report bucket, or a broker notification. Sinks never
// change the outcome of a run; Fanout only logs their failures.
package history
