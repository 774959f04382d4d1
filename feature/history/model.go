package history

import (
	"encoding/json"
	"time"

	"listing-sync/core/reconcile"
)

// SyncRun is one row of the sync_runs table.
type SyncRun struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RunID      string    `gorm:"column:run_id;size:36;uniqueIndex" json:"run_id"`
	Status     string    `gorm:"column:status;size:16;index" json:"status"`
	StartedAt  time.Time `gorm:"column:started_at" json:"started_at"`
	FinishedAt time.Time `gorm:"column:finished_at" json:"finished_at"`
	DurationMs int64     `gorm:"column:duration_ms" json:"duration_ms"`
	Listings   int       `gorm:"column:listings" json:"listings"`
	Items      int       `gorm:"column:items" json:"items"`
	Created    int       `gorm:"column:created" json:"created"`
	Updated    int       `gorm:"column:updated" json:"updated"`
	Deleted    int       `gorm:"column:deleted" json:"deleted"`
	Failed     int       `gorm:"column:failed" json:"failed"`
	Failures   string    `gorm:"column:failures;type:text" json:"failures,omitempty"` // JSON array
	Error      string    `gorm:"column:error;type:text" json:"error,omitempty"`
}

// TableName overrides the GORM table name.
func (SyncRun) TableName() string {
	return "sync_runs"
}

// NewSyncRun flattens a run report into a row.
func NewSyncRun(r *reconcile.RunResult) (SyncRun, error) {
	row := SyncRun{
		RunID:      r.RunID,
		Status:     string(r.Status),
		StartedAt:  r.StartedAt.UTC(),
		FinishedAt: r.FinishedAt.UTC(),
		DurationMs: r.Duration().Milliseconds(),
		Listings:   r.Summary.Listings,
		Items:      r.Summary.Items,
		Created:    len(r.Created),
		Updated:    len(r.Updated),
		Deleted:    len(r.Deleted),
		Failed:     len(r.Failed),
		Error:      r.Error,
	}
	if len(r.Failed) > 0 {
		raw, err := json.Marshal(r.Failed)
		if err != nil {
			return SyncRun{}, err
		}
		row.Failures = string(raw)
	}
	return row, nil
}

// Notification is the broker message announcing a finished run.
type Notification struct {
	RunID      string              `json:"run_id"`
	Status     reconcile.RunStatus `json:"status"`
	FinishedAt time.Time           `json:"finished_at"`
	DurationMs int64               `json:"duration_ms"`
	Created    int                 `json:"created"`
	Updated    int                 `json:"updated"`
	Deleted    int                 `json:"deleted"`
	Failed     int                 `json:"failed"`
	Error      string              `json:"error,omitempty"`
}

// NewNotification summarizes a run report.
func NewNotification(r *reconcile.RunResult) Notification {
	return Notification{
		RunID:      r.RunID,
		Status:     r.Status,
		FinishedAt: r.FinishedAt.UTC(),
		DurationMs: r.Duration().Milliseconds(),
		Created:    len(r.Created),
		Updated:    len(r.Updated),
		Deleted:    len(r.Deleted),
		Failed:     len(r.Failed),
		Error:      r.Error,
	}
}
