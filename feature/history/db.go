package history

import (
	"context"
	"fmt"

	"listing-sync/core/reconcile"

	"gorm.io/gorm"
)

// DBSink stores run reports in the sync_runs table.
type DBSink struct {
	db *gorm.DB
}

// NewDBSink migrates the sync_runs table.
func NewDBSink(db *gorm.DB) (*DBSink, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := db.AutoMigrate(&SyncRun{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sync_runs: %w", err)
	}
	return &DBSink{db: db}, nil
}

// Name implements ReportSink.
func (s *DBSink) Name() string { return "database" }

// Report inserts one row for result.
func (s *DBSink) Report(ctx context.Context, result *reconcile.RunResult) error {
	row, err := NewSyncRun(result)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", result.RunID, err)
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert run %s: %w", result.RunID, err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (s *DBSink) Recent(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []SyncRun
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return rows, nil
}
