package history

import (
	"context"

	"listing-sync/core/reconcile"

	"go.uber.org/zap"
)

// ReportSink receives the report of every finished run.
type ReportSink interface {
	Name() string
	Report(ctx context.Context, result *reconcile.RunResult) error
}

// Fanout hands result to every sink in order and logs failures.
// It returns the number of sinks that failed.
func Fanout(ctx context.Context, logger *zap.Logger, sinks []ReportSink, result *reconcile.RunResult) int {
	if logger == nil {
		logger = zap.NewNop()
	}

	failed := 0
	for _, sink := range sinks {
		if err := sink.Report(ctx, result); err != nil {
			failed++
			logger.Warn("Run report sink failed",
				zap.String("sink", sink.Name()),
				zap.String("run_id", result.RunID),
				zap.Error(err),
			)
			continue
		}
		logger.Debug("Run report stored",
			zap.String("sink", sink.Name()),
			zap.String("run_id", result.RunID),
		)
	}
	return failed
}
