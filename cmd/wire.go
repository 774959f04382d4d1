package cmd

import (
	"context"
	"fmt"

	"listing-sync/core/broker"
	"listing-sync/core/config"
	"listing-sync/core/database"
	"listing-sync/core/storage"
	"listing-sync/feature/cms"
	"listing-sync/feature/history"
	"listing-sync/feature/listings"
	"listing-sync/feature/mapper"
	syncFeature "listing-sync/feature/sync"

	"go.uber.org/zap"
)

// service is the wired sync pipeline shared by every command.
type service struct {
	runner  *syncFeature.Runner
	runs    *history.DBSink
	closers []func() error
	logger  *zap.Logger
}

// newService builds the listing source, the collection store and the runner.
// Report sinks are optional: a sink that cannot be set up is logged and skipped.
func newService(ctx context.Context, cfg *config.Config, l *zap.Logger) (*service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m, err := mapper.New()
	if err != nil {
		return nil, fmt.Errorf("failed to build field mapper: %w", err)
	}

	ddf := listings.NewClient(cfg.CREA, l)
	source := listings.NewSource(ddf, cfg.CREA, l)
	collection := cms.NewClient(cfg.Webflow, l)

	svc := &service{logger: l}
	sinks := svc.sinks(ctx, cfg)

	runner, err := syncFeature.NewRunner(syncFeature.Deps{
		Source:     source,
		Collection: collection,
		Mapper:     m,
		Sinks:      sinks,
		Domains:    cfg.Webflow.DomainList(),
		Config:     cfg.Sync,
		Logger:     l,
	})
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.runner = runner
	return svc, nil
}

func (s *service) sinks(ctx context.Context, cfg *config.Config) []history.ReportSink {
	var sinks []history.ReportSink

	if cfg.Database.Enabled {
		if db, err := database.Connect(cfg.Database); err != nil {
			s.logger.Warn("Optional database connection failed", zap.Error(err))
		} else if sink, err := history.NewDBSink(db); err != nil {
			s.logger.Warn("Run history disabled", zap.Error(err))
		} else {
			s.runs = sink
			sinks = append(sinks, sink)
			if sqlDB, err := db.DB(); err == nil {
				s.closers = append(s.closers, sqlDB.Close)
			}
			s.logger.Info("Run history enabled", zap.String("driver", cfg.Database.Driver))
		}
	}

	if cfg.Storage.Enabled {
		if client, err := storage.NewClient(cfg.Storage); err != nil {
			s.logger.Warn("Optional storage client failed", zap.Error(err))
		} else if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			s.logger.Warn("Run report archive disabled", zap.Error(err))
		} else {
			sinks = append(sinks, history.NewArchiveSink(client, cfg.Storage.Bucket, cfg.Storage.Prefix))
			s.logger.Info("Run report archive enabled", zap.String("bucket", cfg.Storage.Bucket))
		}
	}

	if cfg.Broker.Enabled {
		if p, err := broker.Dial(cfg.Broker, s.logger); err != nil {
			s.logger.Warn("Optional broker connection failed", zap.Error(err))
		} else {
			sinks = append(sinks, history.NewBrokerSink(p))
			s.closers = append(s.closers, p.Close)
			s.logger.Info("Run notifications enabled", zap.String("exchange", cfg.Broker.Exchange))
		}
	}

	return sinks
}

// runLister returns the history lister, or nil when run history is disabled.
func (s *service) runLister() syncFeature.RunLister {
	if s.runs == nil {
		return nil
	}
	return s.runs
}

// Close releases the sink connections.
func (s *service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
	s.closers = nil
}
