package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"listing-sync/core/batch"
	"listing-sync/core/logger"
	"listing-sync/core/reconcile"
	"listing-sync/feature/history"
	"listing-sync/feature/listings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned when a run is requested while another one is active.
var ErrRunInProgress = errors.New("a sync run is already in progress")

// State is the stage of the active run.
type State string

const (
	StateIdle               State = "idle"
	StateFetchingListings   State = "fetching_listings"
	StateFetchingCollection State = "fetching_collection"
	StateSyncing            State = "syncing"
	StateCleaningUp         State = "cleaning_up"
	StatePublishing         State = "publishing"
	StateReporting          State = "reporting"
)

// ListingSource returns the complete listing set of a run.
type ListingSource interface {
	Fetch(ctx context.Context) ([]listings.Listing, error)
}

// Collection is the target collection: a reconcile store that can also list
// and publish its items.
type Collection interface {
	reconcile.Store
	ListItems(ctx context.Context) ([]reconcile.Item, error)
	PublishItems(ctx context.Context, ids []string) error
	PublishSite(ctx context.Context, domains []string) error
}

// Deps wires a Runner.
type Deps struct {
	Source     ListingSource
	Collection Collection
	Mapper     reconcile.Mapper[listings.Listing]
	Sinks      []history.ReportSink
	Domains    []string
	Config     Config
	Logger     *zap.Logger

	// Sleep replaces the batch cool-down timer. Tests use it to skip waits.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Status is a snapshot of the runner.
type Status struct {
	State   State                `json:"state"`
	Running bool                 `json:"running"`
	RunID   string               `json:"run_id,omitempty"`
	Last    *reconcile.RunResult `json:"last,omitempty"`
}

// Runner executes sync runs one at a time.
type Runner struct {
	source     ListingSource
	collection Collection
	engine     *reconcile.Engine[listings.Listing]
	sinks      []history.ReportSink
	domains    []string
	cfg        Config
	logger     *zap.Logger
	newRunID   func() string
	now        func() time.Time

	running atomic.Bool
	state   atomic.Value // State
	runID   atomic.Value // string
	last    atomic.Pointer[reconcile.RunResult]
}

// NewRunner validates deps and builds a Runner.
func NewRunner(deps Deps) (*Runner, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("sync: listing source is required")
	}
	if deps.Collection == nil {
		return nil, fmt.Errorf("sync: collection is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	engine, err := reconcile.NewEngine(reconcile.Spec[listings.Listing]{
		Mapper: deps.Mapper,
		Store:  deps.Collection,
		Batch: batch.Config{
			Size:        deps.Config.BatchSize,
			Delay:       deps.Config.BatchDelay,
			ItemTimeout: deps.Config.ItemTimeout,
			Sleep:       deps.Sleep,
			Logger:      deps.Logger,
		},
		Logger: deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("sync: %w", err)
	}

	r := &Runner{
		source:     deps.Source,
		collection: deps.Collection,
		engine:     engine,
		sinks:      deps.Sinks,
		domains:    deps.Domains,
		cfg:        deps.Config,
		logger:     deps.Logger,
		newRunID:   uuid.NewString,
		now:        time.Now,
	}
	r.state.Store(StateIdle)
	r.runID.Store("")
	return r, nil
}

// DefaultOptions returns the options of a scheduled run.
func (r *Runner) DefaultOptions() reconcile.ReconcileOptions {
	return reconcile.ReconcileOptions{MinListings: r.cfg.MinListings}
}

// Status returns the current state and the last finished run.
func (r *Runner) Status() Status {
	return Status{
		State:   r.state.Load().(State),
		Running: r.running.Load(),
		RunID:   r.runID.Load().(string),
		Last:    r.last.Load(),
	}
}

// Run executes one run synchronously. Fatal errors are returned alongside the
// failed report; item failures only appear in the report.
func (r *Runner) Run(ctx context.Context, opts reconcile.ReconcileOptions) (*reconcile.RunResult, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	return r.execute(ctx, r.newRunID(), opts)
}

// Start launches a run in the background and returns its id.
func (r *Runner) Start(ctx context.Context, opts reconcile.ReconcileOptions) (string, error) {
	if !r.running.CompareAndSwap(false, true) {
		return "", ErrRunInProgress
	}
	id := r.newRunID()
	go func() {
		_, _ = r.execute(ctx, id, opts)
	}()
	return id, nil
}

// Plan fetches both sides and returns the diff without mutating anything.
func (r *Runner) Plan(ctx context.Context) (*reconcile.Plan[listings.Listing], error) {
	all, err := r.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	items, err := r.collection.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return r.engine.Plan(all, items), nil
}

// execute owns the running flag acquired by the caller.
func (r *Runner) execute(ctx context.Context, runID string, opts reconcile.ReconcileOptions) (result *reconcile.RunResult, err error) {
	log := logger.WithRunID(r.logger, runID)
	result = &reconcile.RunResult{
		RunID:     runID,
		StartedAt: r.now(),
		Created:   []string{},
		Updated:   []string{},
		Deleted:   []string{},
		Failed:    []reconcile.Failure{},
	}
	r.runID.Store(runID)

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sync run panicked: %v", p)
			log.Error("Sync run panicked", zap.Any("panic", p), zap.Stack("stack"))
		}
		r.finish(ctx, log, result, opts, err)
	}()

	log.Info("Sync run started",
		zap.Bool("dry_run", opts.DryRun),
		zap.Bool("skip_cleanup", opts.SkipCleanup),
		zap.Bool("skip_publish", opts.SkipPublish),
	)
	engine := r.engine.WithLogger(log)

	r.setState(StateFetchingListings)
	all, err := r.source.Fetch(ctx)
	if err != nil {
		return result, err
	}

	r.setState(StateFetchingCollection)
	items, err := r.collection.ListItems(ctx)
	if err != nil {
		return result, err
	}

	plan := engine.Plan(all, items)
	result.Summary = plan.Summary
	log.Info("Plan computed",
		zap.Int("listings", plan.Summary.Listings),
		zap.Int("items", plan.Summary.Items),
		zap.Int("creates", plan.Summary.Creates),
		zap.Int("updates", plan.Summary.Updates),
		zap.Int("deletes", plan.Summary.Deletes),
	)

	r.setState(StateSyncing)
	synced, err := engine.SyncPlan(ctx, plan, opts)
	result.Created = synced.Created
	result.Updated = synced.Updated
	result.Failed = append(result.Failed, synced.Failed...)
	if err != nil {
		return result, fmt.Errorf("sync pass: %w", err)
	}

	if opts.SkipCleanup {
		log.Info("Cleanup skipped")
	} else {
		r.setState(StateCleaningUp)
		cleaned, err := engine.CleanupPlan(ctx, plan, opts)
		result.Deleted = cleaned.Deleted
		result.Failed = append(result.Failed, cleaned.Failed...)
		switch {
		case errors.Is(err, reconcile.ErrTooFewListings):
			result.Warnings = append(result.Warnings, err.Error())
		case err != nil:
			return result, fmt.Errorf("cleanup pass: %w", err)
		}
	}

	if opts.DryRun || opts.SkipPublish {
		log.Info("Publish skipped")
		return result, nil
	}

	r.setState(StatePublishing)
	result.Warnings = append(result.Warnings, r.publish(ctx, log, synced.Touched())...)
	return result, nil
}

// publish publishes the touched items and then the site. Both steps are
// best-effort; their failures come back as warnings.
func (r *Runner) publish(ctx context.Context, log *zap.Logger, ids []string) []string {
	var warnings []string

	if len(ids) > 0 {
		if err := r.collection.PublishItems(ctx, ids); err != nil {
			log.Warn("Item publish failed", zap.Int("items", len(ids)), zap.Error(err))
			warnings = append(warnings, "item publish: "+err.Error())
		} else {
			log.Info("Items published", zap.Int("items", len(ids)))
		}
	}

	if err := r.collection.PublishSite(ctx, r.domains); err != nil {
		log.Warn("Site publish failed", zap.Strings("domains", r.domains), zap.Error(err))
		warnings = append(warnings, "site publish: "+err.Error())
	} else {
		log.Info("Site published", zap.Strings("domains", r.domains))
	}
	return warnings
}

func (r *Runner) finish(ctx context.Context, log *zap.Logger, result *reconcile.RunResult, opts reconcile.ReconcileOptions, err error) {
	result.FinishedAt = r.now()
	switch {
	case err != nil:
		result.Status = reconcile.RunFailed
		result.Error = err.Error()
	case opts.DryRun:
		result.Status = reconcile.RunSkipped
	default:
		result.Status = reconcile.RunSucceeded
	}

	r.last.Store(result)

	fields := []zap.Field{
		zap.String("status", string(result.Status)),
		zap.Duration("duration", result.Duration()),
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("deleted", len(result.Deleted)),
		zap.Int("failed", len(result.Failed)),
	}
	if err != nil {
		log.Error("Sync run failed", append(fields, zap.Error(err))...)
	} else {
		log.Info("Sync run finished", fields...)
	}

	// The run stays in progress until every sink has reported.
	defer func() {
		r.setState(StateIdle)
		r.runID.Store("")
		r.running.Store(false)
	}()

	if len(r.sinks) == 0 {
		return
	}
	r.setState(StateReporting)
	timeout := r.cfg.ReportTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	history.Fanout(reportCtx, log, r.sinks, result)
}

func (r *Runner) setState(s State) {
	r.state.Store(s)
}
