package sync

import (
	"context"
	"errors"
	"strconv"

	"listing-sync/core/logger"
	"listing-sync/core/reconcile"
	"listing-sync/feature/history"
	"listing-sync/feature/listings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RunLister returns recorded runs, newest first.
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]history.SyncRun, error)
}

// Handler handles HTTP requests for sync runs.
type Handler struct {
	runner *Runner
	runs   RunLister
	ctx    context.Context
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler. Triggered runs inherit ctx, not the
// request context. runs may be nil when no run history is kept.
func NewHandler(ctx context.Context, runner *Runner, runs RunLister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{runner: runner, runs: runs, ctx: ctx, logger: logger}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/run", h.HandleRun)
	group.Get("/status", h.HandleStatus)
	group.Get("/plan", h.HandlePlan)
	if h.runs != nil {
		group.Get("/history", h.HandleHistory)
	}
}

// RunAccepted is the response of a triggered run.
type RunAccepted struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// PlanEntry is one planned mutation.
type PlanEntry struct {
	Key    string `json:"key"`
	ItemID string `json:"item_id,omitempty"`
}

// PlanResponse is the dry-run diff between the listing feed and the collection.
type PlanResponse struct {
	Summary reconcile.PlanSummary `json:"summary"`
	Creates []PlanEntry           `json:"creates"`
	Updates []PlanEntry           `json:"updates"`
	Deletes []PlanEntry           `json:"deletes"`
}

// NewPlanResponse flattens a plan into keys and item ids.
func NewPlanResponse(plan *reconcile.Plan[listings.Listing]) PlanResponse {
	resp := PlanResponse{
		Summary: plan.Summary,
		Creates: []PlanEntry{},
		Updates: []PlanEntry{},
		Deletes: []PlanEntry{},
	}
	for _, a := range plan.Upserts {
		entry := PlanEntry{Key: a.Key, ItemID: a.ItemID}
		if a.Type == reconcile.ActionCreate {
			resp.Creates = append(resp.Creates, entry)
		} else {
			resp.Updates = append(resp.Updates, entry)
		}
	}
	for _, a := range plan.Deletes {
		resp.Deletes = append(resp.Deletes, PlanEntry{Key: a.Key, ItemID: a.ItemID})
	}
	return resp
}

// HandleRun triggers a run in the background.
// @Summary Trigger Sync Run
// @Description Starts a reconciliation run in the background. Only one run may be active at a time.
// @Tags sync
// @Produce json
// @Param dry_run query boolean false "Compute and report without mutating"
// @Param skip_cleanup query boolean false "Skip the delete pass"
// @Param skip_publish query boolean false "Skip item and site publishing"
// @Success 202 {object} RunAccepted
// @Failure 409 {object} map[string]string "Run in progress"
// @Router /sync/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	opts := h.runner.DefaultOptions()
	opts.DryRun = c.QueryBool("dry_run")
	opts.SkipCleanup = c.QueryBool("skip_cleanup")
	opts.SkipPublish = c.QueryBool("skip_publish")

	runID, err := h.runner.Start(h.ctx, opts)
	if errors.Is(err, ErrRunInProgress) {
		l.Warn("Sync trigger rejected, run in progress")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Sync run triggered", zap.String("run_id", runID), zap.Bool("dry_run", opts.DryRun))
	return c.Status(fiber.StatusAccepted).JSON(RunAccepted{RunID: runID, Status: "accepted"})
}

// HandleStatus reports the runner state.
// @Summary Sync Status
// @Description Returns the current run state and the report of the last finished run.
// @Tags sync
// @Produce json
// @Success 200 {object} Status
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.runner.Status())
}

// HandlePlan computes the diff without mutating.
// @Summary Sync Plan
// @Description Fetches the listing feed and the collection and returns the creates, updates and deletes a run would perform.
// @Tags sync
// @Produce json
// @Success 200 {object} PlanResponse
// @Failure 502 {object} map[string]string "Upstream fetch failed"
// @Router /sync/plan [get]
func (h *Handler) HandlePlan(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	plan, err := h.runner.Plan(c.UserContext())
	if err != nil {
		l.Error("Plan failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(NewPlanResponse(plan))
}

// HandleHistory lists recorded runs.
// @Summary Sync History
// @Description Returns the most recent recorded runs, newest first.
// @Tags sync
// @Produce json
// @Param limit query int false "Maximum number of runs" default(20)
// @Success 200 {array} history.SyncRun
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/history [get]
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 || limit > 500 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be between 1 and 500"})
	}

	runs, err := h.runs.Recent(c.UserContext(), limit)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("History query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(runs)
}
