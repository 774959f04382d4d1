package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"listing-sync/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	dryRunSync      bool
	skipCleanupSync bool
	skipPublishSync bool
	yesConfirm      bool
)

// syncCmd runs one reconciliation and exits.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one listing sync now",
	Long: `Fetches the CREA listing feed and the Webflow collection, creates and updates
one item per listing, deletes items whose listing is gone and publishes the site.

Examples:
  # Report what would change
  sync --dry-run

  # Full run, asking before deleting items
  sync

  # Full run without prompting (cron, CI)
  sync --yes

  # Upsert only
  sync --skip-cleanup --skip-publish`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&dryRunSync, "dry-run", false, "Compute and report the plan without mutating anything")
	syncCmd.Flags().BoolVar(&skipCleanupSync, "skip-cleanup", false, "Do not delete items whose listing is gone")
	syncCmd.Flags().BoolVar(&skipPublishSync, "skip-publish", false, "Do not publish items or the site")
	syncCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm deletes (non-interactive)")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, l, err := bootstrap()
	if err != nil {
		return err
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer svc.Close()

	opts := svc.runner.DefaultOptions()
	opts.DryRun = dryRunSync
	opts.SkipCleanup = skipCleanupSync
	opts.SkipPublish = skipPublishSync

	// Deletes are destructive: show the plan and ask first
	if !opts.DryRun && !opts.SkipCleanup && !yesConfirm {
		plan, err := svc.runner.Plan(ctx)
		if err != nil {
			return fmt.Errorf("failed to plan sync: %w", err)
		}
		printPlanReport(l, plan.Summary, plan.Deletes)

		if plan.Summary.Deletes > 0 && !confirmDestructiveAction(plan.Summary.Deletes) {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
	}

	result, err := svc.runner.Run(ctx, opts)
	if result != nil {
		printRunReport(l, result)
	}
	return err
}

// printRunReport logs the outcome of a run.
func printRunReport(l *zap.Logger, r *reconcile.RunResult) {
	l.Info("Sync report",
		zap.String("run_id", r.RunID),
		zap.String("status", string(r.Status)),
		zap.Duration("duration", r.Duration()),
		zap.Int("created", len(r.Created)),
		zap.Int("updated", len(r.Updated)),
		zap.Int("deleted", len(r.Deleted)),
		zap.Int("failed", len(r.Failed)),
	)

	maxShow := min(len(r.Failed), 10)
	for _, f := range r.Failed[:maxShow] {
		l.Warn("Failed item",
			zap.String("key", f.Key),
			zap.String("action", string(f.Action)),
			zap.String("cause", f.Cause),
		)
	}
	if len(r.Failed) > maxShow {
		l.Warn("Additional failures not shown", zap.Int("count", len(r.Failed)-maxShow))
	}
	for _, w := range r.Warnings {
		l.Warn("Run warning", zap.String("warning", w))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction(deletes int) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  %d items will be deleted. Type 'yes' to confirm: ", deletes)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
