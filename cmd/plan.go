package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"listing-sync/core/reconcile"
	"listing-sync/feature/listings"
	syncFeature "listing-sync/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var planJSON bool

// planCmd prints the diff a sync would apply.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a sync would create, update and delete",
	Long:  `Fetches both sides and prints the plan summary. Nothing is mutated. Use --json for the full action list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := bootstrap()
		if err != nil {
			return err
		}
		defer l.Sync()

		svc, err := newService(cmd.Context(), cfg, l)
		if err != nil {
			return err
		}
		defer svc.Close()

		plan, err := svc.runner.Plan(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to plan sync: %w", err)
		}

		if planJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(syncFeature.NewPlanResponse(plan))
		}
		printPlanReport(l, plan.Summary, plan.Deletes)
		return nil
	},
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the full plan as JSON")
	RootCmd.AddCommand(planCmd)
}

// printPlanReport prints a formatted plan summary and a sample of deletes.
func printPlanReport(l *zap.Logger, s reconcile.PlanSummary, deletes []reconcile.Action[listings.Listing]) {
	l.Info("Sync plan",
		zap.Int("listings", s.Listings),
		zap.Int("items", s.Items),
		zap.Int("creates", s.Creates),
		zap.Int("updates", s.Updates),
		zap.Int("deletes", s.Deletes),
	)
	if s.DuplicateListings+s.DuplicateItems+s.UnkeyedItems+s.UnkeyedListings > 0 {
		l.Warn("Data quality",
			zap.Int("duplicate_listings", s.DuplicateListings),
			zap.Int("duplicate_items", s.DuplicateItems),
			zap.Int("unkeyed_items", s.UnkeyedItems),
			zap.Int("unkeyed_listings", s.UnkeyedListings),
		)
	}

	maxShow := min(len(deletes), 5)
	if maxShow > 0 {
		l.Info("Sample deletes", zap.Strings("item_ids", reconcile.ItemIDs(deletes[:maxShow])))
	}
	if len(deletes) > maxShow {
		l.Info("Additional deletes not shown", zap.Int("count", len(deletes)-maxShow))
	}
}
