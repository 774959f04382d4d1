package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"listing-sync/core/loader"
	"listing-sync/core/logger"
	"listing-sync/core/middleware/auth"
	"listing-sync/core/middleware/rayid"
	syncFeature "listing-sync/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "listing-sync/docs/swagger"
)

// @title Listing Sync API
// @version 1.0
// @description Reconciles CREA DDF listings into a Webflow CMS collection.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync server and scheduler",
	Long:  `Starts the HTTP server, registers the sync API and fires scheduled runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Configuration and Logger
		cfg, logg, err := bootstrap()
		if err != nil {
			return err
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 2. Wire the sync pipeline
		svc, err := newService(ctx, cfg, logg)
		if err != nil {
			return err
		}
		defer svc.Close()

		// 3. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 4. Initialize Feature Loader
		mgr := loader.NewManager(logg)
		mgr.Register(syncFeature.NewFeature(ctx, svc.runner, svc.runLister(), logg))

		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Public routes
		app.Get("/", handleHealth)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// Everything below requires the API key
		app.Use(auth.New(cfg.Server.ApiKey))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		// 5. Scheduler
		var scheduler *syncFeature.Scheduler
		if cfg.Sync.Enabled {
			scheduler, err = syncFeature.NewScheduler(ctx, cfg.Sync, svc.runner, logg)
			if err != nil {
				return err
			}
			scheduler.Start()
		} else {
			logg.Info("Scheduler disabled")
		}

		// 6. Start Server
		serverErr := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("addr", cfg.Server.Addr()))
			serverErr <- app.Listen(cfg.Server.Addr())
		}()

		// 7. Graceful Shutdown
		select {
		case err := <-serverErr:
			if err != nil {
				logg.Error("Server failed", zap.Error(err))
				return err
			}
		case <-ctx.Done():
		}

		logg.Info("Shutting down server...")
		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		return app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout)
	},
}

// handleHealth reports liveness.
// @Summary Health Check
// @Description Liveness probe. Not protected by the API key.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router / [get]
func handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func init() {
	RootCmd.AddCommand(startCmd)
}
