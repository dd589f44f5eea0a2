package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/assetshare/backend/internal/config"
	"github.com/assetshare/backend/internal/handlers"
	"github.com/assetshare/backend/internal/middleware"
	"github.com/assetshare/backend/internal/services"
	"github.com/assetshare/backend/internal/storage"
	"github.com/assetshare/backend/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
)

// Multipart framing on top of the largest allowed file.
const bodyLimitSlack = 1 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	authService := services.NewAuthService(db)
	accessService := services.NewAccessService(db)
	assetService := services.NewAssetService(db, store, accessService, authService)
	uploadService := services.NewUploadService(db, store, services.LimitsFromConfig(cfg.Upload))
	paymentService := services.NewPaymentService(db, cfg.Payment)

	if cfg.Sweep.Enabled {
		sweeper := services.NewSweeper(db, store, cfg.Sweep.MinAge)
		scheduler, err := sweeper.Schedule(cfg.Sweep.Schedule)
		if err != nil {
			return err
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	app := fiber.New(fiber.Config{
		BodyLimit:         int(cfg.Upload.MaxFileSize + bodyLimitSlack),
		StreamRequestBody: true,
	})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.CORSOrigins))
	app.Use(middleware.Metrics())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	router := &handlers.Router{
		Auth:    middleware.NewAuthMiddleware(authService),
		Users:   handlers.NewUsersHandler(authService),
		Assets:  handlers.NewAssetsHandler(assetService, uploadService),
		Payment: handlers.NewPaymentHandler(paymentService),
	}
	router.Register(app)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":           cfg.Server.Port,
		"address":        listenAddr,
		"storage_driver": cfg.Storage.Driver,
		"db_driver":      cfg.DB.Driver,
		"sweep_enabled":  cfg.Sweep.Enabled,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("server_shutting_down", map[string]interface{}{
			"signal": sig.String(),
		})
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Warn("forced_shutdown", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
