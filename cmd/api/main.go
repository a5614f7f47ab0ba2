package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"blackkeyx_backend/internal/controller"
	"blackkeyx_backend/internal/middleware"
	"blackkeyx_backend/internal/repository"
	"blackkeyx_backend/internal/service"
	"blackkeyx_backend/pkg/config"
	"blackkeyx_backend/pkg/cron"
	"blackkeyx_backend/pkg/database"
	"blackkeyx_backend/pkg/email"
	"blackkeyx_backend/pkg/seed"
	"blackkeyx_backend/pkg/utils/jwt"
	"blackkeyx_backend/pkg/utils/storage"
	"blackkeyx_backend/pkg/utils/validation"
)

const shutdownTimeout = 10 * time.Second

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	rootCmd := &cobra.Command{
		Use:          "blackkeyx",
		Short:        "BlackKeyX investor pipeline API",
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE:  runServe,
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			slog.Info("Migration complete")
			return closeDatabase(db)
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo deals into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDatabase()
			if err != nil {
				return err
			}
			defer closeDatabase(db)

			n, err := seed.SeedDeals(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("seed deals: %w", err)
			}
			slog.Info("Seed complete", slog.Int("deals", n))
			return nil
		},
	}
}

// openDatabase loads config, connects and migrates.
func openDatabase() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	if err := database.Migrate(db); err != nil {
		closeDatabase(db)
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return cfg, db, nil
}

func closeDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newBlobStore(ctx context.Context, cfg config.StorageConfig) (storage.BlobStore, error) {
	if cfg.AccessKeyID == "" {
		slog.Warn("AWS credentials not set, storing documents in memory")
		return storage.NewMemoryStore(), nil
	}
	return storage.NewS3Store(ctx, cfg)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("could not initialize storage: %w", err)
	}

	mailer, err := email.NewEmailService(cfg.Email, cfg.Admin)
	if err != nil {
		return fmt.Errorf("could not initialize email service: %w", err)
	}

	// Keep the interfaces nil when email is off.
	var (
		notifier service.LeadNotifier
		digest   cron.DigestSender
	)
	if mailer != nil {
		notifier = mailer
		digest = mailer
	} else {
		slog.Warn("Email not configured, notifications disabled")
	}

	leads := repository.NewInvestorRepository(db)
	deals := repository.NewPropertyRepository(db)
	documents := service.NewDocumentService(deals, blobs, service.NewOpenAIExtractor(cfg.OpenAI, ""))

	scheduler, err := cron.NewJobs(leads, deals, documents, digest).Start(cfg.Cron)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	issuer := jwt.NewIssuer(cfg.Admin.JWTSecret)

	app := fiber.New(fiber.Config{
		ErrorHandler: controller.ErrorHandler,
		BodyLimit:    validation.MaxDocumentSize + 1<<20,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins(),
		AllowCredentials: true,
	}))
	app.Use(middleware.Deadline(cfg.Server.RequestTimeout))

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy"})
		}
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	controller.SetupRoutes(app, controller.Controllers{
		Auth:       controller.NewAuthController(cfg.Admin.PasswordHash, issuer),
		Leads:      controller.NewLeadController(service.NewLeadIntakeService(db, notifier)),
		Admin:      controller.NewAdminController(leads),
		Stats:      controller.NewStatsController(leads, deals),
		Properties: controller.NewPropertyController(deals, documents, blobs),
	}, issuer)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server is running", slog.String("port", cfg.Server.Port))
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	}
}
