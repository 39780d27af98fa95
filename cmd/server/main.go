package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"nietladen/internal/accounts"
	"nietladen/internal/auth"
	"nietladen/internal/catalog"
	"nietladen/internal/config"
	"nietladen/internal/db"
	"nietladen/internal/email"
	"nietladen/internal/guides"
	"nietladen/internal/logging"
	"nietladen/internal/metrics"
	"nietladen/internal/models"
	"nietladen/internal/recaptcha"
	"nietladen/internal/server"
	"nietladen/internal/storage"
	"nietladen/internal/store"
	"nietladen/internal/store/memstore"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	logger := logging.New(cfg.Env)
	defer func() { _ = logger.Sync() }()

	deps := server.Deps{}

	// Initialize store
	var st store.Store
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		st = memstore.New()
	default:
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		logger.Info("migrations completed successfully")
		st = database
		deps.DB = database
	}

	metrics.Init(st, logger)

	notifier, err := email.NewNotifier(cfg, logger)
	if err != nil {
		logger.Fatal("failed to load e-mail templates", zap.Error(err))
	}
	if !cfg.IsEmailEnabled() {
		logger.Info("e-mail notifications disabled; set SMTP_ENABLED, SMTP_HOST and SMTP_FROM to enable")
	}

	var opts []guides.Option
	if cfg.RecaptchaSecretKey != "" {
		opts = append(opts, guides.WithVerifier(
			recaptcha.New(cfg.RecaptchaSecretKey, cfg.RecaptchaMinScore, cfg.RecaptchaVerifyURL, logger),
		))
	}

	if cfg.IsObjectStorageEnabled() {
		objects, err := storage.NewMinioStore(ctx, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL)
		if err != nil {
			logger.Fatal("failed to initialize object storage", zap.Error(err))
		}
		publicURL := cfg.S3PublicURL
		if publicURL == "" {
			publicURL = storage.PublicBaseURL(cfg.S3Endpoint, cfg.S3Bucket, cfg.S3UseSSL)
		}
		images := storage.NewImages(objects, publicURL, int64(cfg.MaxUploadMB)<<20, logger)
		opts = append(opts, guides.WithImageRemover(images))
		deps.Images = images
		logger.Info("image uploads enabled", zap.String("bucket", cfg.S3Bucket))
	}

	deps.Accounts = accounts.New(st, logger)
	deps.Catalog = catalog.New(st, logger)
	deps.Guides = guides.New(st, notifier, logger, opts...)
	deps.Tokens = auth.NewTokenIssuer(cfg.SessionSecret, cfg.TokenTTL)

	if err := seed(ctx, cfg.SeedFile, deps, logger); err != nil {
		logger.Fatal("failed to apply seed file", zap.Error(err))
	}

	srv := server.New(cfg, logger)
	if err := srv.RegisterRoutes(ctx, deps); err != nil {
		logger.Fatal("failed to register routes", zap.Error(err))
	}

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	if err := srv.Shutdown(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

// seed creates missing accounts and catalog entries from the seed file.
// Re-running it against a populated store changes nothing.
func seed(ctx context.Context, path string, deps server.Deps, logger *zap.Logger) error {
	seedCfg, err := config.LoadSeedConfig(path)
	if err != nil {
		return err
	}
	if seedCfg == nil {
		return nil
	}

	for _, u := range seedCfg.Users {
		roles := make([]models.Role, 0, len(u.Roles))
		for _, r := range u.Roles {
			roles = append(roles, models.Role(r))
		}
		user, created, err := deps.Accounts.Ensure(ctx, accounts.CreateInput{
			Email:    u.Email,
			Name:     u.Name,
			Password: u.Password,
			Roles:    roles,
		})
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		if created {
			logger.Info("seeded user", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
		}
	}

	if data := seedCfg.ImportText(); data != "" {
		system := models.Caller{Roles: []models.Role{models.RoleCatalogManager}}
		res, err := deps.Catalog.Import(ctx, system, data)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		logger.Info("seeded catalog",
			zap.Int("brands", res.ImportedBrands),
			zap.Int("models", res.ImportedModels),
		)
	}
	return nil
}
