package server

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nietladen/internal/accounts"
	"nietladen/internal/auth"
	"nietladen/internal/catalog"
	"nietladen/internal/guides"
	"nietladen/internal/handlers/api"
	"nietladen/internal/middleware"
	"nietladen/internal/models"
)

// Deps are the services the routes dispatch to.
type Deps struct {
	Catalog  *catalog.Service
	Guides   *guides.Service
	Accounts *accounts.Service
	Tokens   *auth.TokenIssuer
	Images   api.ImageUploader // nil disables uploads
	DB       api.Pinger        // nil for the in-memory store
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, d Deps) error {
	authMiddleware := middleware.NewAuthMiddleware(d.Accounts, d.Tokens, s.logger)

	publicHandler := api.NewPublicHandler(d.Catalog, d.Guides, d.Images, s.logger)
	moderationHandler := api.NewModerationHandler(d.Guides, s.logger)
	catalogHandler := api.NewCatalogHandler(d.Catalog, s.logger)
	userHandler := api.NewUserHandler(d.Accounts, s.logger)
	healthHandler := api.NewHealthHandler(d.DB, s.logger)
	authHandler := api.NewAuthHandler(d.Accounts, d.Tokens, s.logger)

	if s.Cfg.IsOIDCEnabled() {
		if err := authHandler.EnableOIDC(ctx, s.Cfg); err != nil {
			return err
		}
		s.logger.Info("OIDC login enabled", zap.String("issuer", s.Cfg.OIDCIssuer))
	}

	// Operational endpoints
	s.App.Get("/healthz", healthHandler.Check)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Auth routes
	authGroup := s.App.Group("/auth", authMiddleware.Identify)
	authGroup.Post("/login", s.limiter, authHandler.Login)
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Get("/session", authHandler.Session)
	authGroup.Post("/token", s.limiter, authHandler.Token)
	authGroup.Get("/oidc/login", authHandler.OIDCLogin)
	authGroup.Get("/oidc/callback", authHandler.OIDCCallback)

	apiGroup := s.App.Group("/api", authMiddleware.Identify)

	// Public routes
	apiGroup.Get("/brands", publicHandler.ListBrands)
	apiGroup.Get("/brands/:slug/models", publicHandler.ListModels)
	apiGroup.Get("/brands/:slug/models/:modelSlug/guides", publicHandler.ModelGuides)
	apiGroup.Get("/guides/:id/public", publicHandler.Guide)
	apiGroup.Post("/submit-guide", s.limiter, publicHandler.SubmitGuide)
	apiGroup.Post("/feedback", s.limiter, publicHandler.Feedback)
	apiGroup.Post("/upload", s.limiter, publicHandler.Upload)

	// Moderation routes (moderators only)
	mod := middleware.RequireRole(models.RoleModerator)
	apiGroup.Get("/guides", mod, moderationHandler.ListPending)
	apiGroup.Get("/guides/:id/details", mod, moderationHandler.Details)
	apiGroup.Post("/guides/:id/approve", mod, moderationHandler.Approve)
	apiGroup.Post("/guides/:id/reject", mod, moderationHandler.Reject)

	admin := apiGroup.Group("/admin")
	admin.Get("/guides", mod, moderationHandler.ListByStatus)
	admin.Put("/guides/:id/status", mod, moderationHandler.SetStatus)
	admin.Put("/guides/:id/edit", mod, moderationHandler.Edit)
	admin.Delete("/guides/:id", mod, moderationHandler.Delete)

	// Catalog routes (catalog managers only)
	cm := middleware.RequireRole(models.RoleCatalogManager)
	admin.Get("/brands", cm, catalogHandler.ListBrands)
	admin.Post("/brands", cm, catalogHandler.CreateBrand)
	admin.Post("/brands/import", cm, catalogHandler.Import)
	admin.Put("/brands/:id", cm, catalogHandler.UpdateBrand)
	admin.Delete("/brands/:id", cm, catalogHandler.DeleteBrand)
	admin.Post("/brands/:id/approve", cm, catalogHandler.ApproveBrand)
	admin.Get("/brands/:id/models", cm, catalogHandler.ListModels)
	admin.Post("/brands/:id/models", cm, catalogHandler.CreateModel)
	admin.Get("/models/:id", cm, catalogHandler.GetModel)
	admin.Put("/models/:id", cm, catalogHandler.UpdateModel)
	admin.Delete("/models/:id", cm, catalogHandler.DeleteModel)
	admin.Post("/models/:id/approve", cm, catalogHandler.ApproveModel)

	// Admin routes (user admins only)
	ua := middleware.RequireRole(models.RoleUserAdmin)
	admin.Get("/users", ua, userHandler.List)
	admin.Post("/users", ua, userHandler.Create)
	admin.Put("/users/:id/roles", ua, userHandler.UpdateRoles)
	admin.Delete("/users/:id", ua, userHandler.Delete)

	// Any signed-in user
	admin.Post("/change-password", middleware.RequireAuth, userHandler.ChangePassword)

	// Unknown routes
	s.App.Use(func(c fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "not found")
	})

	return nil
}
