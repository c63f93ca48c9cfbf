package routes

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Editorhacker/Invoice/internal/config"
	handler "github.com/Editorhacker/Invoice/internal/handlers"
	"github.com/Editorhacker/Invoice/internal/middleware"
	"github.com/Editorhacker/Invoice/internal/repository"
	"github.com/Editorhacker/Invoice/internal/services/auth"
	"github.com/Editorhacker/Invoice/internal/services/billing"
	"github.com/Editorhacker/Invoice/internal/services/export"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	invoiceRepo := repository.NewInvoiceRepository(db)
	userRepo := repository.NewUserRepository(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authService := auth.NewService(userRepo, tokens, log)
	billingService := billing.NewService(invoiceRepo, log)
	exporter := export.NewExporter(log)
	renderer := export.NewRenderer()

	authHandler := handler.NewAuthHandler(authService)
	invoiceHandler := handler.NewInvoiceHandler(billingService)
	exportHandler := handler.NewExportHandler(billingService, exporter, renderer)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Open endpoints
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)

	// Session-gated API
	api := r.Group("", middleware.RequireSession(tokens))
	api.POST("/logout", authHandler.Logout)
	api.GET("/me", authHandler.Me)
	api.PUT("/profile", authHandler.UpdateProfile)

	invoices := api.Group("/invoices")
	{
		invoices.GET("", invoiceHandler.List)
		invoices.POST("", invoiceHandler.Create)
		invoices.GET("/:id", invoiceHandler.Get)
		invoices.PUT("/:id", invoiceHandler.Update)
		invoices.DELETE("/:id", invoiceHandler.Delete)
		invoices.GET("/:id/pdf", exportHandler.PDF)
		invoices.GET("/:id/preview", exportHandler.Preview)
	}

	// Gated SPA pages, served only when a built bundle is configured.
	if cfg.StaticDir != "" {
		registerPages(r, cfg.StaticDir, tokens)
	}
}

// registerPages serves the SPA shell behind the session gate: protected pages
// redirect anonymous browsers to /login, and signed-in users hitting the auth
// pages bounce to /dashboard.
func registerPages(r *gin.Engine, dir string, tokens *auth.TokenManager) {
	index := func(c *gin.Context) {
		c.File(filepath.Join(dir, "index.html"))
	}

	r.Static("/assets", filepath.Join(dir, "assets"))
	r.GET("/", index)

	open := r.Group("", middleware.RedirectAuthenticated(tokens))
	open.GET("/login", index)
	open.GET("/signup", index)

	pages := r.Group("", middleware.RequireSession(tokens))
	pages.GET("/dashboard", index)
	pages.GET("/profile", index)
	pages.GET("/invoices/new", index)
	pages.GET("/invoices/:id/edit", index)
}
