package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/alairock/kash-money/internal/api/handlers"
	"github.com/alairock/kash-money/internal/api/middleware"
	"github.com/alairock/kash-money/internal/config"
	"github.com/alairock/kash-money/internal/services"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient *asynq.Client, configSvc services.IConfigService) *gin.Engine {
	// Initialize services needed by API handlers HERE
	userService := services.NewUserService(db)
	limitService := services.NewLimitService(db, cfg, configSvc, userService)
	recurringService := services.NewRecurringService(db, limitService)
	budgetService := services.NewBudgetService(db, limitService, recurringService)
	clientService := services.NewClientService(db, limitService)
	numberService := services.NewInvoiceNumberService(db)
	invoiceService := services.NewInvoiceService(db, cfg, limitService, clientService, numberService)
	settingsService := services.NewSettingsService(db)
	adminService := services.NewAdminService(db, cfg, userService, limitService)

	r := gin.Default()

	// Initialize Middleware
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Apply global middleware first (order matters)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg, userService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	recurringHandler := handlers.NewRecurringHandler(recurringService)
	clientHandler := handlers.NewClientHandler(clientService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, clientService, settingsService, taskClient)
	settingsHandler := handlers.NewSettingsHandler(settingsService, limitService, numberService)
	adminHandler := handlers.NewAdminHandler(adminService, configSvc)

	v1 := r.Group("/v1")
	{
		// Public routes (rate limiting already applied globally)
		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/login", authHandler.Login)

		// Everything below requires a resolved identity.
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authed.GET("/budgets", budgetHandler.List)
			authed.POST("/budgets", budgetHandler.Create)
			authed.GET("/budgets/:id", budgetHandler.Get)
			authed.PUT("/budgets/:id", budgetHandler.Update)
			authed.DELETE("/budgets/:id", budgetHandler.Delete)
			authed.POST("/budgets/:id/items", budgetHandler.AddLineItem)
			authed.PUT("/budgets/:id/items/:itemId", budgetHandler.UpdateLineItem)
			authed.DELETE("/budgets/:id/items/:itemId", budgetHandler.RemoveLineItem)

			authed.GET("/recurring", recurringHandler.List)
			authed.POST("/recurring", recurringHandler.Create)
			authed.PUT("/recurring/reorder", recurringHandler.Reorder)
			authed.PUT("/recurring/:id", recurringHandler.Update)
			authed.DELETE("/recurring/:id", recurringHandler.Delete)

			authed.GET("/clients", clientHandler.List)
			authed.POST("/clients", clientHandler.Create)
			authed.GET("/clients/:id", clientHandler.Get)
			authed.PUT("/clients/:id", clientHandler.Update)
			authed.DELETE("/clients/:id", clientHandler.Delete)

			authed.GET("/invoices", invoiceHandler.List)
			authed.POST("/invoices", invoiceHandler.Create)
			authed.GET("/invoices/:id", invoiceHandler.Get)
			authed.PUT("/invoices/:id", invoiceHandler.Update)
			authed.PUT("/invoices/:id/status", invoiceHandler.SetStatus)
			authed.POST("/invoices/:id/send", invoiceHandler.Send)
			authed.GET("/invoices/:id/pdf", invoiceHandler.Pdf)
			authed.DELETE("/invoices/:id", invoiceHandler.Delete)

			authed.GET("/settings/company", settingsHandler.GetCompany)
			authed.PUT("/settings/company", settingsHandler.PutCompany)
			authed.GET("/settings/limits", settingsHandler.GetLimits)
			authed.GET("/settings/invoice-counter", settingsHandler.GetCounter)
			authed.PUT("/settings/invoice-counter", settingsHandler.PutCounter)

			// Single callable admin endpoint behind the allow-list.
			admin := authed.Group("/admin")
			admin.Use(middleware.AdminMiddleware(adminService))
			admin.POST("/api", adminHandler.Call)
		}
	}

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})

	return r
}
