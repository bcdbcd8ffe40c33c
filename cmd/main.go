package main

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"rental-service/internal/billing"
	"rental-service/internal/handler"
	mid "rental-service/internal/middleware"
	"rental-service/pkg/config"
	"rental-service/pkg/database"
	"rental-service/pkg/jwtutil"
	"rental-service/pkg/logger"
	"rental-service/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load("rental-service")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting rental-service", appConfig.LogConfig()...)

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire the billing core
	db := database.GetDB()
	audit := billing.NewZapAuditRecorder()
	companyService := billing.NewCompanyService(db, audit)
	propertyService := billing.NewPropertyService(db, audit)
	occupancyService := billing.NewOccupancyService(db, audit)
	invoiceService := billing.NewInvoiceService(db, audit)
	paymentService := billing.NewPaymentService(db, audit)

	companyHandler := handler.NewCompanyHandler(companyService)
	propertyHandler := handler.NewPropertyHandler(propertyService)
	occupancyHandler := handler.NewOccupancyHandler(occupancyService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, appConfig.Billing.DefaultDueDay)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Health check endpoint
	e.GET("/health", handler.Health)

	// Company API routes
	companyAPI := e.Group("/api/company", mid.AuthMiddleware)
	companyAPI.GET("", companyHandler.Get)
	companyAPI.PUT("/currency", companyHandler.UpdateCurrency)
	companyAPI.GET("/currencies", companyHandler.ListCurrencies)

	// Property API routes
	propertyAPI := e.Group("/api", mid.AuthMiddleware)
	propertyAPI.POST("/compounds", propertyHandler.CreateCompound)
	propertyAPI.POST("/apartments", propertyHandler.CreateApartment)
	propertyAPI.GET("/apartments", propertyHandler.ListApartments)
	propertyAPI.PUT("/apartments/:id/status", propertyHandler.SetApartmentStatus)
	propertyAPI.DELETE("/apartments/:id", propertyHandler.DeleteApartment)
	propertyAPI.POST("/apartments/:id/restore", propertyHandler.RestoreApartment)
	propertyAPI.POST("/tenants", propertyHandler.CreateTenant)
	propertyAPI.PUT("/tenants/:id/status", propertyHandler.SetTenantStatus)

	// Occupancy API routes
	occupancyAPI := e.Group("/api/occupancies", mid.AuthMiddleware)
	occupancyAPI.POST("", occupancyHandler.Create)
	occupancyAPI.GET("/expiring", occupancyHandler.ListExpiring)
	occupancyAPI.GET("/:id", occupancyHandler.Get)
	occupancyAPI.POST("/:id/activate", occupancyHandler.Activate)
	occupancyAPI.POST("/:id/end", occupancyHandler.End)
	occupancyAPI.POST("/:id/cancel", occupancyHandler.Cancel)

	// Invoice API routes
	invoiceAPI := e.Group("/api/invoices", mid.AuthMiddleware)
	invoiceAPI.POST("", invoiceHandler.CreateDraft)
	invoiceAPI.POST("/generate-monthly", invoiceHandler.GenerateMonthly)
	invoiceAPI.POST("/recompute-overdue", paymentHandler.RecomputeOverdue)
	invoiceAPI.GET("/due-soon", invoiceHandler.ListDueSoon)
	invoiceAPI.GET("/:id", invoiceHandler.Get)
	invoiceAPI.POST("/:id/send", invoiceHandler.Send)
	invoiceAPI.POST("/:id/cancel", invoiceHandler.Cancel)
	invoiceAPI.DELETE("/:id", invoiceHandler.Delete)
	invoiceAPI.POST("/:id/payments", paymentHandler.Apply)
	invoiceAPI.GET("/:id/payments", paymentHandler.ListForInvoice)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
