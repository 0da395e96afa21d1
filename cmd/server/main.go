package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"estate_backoffice/internal/handlers"
	appMiddleware "estate_backoffice/internal/middleware"
	"estate_backoffice/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Admin endpoints will reject requests until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize Redis (optional; stats caching and release locks degrade
	// gracefully without it)
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
			cache = nil
		}
	} else {
		log.Println("Warning: REDIS_URL not set, caching disabled")
	}

	// Payment provider
	paystack := services.NewPaystackService()
	webhookSecret := os.Getenv("PAYSTACK_SECRET_KEY")

	// Engine services
	commissionService := services.NewCommissionService()
	invoiceService := services.NewInvoiceService(db, commissionService)
	configService := services.NewDisbursementConfigService(db)
	disbursementService := services.NewDisbursementService(db, cache, paystack)
	paymentService := services.NewPaymentService(db, paystack, invoiceService, configService, disbursementService, webhookSecret)
	enrollmentService := services.NewEnrollmentService(db)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Initialize handlers
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService)
	invoiceHandler := handlers.NewInvoiceHandler(paymentService, invoiceService)
	webhookHandler := handlers.NewWebhookHandler(paymentService)
	publicHandler := handlers.NewPublicHandler(paymentService)
	disbursementHandler := handlers.NewDisbursementHandler(disbursementService, configService, cache)

	// Provider notifications
	e.POST("/webhooks/paystack", webhookHandler.HandlePaystack)

	// Public payment link routes
	e.GET("/p/:token", publicHandler.ShowLink)
	e.POST("/p/:token/checkout", publicHandler.Checkout)
	e.GET("/p/:token/status", publicHandler.CheckStatus)

	// Admin API
	api := e.Group("/api")
	api.Use(appMiddleware.RequireAuth(authClient))

	api.GET("/enrollments", enrollmentHandler.List)
	api.POST("/enrollments", enrollmentHandler.Create)
	api.GET("/enrollments/:id", enrollmentHandler.Get)

	api.POST("/invoices/:id/resolve", invoiceHandler.Resolve)
	api.POST("/invoices/:id/undo", invoiceHandler.Undo)
	api.POST("/invoices/:id/checkout", invoiceHandler.Checkout)

	api.POST("/disbursements", disbursementHandler.Create)
	api.POST("/disbursements/bulk", disbursementHandler.CreateBulk)
	api.POST("/disbursements/:id/release", disbursementHandler.Release)
	api.GET("/disbursements/stats", disbursementHandler.Stats)

	api.GET("/disbursement-config", disbursementHandler.GetConfig)
	api.PUT("/disbursement-config/mode", disbursementHandler.SetConfigMode)
	api.POST("/disbursement-config/exceptions", disbursementHandler.AddException)
	api.DELETE("/disbursement-config/exceptions", disbursementHandler.RemoveException)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
