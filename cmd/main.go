package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"product-importer-service/internal/config"
	"product-importer-service/internal/events"
	"product-importer-service/internal/handlers"
	"product-importer-service/internal/importer"
	"product-importer-service/internal/middleware"
	"product-importer-service/internal/repository"
)

// @title Product Importer API
// @version 1.0.0
// @description Product catalog service with asynchronous CSV import, case-insensitive SKU upsert and webhook notifications

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Ensure the upload directory exists before any import starts
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("Failed to create upload directory:", err)
	}

	// Initialize repositories
	productsRepo := repository.NewProductsRepository(db, redisClient)
	jobsRepo := repository.NewImportJobsRepository(db)
	webhooksRepo := repository.NewWebhooksRepository(db)

	// Initialize webhook dispatcher and import worker
	dispatcher := events.NewDispatcher(webhooksRepo, cfg.WebhookTimeout, logger)
	worker := importer.NewWorker(productsRepo, jobsRepo, dispatcher, cfg.ImportBatchSize, logger)

	// Initialize handlers
	productsHandler := handlers.NewProductsHandler(productsRepo, dispatcher, cfg.DefaultPageSize, cfg.MaxPageSize)
	importHandler := handlers.NewImportHandler(jobsRepo, worker, cfg.UploadDir, cfg.MaxUploadSize)
	webhooksHandler := handlers.NewWebhooksHandler(webhooksRepo, dispatcher)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)

	// API routes
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", productsHandler.GetProducts)
			products.GET("/:id", productsHandler.GetProduct)
			products.POST("", productsHandler.CreateProduct)
			products.PUT("/:id", productsHandler.UpdateProduct)
			products.DELETE("/:id", productsHandler.DeleteProduct)
			products.DELETE("", productsHandler.BulkDeleteProducts)
		}

		importGroup := v1.Group("/import")
		{
			importGroup.POST("", importHandler.UploadCSV)
			importGroup.GET("/template", importHandler.GetImportTemplate)
			importGroup.GET("/:job_id", importHandler.GetImportStatus)
			importGroup.GET("/:job_id/stream", importHandler.StreamImportProgress)
		}

		webhooks := v1.Group("/webhooks")
		{
			webhooks.GET("", webhooksHandler.GetWebhooks)
			webhooks.POST("", webhooksHandler.CreateWebhook)
			webhooks.GET("/:id", webhooksHandler.GetWebhook)
			webhooks.PUT("/:id", webhooksHandler.UpdateWebhook)
			webhooks.DELETE("/:id", webhooksHandler.DeleteWebhook)
			webhooks.POST("/:id/test", webhooksHandler.TestWebhook)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Product importer service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down product-importer-service...")
	log.Println("Product importer service stopped")
}
