package main

import (
	"fmt"
	"net/http"
	"os"

	"keepsake/internal/config"
	"keepsake/internal/database"
	"keepsake/internal/handlers"
	"keepsake/internal/logger"
	"keepsake/internal/middleware"
	"keepsake/internal/services"
	"keepsake/internal/storage"
	"keepsake/internal/validator"
	"keepsake/internal/valuation"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "keepsake/internal/docs" // Import swagger docs
)

// @title           Keepsake API
// @version         1.0
// @description     Keepsake catalogs the items and people that matter to a user, with stories, importance scores and depreciation-based valuations.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	blobs, err := storage.New(appConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize media storage: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	entryService := services.NewEntryService(db, blobs)
	storyService := services.NewStoryService(db)
	ruleService := services.NewRuleService(db)
	valuationService := services.NewValuationService(db, valuation.NewCalculator(ruleService.Resolver()))
	mediaService := services.NewMediaService(db, blobs, appConfig.MediaMaxBytes)
	auditService := services.NewAuditService(db)

	if appConfig.SeedRules {
		n, err := ruleService.SeedDefaultRules()
		if err != nil {
			return fmt.Errorf("failed to seed depreciation rules: %w", err)
		}
		log.Infof("Seeded %d depreciation rules", n)
	}

	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if appConfig.MediaDriver == storage.DriverLocal || appConfig.MediaDriver == "" {
		router.Static(storage.LocalURLPrefix, appConfig.MediaDir)
	}

	handlers.RegisterRoutes(router.Group("/api/v1"), handlers.Handlers{
		Auth:      handlers.NewAuthHandler(userService, auditService),
		Entry:     handlers.NewEntryHandler(entryService, auditService),
		Story:     handlers.NewStoryHandler(storyService, auditService),
		Valuation: handlers.NewValuationHandler(valuationService, ruleService, auditService),
		Media:     handlers.NewMediaHandler(mediaService, auditService),
	}, appConfig.PipelineAPIKey)
	router.NoRoute(handlers.NotFound)

	if appConfig.PipelineAPIKey == "" {
		log.Warn("PIPELINE_API_KEY is not set; pipeline endpoints are disabled")
	}

	log.Infof("Starting Keepsake backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
