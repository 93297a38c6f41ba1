package handlers

import (
	"github.com/gin-gonic/gin"

	"keepsake/internal/middleware"
)

// Handlers groups the API handlers mounted by RegisterRoutes.
type Handlers struct {
	Auth      *AuthHandler
	Entry     *EntryHandler
	Story     *StoryHandler
	Valuation *ValuationHandler
	Media     *MediaHandler
}

// RegisterRoutes mounts the API under v1. Pipeline routes require
// pipelineKey in X-API-Key; everything else except auth requires a bearer
// token.
func RegisterRoutes(v1 *gin.RouterGroup, h Handlers, pipelineKey string) {
	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(pipelineKey))
	pipeline.POST("/valuations", h.Valuation.RevalueAll)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", h.Auth.GetProfile)
	protected.PUT("/profile", h.Auth.UpdatePreferences)

	entries := protected.Group("/entries")
	entries.POST("", h.Entry.CreateEntry)
	entries.GET("", h.Entry.ListEntries)
	entries.GET("/by-importance", h.Entry.ListByImportance)
	entries.GET("/recent", h.Entry.ListRecent)
	entries.GET("/statistics", h.Entry.GetStatistics)
	entries.GET("/:id", h.Entry.GetEntry)
	entries.PUT("/:id", h.Entry.UpdateEntry)
	entries.PATCH("/:id", h.Entry.UpdateEntry)
	entries.DELETE("/:id", h.Entry.DeleteEntry)
	entries.PUT("/:id/story-content", h.Entry.UpdateStoryContent)

	entries.GET("/:id/story", h.Story.GetStory)
	entries.PUT("/:id/story", h.Story.UpdateStory)
	entries.GET("/:id/story/versions", h.Story.ListVersions)
	entries.GET("/:id/story/versions/:version", h.Story.GetVersion)
	entries.POST("/:id/story/versions/:version/restore", h.Story.RestoreVersion)

	entries.POST("/:id/valuations", h.Valuation.CalculateValuation)
	entries.GET("/:id/valuations", h.Valuation.GetValuationHistory)
	entries.GET("/:id/valuations/latest", h.Valuation.GetLatestValuation)

	entries.POST("/:id/media", h.Media.UploadMedia)
	entries.GET("/:id/media", h.Media.ListMedia)
	entries.DELETE("/:id/media/:mediaId", h.Media.DeleteMedia)
	entries.PUT("/:id/media/:mediaId/primary", h.Media.SetPrimaryMedia)

	rules := protected.Group("/depreciation-rules")
	rules.GET("", h.Valuation.ListRules)
	rules.GET("/resolve", h.Valuation.ResolveRule)
}
