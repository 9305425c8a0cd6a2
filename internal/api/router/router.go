package router

import (
	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/render-worker/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	renderHandler := handler.NewRenderHandler(deps)

	r.GET("/health", renderHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// POST /api/v1/render-jobs - Queue HTML for rendering
		v1.POST("/render-jobs", renderHandler.CreateRenderJob)

		// GET /api/v1/render-results - Page through rendered results
		v1.GET("/render-results", renderHandler.ListRenderResults)
	}

	return r
}
