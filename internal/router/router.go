package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"payreview/internal/config"
	"payreview/internal/handler"
	"payreview/internal/middleware"
	"payreview/internal/service"

	_ "payreview/docs" // registers the OpenAPI spec
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	authSvc service.AuthService,
	reviewH *handler.ReviewHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	if cfg.Server.Environment != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc))

	reviews := protected.Group("/reviews")
	reviews.POST("", reviewH.Create)
	reviews.GET("/:id", reviewH.Get)
	reviews.PUT("/:id/skonto", reviewH.UpdateSkonto)
	reviews.POST("/:id/pay", reviewH.Pay)
	reviews.POST("/:id/cancel", reviewH.Cancel)
	reviews.GET("/:id/feedback", reviewH.Feedback)
	reviews.GET("/:id/export", reviewH.Export)

	// Line items, addressed by ref
	items := reviews.Group("/:id/line-items")
	items.POST("", reviewH.AddLineItem)
	items.PUT("/:itemId", reviewH.UpdateLineItem)
	items.DELETE("/:itemId", reviewH.RemoveLineItem)
	items.POST("/:itemId/select", reviewH.SelectLineItem)
	items.POST("/:itemId/deselect", reviewH.DeselectLineItem)

	return r
}
