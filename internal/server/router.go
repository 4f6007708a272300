package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/fitlio/coach-backend/internal/handlers"
	"github.com/fitlio/coach-backend/internal/middleware"
	"github.com/fitlio/coach-backend/internal/utils"
)

type RouterConfig struct {
	AuthMiddleware  *middleware.AuthMiddleware
	CoachHandler    *handlers.CoachHandler
	RealtimeHandler *handlers.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", nil)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(origins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Coach-ID"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware("fitlio-coach"))

	// Public
	router.GET("/healthz", handlers.HealthCheck)

	// Protected
	protected := router.Group("/v1")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/coach/events", cfg.CoachHandler.HandleEvent)
	protected.POST("/coach/name", cfg.CoachHandler.SetName)
	protected.GET("/coach/catalog", cfg.CoachHandler.ListCoaches)
	protected.GET("/coach/stream", cfg.RealtimeHandler.Stream)

	return router
}
