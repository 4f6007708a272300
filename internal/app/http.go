package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fitlio/coach-backend/internal/handlers"
	"github.com/fitlio/coach-backend/internal/middleware"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
	"github.com/fitlio/coach-backend/internal/realtime"
	"github.com/fitlio/coach-backend/internal/server"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

type Handlers struct {
	Coach    *handlers.CoachHandler
	Realtime *handlers.RealtimeHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Coach:    handlers.NewCoachHandler(log, serviceset.Turns, serviceset.Names, serviceset.Catalog),
		Realtime: handlers.NewRealtimeHandler(log, hub),
	}
}

func wireMiddleware(log *logger.Logger, db *gorm.DB, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, db, cfg.JWTSecretKey),
	}
}

func wireRouter(handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:  middlewareset.Auth,
		CoachHandler:    handlerset.Coach,
		RealtimeHandler: handlerset.Realtime,
	})
}
