// Package api wires the HTTP surface of the support assistant.
package api

import (
	"log/slog"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/welldanyogia/webrana-support-assistant/internal/api/handlers"
	"github.com/welldanyogia/webrana-support-assistant/internal/api/middleware"
	"github.com/welldanyogia/webrana-support-assistant/internal/logger"
	"github.com/welldanyogia/webrana-support-assistant/internal/websocket"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	Messages  handlers.SupportService
	Knowledge handlers.KnowledgeService
	// Scheduler is nil when polling is disabled
	Scheduler handlers.SchedulerControl
	Database  handlers.Pinger
	// Hub is optional; without it /api/v1/ws is not registered
	Hub      *websocket.Hub
	Upgrader gorillaws.Upgrader
	Logger   *slog.Logger

	// Security configuration
	APIKey         string // empty disables authentication
	AllowedOrigins []string
	Production     bool
	RateLimiter    *middleware.IPRateLimiter // nil disables rate limiting
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	security := logger.NewSecurityLogger(log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// order matters: recover first, logging last so it sees final statuses
	e.Use(middleware.Recover())
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins, cfg.Production))
	if cfg.RateLimiter != nil {
		e.Use(middleware.RateLimiter(cfg.RateLimiter, security))
	}
	e.Use(middleware.RequestLogger(log))

	healthHandler := handlers.NewHealthHandler(cfg.Database, cfg.Scheduler)
	ingestHandler := handlers.NewIngestHandler(cfg.Messages, cfg.Scheduler)
	messageHandler := handlers.NewMessageHandler(cfg.Messages)
	knowledgeHandler := handlers.NewKnowledgeHandler(cfg.Knowledge)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	api := e.Group("/api/v1")
	api.Use(middleware.APIKeyAuth(cfg.APIKey, security))

	// Ingestion
	ingest := api.Group("/ingest")
	ingest.POST("/run", ingestHandler.Run)
	ingest.POST("/trigger", ingestHandler.Trigger)
	ingest.GET("/status", ingestHandler.Status)

	// Messages
	messages := api.Group("/messages")
	messages.GET("", messageHandler.List)
	messages.GET("/pending", messageHandler.Pending)
	messages.PATCH("/status", messageHandler.BulkStatus)
	messages.GET("/:id", messageHandler.Get)
	messages.PUT("/:id/draft", messageHandler.UpdateDraft)
	messages.POST("/:id/send", messageHandler.Send)
	messages.PUT("/:id/resolve", messageHandler.Resolve)

	// Knowledge base
	knowledge := api.Group("/knowledge")
	knowledge.POST("", knowledgeHandler.Create)
	knowledge.GET("", knowledgeHandler.List)
	knowledge.GET("/:id", knowledgeHandler.Get)
	knowledge.PUT("/:id", knowledgeHandler.Update)
	knowledge.DELETE("/:id", knowledgeHandler.Delete)

	// Live events
	if cfg.Hub != nil {
		wsHandler := handlers.NewWSHandler(cfg.Hub, cfg.Upgrader, log)
		api.GET("/ws", wsHandler.Connect)
	}

	return e
}
