package handlers

import (
	"context"

	"GuardianAI/internal/alert"
	"GuardianAI/internal/chat"
	"GuardianAI/internal/location"
	"GuardianAI/internal/models"
	"GuardianAI/internal/reports"
	"GuardianAI/pkg/config"
	"GuardianAI/pkg/logger"
	"GuardianAI/pkg/metrics"
	"GuardianAI/pkg/middleware"
	"GuardianAI/pkg/sse"
	"GuardianAI/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RouteAnalyzer is the advisor operation behind POST /route/analyze.
type RouteAnalyzer interface {
	GetRouteSafetyAnalysis(ctx context.Context, origin, destination string, lat, lng float64) models.RouteAnalysis
}

// Deps carries everything the API serves. DB, Limiter, IdemStore and
// Metrics are optional.
type Deps struct {
	Config    config.Config
	DB        *gorm.DB
	Watcher   *location.Watcher
	Trigger   *alert.Trigger
	Contacts  []models.EmergencyContact
	Reports   *reports.Store
	Chat      *chat.Transcript
	Routes    RouteAnalyzer
	Hub       *sse.Hub
	Metrics   *metrics.Metrics
	Limiter   *middleware.RateLimiter
	IdemStore middleware.IdemStore
	WebSocket websocket.Config
	Logger    *zap.Logger
}

type Handlers struct {
	Deps
}

func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = logger.Named("api")
	}
	if deps.Config.APIPrefix == "" {
		deps.Config.APIPrefix = config.DefaultAPIPrefix
	}
	if deps.WebSocket.HeartbeatInterval == 0 {
		deps.WebSocket = websocket.DefaultConfig()
	}
	return &Handlers{Deps: deps}
}

func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(h.Config.APIPrefix)

	// Register System Module Routes
	h.registerSystemRoutes(r)

	// Register Business Module Routes
	h.registerDashboardRoutes(r)
	h.registerLocationRoutes(r)
	h.registerSOSRoutes(r)
	h.registerReportRoutes(r)
	h.registerAdvisorRoutes(r)
	h.registerEventRoutes(r)
}

// limited applies the rate limiter when one is configured.
func (h *Handlers) limited() []gin.HandlerFunc {
	if h.Limiter == nil {
		return nil
	}
	return []gin.HandlerFunc{h.Limiter.Middleware()}
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		system.POST("/rate-limiter/config", h.UpdateRateLimiterConfig)

		system.GET("/health", h.HealthCheck)
	}
}

func (h *Handlers) registerDashboardRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", h.handleDashboard)

	r.GET("/map/config", h.handleMapConfig)

	r.GET("/contacts", h.handleListContacts)

	r.GET("/stats/weekly", h.handleWeeklyStats)
}

func (h *Handlers) registerLocationRoutes(r *gin.RouterGroup) {
	loc := r.Group("location")
	{
		loc.GET("", h.handleGetLocation)

		loc.POST("", h.handleUpdateLocation)

		loc.GET("/stream", h.handleLocationStream)
	}
}

func (h *Handlers) registerSOSRoutes(r *gin.RouterGroup) {
	sos := r.Group("sos")
	{
		sos.GET("", h.handleGetSOS)

		sos.POST("/press", h.handlePressSOS)

		sos.POST("/cancel", h.handleCancelSOS)
	}
}

func (h *Handlers) registerReportRoutes(r *gin.RouterGroup) {
	group := r.Group("reports")
	{
		group.GET("", h.handleListReports)

		group.GET("/search", h.handleSearchReports)

		group.GET("/:id", h.handleGetReport)

		submit := append(h.limited(), middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{Store: h.IdemStore}), h.handleSubmitReport)
		group.POST("", submit...)
	}
}

func (h *Handlers) registerAdvisorRoutes(r *gin.RouterGroup) {
	r.GET("/chat", h.handleGetChat)

	r.POST("/chat", append(h.limited(), h.handleSendChat)...)

	r.POST("/route/analyze", append(h.limited(), h.handleAnalyzeRoute)...)
}

func (h *Handlers) registerEventRoutes(r *gin.RouterGroup) {
	r.GET("/events", h.handleEvents)

	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}
}
