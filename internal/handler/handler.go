package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mealtrack/internal/auth"
	"mealtrack/internal/httpmiddleware"
	"mealtrack/internal/importer"
	"mealtrack/internal/meals"
)

// HealthChecker reports whether an optional dependency such as Redis answers.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// Deps are the collaborators the HTTP layer needs. Jobs and Redis may be nil.
type Deps struct {
	Service        *meals.Service
	Gate           *auth.Gate
	Jobs           *importer.Jobs
	Redis          HealthChecker
	Limiter        *httpmiddleware.TokenBucket
	MaxUploadBytes int64
	Log            *slog.Logger
}

type Handler struct {
	svc       *meals.Service
	gate      *auth.Gate
	jobs      *importer.Jobs
	redis     HealthChecker
	limiter   *httpmiddleware.TokenBucket
	maxUpload int64
	log       *slog.Logger
}

func New(d Deps) *Handler {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		svc:       d.Service,
		gate:      d.Gate,
		jobs:      d.Jobs,
		redis:     d.Redis,
		limiter:   d.Limiter,
		maxUpload: d.MaxUploadBytes,
		log:       d.Log,
	}
}

func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(httpmiddleware.SecurityHeaders())
	if h.limiter != nil {
		r.Use(h.limiter.Middleware())
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.handleHealth)

	v1 := r.Group("/v1")
	v1.POST("/auth/admin", h.handleAdminLogin)
	v1.POST("/auth/participant", h.handleParticipantLogin)
	v1.POST("/auth/logout", auth.RequireRole(h.gate), h.handleLogout)

	me := v1.Group("/me", auth.RequireRole(h.gate, auth.RoleParticipant))
	me.GET("", h.handleMe)
	me.GET("/qr", h.handleMyQR)

	admin := v1.Group("/admin", auth.RequireRole(h.gate, auth.RoleAdmin))
	admin.POST("/participants", h.handleAddParticipant)
	admin.GET("/participants", h.handleListParticipants)
	admin.POST("/participants/import", h.handleImport)
	admin.GET("/participants/export", h.handleExport)
	admin.POST("/imports", h.handleSubmitImport)
	admin.GET("/imports/:id", h.handleImportStatus)
	admin.GET("/scan/:token", h.handleScanPreview)
	admin.POST("/scan", h.handleScan)
	admin.GET("/stats", h.handleStats)

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbHealthy := h.svc.Store().Ping(ctx) == nil
	body := gin.H{"db": dbHealthy}
	healthy := dbHealthy
	if h.redis != nil {
		redisHealthy := h.redis.Healthy(ctx)
		body["redis"] = redisHealthy
		healthy = healthy && redisHealthy
	}

	status := http.StatusOK
	body["status"] = "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

// internalError logs an infrastructure failure and answers 500.
func (h *Handler) internalError(c *gin.Context, handlerName string, err error) {
	h.log.Error("request failed",
		slog.String("handler", handlerName),
		slog.String("path", c.FullPath()),
		slog.Any("err", err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
