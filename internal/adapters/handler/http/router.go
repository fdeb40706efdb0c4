package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/services"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type RouterDependencies struct {
	AuthHandler     *AuthHandler
	HabitHandler    *HabitHandler
	CalendarHandler *CalendarHandler
	CategoryHandler *CategoryHandler

	// A nil TokenService leaves the API open.
	TokenService *services.TokenService

	Redis       *redis.Client
	RateLimit   int
	RateWindow  time.Duration
	CORSOrigins []string

	Logger       zerolog.Logger
	Registry     *prometheus.Registry
	HealthChecks map[string]HealthCheck
	StartTime    time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics := middleware.NewMetrics(reg)

	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(deps.Logger),
		metrics.Middleware(),
		middleware.CORS(deps.CORSOrigins),
	)

	if deps.RateLimit > 0 {
		if deps.Redis != nil {
			router.Use(middleware.RateLimiterMiddleware(deps.Redis, deps.RateLimit, deps.RateWindow, deps.Logger))
		} else {
			router.Use(middleware.LocalRateLimiterMiddleware(deps.RateLimit, deps.RateWindow))
		}
	}

	router.GET("/health", healthHandler(deps.HealthChecks, deps.StartTime))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	apiV1 := router.Group("/api/v1")

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterRoutes(apiV1)
	}

	protected := apiV1.Group("")
	if deps.TokenService != nil {
		protected.Use(middleware.AuthMiddleware(deps.TokenService))
	}
	{
		deps.HabitHandler.RegisterRoutes(protected)
		deps.CalendarHandler.RegisterRoutes(protected)
		deps.CategoryHandler.RegisterRoutes(protected)
	}

	return router
}

func healthHandler(checks map[string]HealthCheck, start time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		statusCode := http.StatusOK
		body := gin.H{
			"status": "ok",
			"uptime": time.Since(start).String(),
		}

		for name, check := range checks {
			if err := check(ctx); err != nil {
				body[name] = "unreachable"
				body["status"] = "degraded"
				statusCode = http.StatusServiceUnavailable
				continue
			}
			body[name] = "connected"
		}

		c.JSON(statusCode, body)
	}
}
