package server

import (
	"github.com/gin-gonic/gin"

	"callcoach-backend/internal/coaching"
	"callcoach-backend/internal/services/health"
	"callcoach-backend/internal/shared/config"
	"callcoach-backend/internal/shared/metrics"
	"callcoach-backend/internal/shared/server/middleware"
	"callcoach-backend/internal/shared/server/respond"
)

const rateLimitGroupAnalyze = "ANALYZE"

// RouterDeps carries the handlers and settings the router wires together.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *coaching.Handler
	Providers       []string
	RateLimiter     *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "dev" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(coaching.MessageFailed),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	healthSvc := health.NewService(deps.Providers...)
	r.GET("/health", func(c *gin.Context) {
		respond.OK(c, healthSvc.Status())
	})
	r.GET("/metrics", metrics.Handler())

	if deps.AnalysisHandler != nil {
		limit := middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateLimitGroupAnalyze,
			Message:      coaching.MessageRateLimited,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateLimitGroupAnalyze: middleware.PerMinute(deps.Config.RateLimitPerMinute, deps.Config.RateLimitBurst),
			},
		})
		deps.AnalysisHandler.RegisterRoutes(r, limit)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
