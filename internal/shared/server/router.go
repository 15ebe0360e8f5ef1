package server

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"picture-analysis/internal/services/health"
	"picture-analysis/internal/shared/config"
	"picture-analysis/internal/shared/metrics"
	"picture-analysis/internal/shared/server/middleware"
	"picture-analysis/internal/shared/server/respond"
)

// RouteRegistrar is implemented by every domain handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps holds what the router needs to mount routes.
type RouterDeps struct {
	Config   config.Config
	DB       *sql.DB
	Handlers []RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: middleware.TaskGroupFor,
			Rules: map[string]middleware.RateLimitRule{
				middleware.TaskRateLimitGroup: {Rate: deps.Config.TaskRatePerSecond, Burst: deps.Config.TaskBurst},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	checker := health.NewService(deps.DB)
	api.GET("/health", func(c *gin.Context) {
		status, err := checker.Status(c.Request.Context())
		if err != nil {
			respond.Error(c, http.StatusServiceUnavailable, "unavailable", "database unreachable", nil)
			return
		}
		respond.JSON(c, http.StatusOK, status)
	})
	for _, h := range deps.Handlers {
		if h != nil {
			h.RegisterRoutes(api)
		}
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
