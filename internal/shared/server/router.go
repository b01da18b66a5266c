package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/resumeanalysis"
	"resume-analyzer/internal/services/health"
	"resume-analyzer/internal/shared/config"
	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/server/respond"
)

const analyzeRateGroup = "ANALYZE"

// paths served without an identity
var publicPrefixes = []string{"/healthz", "/metrics"}

// RouterDeps groups the handlers the router mounts.
type RouterDeps struct {
	Config        config.Config
	ResumeHandler *resumeanalysis.Handler
	Health        *health.Service
	RateLimiter   *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		metrics.Middleware(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(publicPrefixes...),
	)

	r.GET("/healthz", healthHandler(deps.Health))
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	registerMeRoutes(api)
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(api, analyzeRateLimit(deps.Config.AnalyzePerMin, deps.RateLimiter)...)
	}

	return r
}

// analyzeRateLimit limits analyze calls per principal. A limit of zero
// disables it.
func analyzeRateLimit(perMin int, limiter *middleware.RateLimiter) []gin.HandlerFunc {
	if perMin <= 0 {
		return nil
	}
	return []gin.HandlerFunc{middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			analyzeRateGroup: {Rate: float64(perMin) / 60.0, Burst: perMin},
		},
		DefaultGroup: analyzeRateGroup,
		Limiter:      limiter,
	})}
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		status, ok := svc.Status(c.Request.Context())
		code := http.StatusOK
		if !ok {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	}
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
