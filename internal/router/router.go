package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/solar-lifecycle-api/internal/middleware"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/logger"
	"github.com/jwalitptl/solar-lifecycle-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine  *gin.Engine
	health  Handler
	api     []Handler
	metrics *metrics.Metrics
	config  RouterConfig
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	RequestTimeout   time.Duration
	MaxBodySize      int64
	CORSConfig       middleware.CORSConfig
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		RequestTimeout: middleware.DefaultTimeoutConfig().Duration,
		MaxBodySize:    middleware.DefaultSizeLimitConfig().MaxBodySize,
		CORSConfig:     middleware.DefaultCORSConfig(),
	}
}

func NewRouter(log *logger.Logger, m *metrics.Metrics, config RouterConfig, health Handler, handlers ...Handler) *Router {
	// Set production mode
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:  engine,
		health:  health,
		api:     handlers,
		metrics: m,
		config:  config,
	}

	// Add core middlewares
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.ErrorHandler(log),
		r.metricsMiddleware(),
		middleware.CORS(config.CORSConfig),
	)

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	if r.health != nil {
		r.health.RegisterRoutes(&r.engine.RouterGroup)
	}
	if r.config.Gatherer != nil {
		r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.config.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.engine.Group("/api/v1")
	api.Use(
		middleware.Tenant(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: r.config.RequestTimeout}),
	)
	if r.config.MaxBodySize > 0 {
		api.Use(middleware.SizeLimit(middleware.SizeLimitConfig{MaxBodySize: r.config.MaxBodySize}))
	}

	for _, h := range r.api {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// metricsMiddleware labels by route template so ids do not explode
// cardinality. Unmatched paths are reported as "unmatched".
func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.metrics == nil {
			c.Next()
			return
		}
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		r.metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, status).Inc()
		r.metrics.HTTPLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
