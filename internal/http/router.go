package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/config"
)

// RateLimiter is a simple in-memory sliding window limiter
type RateLimiter struct {
	mu        sync.Mutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	lastSweep time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow reports whether key may make another request now
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	if now.Sub(rl.lastSweep) >= rl.window {
		rl.sweep(windowStart)
		rl.lastSweep = now
	}

	var valid []time.Time
	for _, t := range rl.requests[key] {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

// sweep drops keys with no requests after windowStart
func (rl *RateLimiter) sweep(windowStart time.Time) {
	for key, times := range rl.requests {
		if len(times) == 0 || !times[len(times)-1].After(windowStart) {
			delete(rl.requests, key)
		}
	}
}

// RateLimitMiddleware rejects requests over the limit, keyed by user ID or client IP
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("userID")
		if key == "" {
			key = c.ClientIP()
		}

		if !rl.Allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

type Server struct {
	router  *gin.Engine
	handler *Handler
	cfg     *config.Config
}

// per caller limits
const (
	createLimit  = 30
	createWindow = time.Minute
	userLimit    = 60
	userWindow   = time.Minute
)

func NewServer(cfg *config.Config, svc AccountService, reg *prometheus.Registry, logger zerolog.Logger) (*Server, error) {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	reqMetrics, err := NewRequestMetrics(reg)
	if err != nil {
		return nil, err
	}

	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(reqMetrics.Handler())

	s := &Server{
		router:  router,
		handler: NewHandler(svc, logger),
		cfg:     cfg,
	}

	s.setupRoutes(reg)
	return s, nil
}

func (s *Server) setupRoutes(reg *prometheus.Registry) {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "cpanel-fulfillment",
		})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Internal API - called by the billing platform
	internal := s.router.Group("/api/internal")
	internal.Use(InternalAuthMiddleware(s.cfg.InternalSecret))
	{
		// Config schemas
		internal.GET("/extension/metadata", s.handler.GetMetadata)
		internal.GET("/extension/config", s.handler.GetConfig)
		internal.GET("/extension/product-config", s.handler.GetProductConfig)
		internal.GET("/extension/user-config", s.handler.GetUserConfig)

		// Lifecycle
		internal.POST("/servers/create", RateLimitMiddleware(NewRateLimiter(createLimit, createWindow)), s.handler.CreateServer)
		internal.POST("/servers/suspend", s.handler.SuspendServer)
		internal.POST("/servers/unsuspend", s.handler.UnsuspendServer)
		internal.POST("/servers/terminate", s.handler.TerminateServer)

		// Account queries
		internal.GET("/servers/:order_product_id", s.handler.GetAccount)
		internal.GET("/servers/:order_product_id/logs", s.handler.GetAccountLogs)
		internal.GET("/servers/:order_product_id/link", s.handler.GetLink)
	}

	// User API - requires JWT authentication
	user := s.router.Group("/api/v1")
	user.Use(JWTAuthMiddleware(s.cfg.JWT.SecretKey))
	user.Use(RateLimitMiddleware(NewRateLimiter(userLimit, userWindow)))
	{
		user.GET("/my/cpanel/link", s.handler.GetLink)
	}
}

// Handler exposes the router for an http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}
