package http

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/wenwu/saas-platform/cpanel-fulfillment/internal/metrics"
)

// JWTAuthMiddleware validates HS256 JWT tokens for user endpoints.
// The user ID is taken from the uid claim, falling back to sub.
func JWTAuthMiddleware(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secretKey), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		if uid, ok := claims["uid"].(string); ok {
			c.Set("userID", uid)
		} else if sub, ok := claims["sub"].(string); ok {
			c.Set("userID", sub)
		}

		c.Next()
	}
}

// InternalAuthMiddleware validates internal service calls with a constant-time compare
func InternalAuthMiddleware(internalSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader("X-Internal-Secret")
		if subtle.ConstantTimeCompare([]byte(secret), []byte(internalSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized internal access"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestLogger logs each request through zerolog
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	logger = logger.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		evt := logger.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			evt = logger.Error()
		}
		evt.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Str("client_ip", c.ClientIP()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// RequestMetrics counts inbound requests by route and status
type RequestMetrics struct {
	requestCount *prometheus.CounterVec
}

func NewRequestMetrics(reg prometheus.Registerer) (*RequestMetrics, error) {
	counter, err := metrics.Register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	))
	if err != nil {
		return nil, fmt.Errorf("register http_requests_total: %w", err)
	}
	return &RequestMetrics{requestCount: counter}, nil
}

func (m *RequestMetrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestCount.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
