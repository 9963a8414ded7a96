// Package httpkit provides HTTP middleware infrastructure.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"collabmatch_backend/platform/config"
	"collabmatch_backend/platform/kvstore"
	"collabmatch_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// ContextUserIDKey is the gin context key for the authenticated user ID.
	ContextUserIDKey = "userID"

	errMissingToken = "missing token"
	errInvalidToken = "invalid token"
)

// RequestLogger logs HTTP requests with timing.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		clientIP := c.ClientIP()

		log.HTTPRequest(c.Request.Method, path, status, float64(latency.Milliseconds()), clientIP)
	}
}

// SecurityHeaders adds security headers to responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// IPRateLimiter limits requests per client IP. When a shared kvstore.Store is
// provided, it uses fixed-window counters there so the limit holds across
// instances; otherwise it falls back to process-local token buckets.
type IPRateLimiter struct {
	store    kvstore.Store
	limit    int
	window   time.Duration
	limiters sync.Map // ip -> *rate.Limiter, local fallback only
	log      *logger.Logger
}

// NewIPRateLimiter creates a rate limiter allowing limit requests per window
// per client IP. store may be nil for process-local limiting.
func NewIPRateLimiter(store kvstore.Store, limit int, window time.Duration, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		store:  store,
		limit:  limit,
		window: window,
		log:    log,
	}
}

func (i *IPRateLimiter) allowLocal(ip string) bool {
	limiter, ok := i.limiters.Load(ip)
	if !ok {
		perSecond := rate.Limit(float64(i.limit) / i.window.Seconds())
		limiter, _ = i.limiters.LoadOrStore(ip, rate.NewLimiter(perSecond, i.limit))
	}
	return limiter.(*rate.Limiter).Allow()
}

func (i *IPRateLimiter) allowShared(c *gin.Context, ip string) bool {
	windowStart := time.Now().Truncate(i.window).Unix()
	key := fmt.Sprintf("ratelimit:%s:%d", ip, windowStart)

	count, err := i.store.Incr(c.Request.Context(), key, i.window)
	if err != nil {
		// Availability over strictness: a broken cache never blocks traffic.
		if i.log != nil {
			i.log.BestEffortFailure("rate limit counter", err)
		}
		return true
	}
	return count <= int64(i.limit)
}

// RateLimit returns a middleware that rate limits by IP.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		allowed := false
		if i.store != nil {
			allowed = i.allowShared(c, ip)
		} else {
			allowed = i.allowLocal(ip)
		}

		if !allowed {
			if i.log != nil {
				i.log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

// AuthRequired returns middleware that validates JWT access tokens.
// Supports token via Authorization header (Bearer) or query param (for SSE).
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			// Fallback to query param for SSE connections
			rawToken = c.Query("token")
			if rawToken == "" {
				abortUnauthorized(c, errMissingToken)
				return
			}
		}

		claims, err := parseAccessClaims(rawToken, cfg)
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}

		userID, err := parseUserID(claims)
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

func extractBearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	rawToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if rawToken == "" {
		return "", false
	}

	return rawToken, true
}

func parseAccessClaims(rawToken string, cfg config.JWTConfig) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(cfg.GetJWTAccessSecret()), nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.New(errInvalidToken)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New(errInvalidToken)
	}

	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return nil, errors.New(errInvalidToken)
	}

	return claims, nil
}

func parseUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	userIDRaw, _ := claims["sub"].(string)
	return uuid.Parse(userIDRaw)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
