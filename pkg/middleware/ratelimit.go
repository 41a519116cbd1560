package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/vaidashi/catering-api/pkg/logger"
	"github.com/vaidashi/catering-api/pkg/ratelimit"
)

// RateLimiterMiddleware applies a global adaptive limit and a per-client limit to incoming requests
type RateLimiterMiddleware struct {
	globalLimiter     *ratelimit.AdaptiveRateLimiter
	clientLimiter     *ratelimit.KeyedLimiter
	logger            logger.Logger
	trustForwardedFor bool
}

// RateLimiterConfig configures the rate limiter middleware
type RateLimiterConfig struct {
	GlobalMaxTokens   float64
	GlobalMaxRate     float64
	GlobalMinRate     float64
	GlobalThreshold   float64
	ClientMaxTokens   float64
	ClientRefillRate  float64
	ClientIdleExpiry  time.Duration
	TrustForwardedFor bool
}

// NewRateLimiterMiddleware creates a new rate limiter middleware
func NewRateLimiterMiddleware(cfg *RateLimiterConfig, logger logger.Logger) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		globalLimiter: ratelimit.NewAdaptiveRateLimiter(ratelimit.AdaptiveConfig{
			MaxTokens:     cfg.GlobalMaxTokens,
			MaxRate:       cfg.GlobalMaxRate,
			MinRate:       cfg.GlobalMinRate,
			LoadThreshold: cfg.GlobalThreshold,
		}),
		clientLimiter:     ratelimit.NewKeyedLimiter(cfg.ClientMaxTokens, cfg.ClientRefillRate, cfg.ClientIdleExpiry),
		logger:            logger,
		trustForwardedFor: cfg.TrustForwardedFor,
	}
}

// Middleware returns a middleware function
func (m *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.globalLimiter.Allow() {
			m.logger.Warn("Global rate limit exceeded", "method", r.Method, "path", r.URL.Path)

			writeError(w, http.StatusTooManyRequests, "10", "Global rate limit exceeded. Please try again later.")
			return
		}

		ip := m.getClientIP(r)

		if !m.clientLimiter.Allow(ip) {
			m.logger.Warn("Client rate limit exceeded", "method", r.Method, "path", r.URL.Path, "ip", ip)

			writeError(w, http.StatusTooManyRequests, "60", "Client rate limit exceeded. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP from the request
func (m *RateLimiterMiddleware) getClientIP(r *http.Request) string {
	if m.trustForwardedFor {
		if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
			ips := strings.Split(forwardedFor, ",")
			return strings.TrimSpace(ips[0])
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)

	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Stop stops the rate limiters
func (m *RateLimiterMiddleware) Stop() {
	m.globalLimiter.Stop()
	m.clientLimiter.Stop()
}

// GetMetrics returns metrics about rate limiting
func (m *RateLimiterMiddleware) GetMetrics() map[string]interface{} {
	metrics := m.globalLimiter.GetMetrics()
	metrics["tracked_clients"] = m.clientLimiter.Len()
	return metrics
}

// writeError writes the API error envelope
func writeError(w http.ResponseWriter, status int, retryAfter, message string) {
	w.Header().Set("Content-Type", "application/json")
	if retryAfter != "" {
		w.Header().Set("Retry-After", retryAfter)
	}
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
