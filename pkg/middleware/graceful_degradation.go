package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/vaidashi/catering-api/pkg/circuitbreaker"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// GracefulDegradation sheds non-essential traffic while the API keeps failing with 5xx responses
type GracefulDegradation struct {
	breaker         *circuitbreaker.CircuitBreaker
	essentialPrefix []string
	logger          logger.Logger
}

// NewGracefulDegradation creates a new graceful degradation middleware.
// Paths under any of essentialPrefixes bypass the breaker.
func NewGracefulDegradation(config circuitbreaker.CircuitBreakerConfig, logger logger.Logger, essentialPrefixes ...string) *GracefulDegradation {
	if config.Name == "" {
		config.Name = "http"
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}

	return &GracefulDegradation{
		breaker:         circuitbreaker.NewCircuitBreaker(config),
		essentialPrefix: essentialPrefixes,
		logger:          logger,
	}
}

// Middleware returns a middleware function
func (gd *GracefulDegradation) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		isEssential := gd.isEssential(r.URL.Path)

		if !isEssential && !gd.breaker.Allow() {
			gd.logger.Warn("Circuit is open, request rejected",
				"path", r.URL.Path,
				"method", r.Method,
				"state", gd.breaker.GetState())

			writeError(w, http.StatusServiceUnavailable, "30", "Service is temporarily unavailable. Please try again later.")
			return
		}

		wrappedWriter := newStatusCodeWriter(w)

		next.ServeHTTP(wrappedWriter, r)

		if !isEssential {
			statusCode := wrappedWriter.statusCode
			if statusCode >= 500 {
				gd.breaker.Failure()
			} else {
				gd.breaker.Success()
			}
		}
	})
}

func (gd *GracefulDegradation) isEssential(path string) bool {
	for _, prefix := range gd.essentialPrefix {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// statusCodeWriter is a wrapper around http.ResponseWriter that captures the status code
type statusCodeWriter struct {
	http.ResponseWriter
	statusCode int
}

func newStatusCodeWriter(w http.ResponseWriter) *statusCodeWriter {
	return &statusCodeWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code and passes it to the wrapped ResponseWriter
func (scw *statusCodeWriter) WriteHeader(code int) {
	scw.statusCode = code
	scw.ResponseWriter.WriteHeader(code)
}

// GetMetrics returns metrics about the circuit breaker
func (gd *GracefulDegradation) GetMetrics() map[string]interface{} {
	return gd.breaker.GetMetrics()
}

// Reset resets the circuit breaker
func (gd *GracefulDegradation) Reset() {
	gd.breaker.Reset()
}
