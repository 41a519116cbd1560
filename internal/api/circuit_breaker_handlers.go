package api

import (
	"net/http"
)

// getCircuitBreakerStatusHandler returns the current state of the HTTP circuit breaker
func (s *Server) getCircuitBreakerStatusHandler(w http.ResponseWriter, r *http.Request) {
	s.respondOK(w, http.StatusOK, s.gracefulDegradation.GetMetrics())
}

// resetCircuitBreakerHandler resets the circuit breaker to closed state
func (s *Server) resetCircuitBreakerHandler(w http.ResponseWriter, r *http.Request) {
	s.gracefulDegradation.Reset()

	s.logger.Warn("Circuit breaker reset", "role", actingRole(r))

	s.respondOK(w, http.StatusOK, map[string]string{
		"message": "Circuit breaker reset successfully",
	})
}
