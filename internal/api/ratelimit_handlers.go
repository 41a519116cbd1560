package api

import (
	"net/http"
)

// getRateLimitsHandler returns the current rate limit settings and metrics
func (s *Server) getRateLimitsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"enabled":         s.rateLimiter != nil,
		"endpoint_limits": s.endpointRateLimiter.GetAllLimits(),
	}

	if s.rateLimiter != nil {
		response["global_metrics"] = s.rateLimiter.GetMetrics()
	}

	s.respondOK(w, http.StatusOK, response)
}

// setEndpointRateLimitHandler sets the limit for one endpoint key such as "POST:/api/v1/orders"
func (s *Server) setEndpointRateLimitHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint   string  `json:"endpoint"`
		MaxTokens  float64 `json:"max_tokens"`
		RefillRate float64 `json:"refill_rate"`
	}

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	if req.Endpoint == "" {
		s.respondWithError(w, http.StatusBadRequest, "Endpoint is required")
		return
	}

	if req.MaxTokens <= 0 || req.RefillRate <= 0 {
		s.respondWithError(w, http.StatusBadRequest, "MaxTokens and RefillRate must be greater than zero")
		return
	}

	s.endpointRateLimiter.SetLimit(req.Endpoint, req.MaxTokens, req.RefillRate)

	s.respondOK(w, http.StatusOK, map[string]interface{}{
		"message":     "Rate limit updated successfully",
		"endpoint":    req.Endpoint,
		"max_tokens":  req.MaxTokens,
		"refill_rate": req.RefillRate,
	})
}
