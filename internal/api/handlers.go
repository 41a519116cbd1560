package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vaidashi/catering-api/internal/finance"
	"github.com/vaidashi/catering-api/internal/inventory"
	"github.com/vaidashi/catering-api/internal/lifecycle"
	"github.com/vaidashi/catering-api/internal/loyalty"
	"github.com/vaidashi/catering-api/internal/pricing"
	"github.com/vaidashi/catering-api/internal/repository"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
)

// RoleHeader carries the acting role, set by the identity gateway
const RoleHeader = "X-Acting-Role"

type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Health represents the health check response
type Health struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Database  string `json:"database,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Version is reported by the health endpoint
const Version = "1.0.0"

// healthCheckHandler handles the health check endpoint
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	health := Health{
		Status:    "ok",
		Version:   Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	code := http.StatusOK

	if s.services.Ping != nil {
		health.Database = "up"

		if err := s.services.Ping(r.Context()); err != nil {
			s.logger.Warn("Health check failed", "error", err)
			health.Status = "degraded"
			health.Database = "down"
			code = http.StatusServiceUnavailable
		}
	}

	s.respondWithJSON(w, code, ApiResponse{
		Success: code == http.StatusOK,
		Data:    health,
	})
}

// actingRole reads the role the gateway authenticated
func actingRole(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.Header.Get(RoleHeader)))
}

// decodeJSON reads the request body into dst, rejecting unknown fields
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return apperrors.NewInvalidInputError(fmt.Sprintf("Invalid request payload: %v", err))
	}
	return nil
}

// parseDate accepts a calendar day or an RFC 3339 timestamp; empty input returns the zero time
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, value)

	if err != nil {
		return time.Time{}, apperrors.NewInvalidInputError(fmt.Sprintf("%s must be YYYY-MM-DD or RFC 3339", field))
	}
	return t.UTC(), nil
}

// parseListOptions reads page (1-based) and page_size query parameters
func parseListOptions(r *http.Request) repository.ListOptions {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))

	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("page_size"))

	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	return repository.ListOptions{Limit: pageSize, Offset: (page - 1) * pageSize}
}

// statusFor maps service and domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, lifecycle.ErrUnauthorized),
		errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pricing.ErrInvalidLineItem),
		errors.Is(err, pricing.ErrNegativeDiscount),
		errors.Is(err, pricing.ErrDiscountTooLarge),
		errors.Is(err, pricing.ErrInvalidTaxRate),
		errors.Is(err, finance.ErrInvalidTransaction),
		errors.Is(err, loyalty.ErrInsufficientPoints),
		errors.Is(err, loyalty.ErrBelowMinimum),
		errors.Is(err, loyalty.ErrRewardInactive),
		errors.Is(err, loyalty.ErrRewardNotFound),
		errors.Is(err, loyalty.ErrInvalidDiscountType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, finance.ErrInvalidPeriod),
		errors.Is(err, inventory.ErrNegativeHorizon):
		return http.StatusBadRequest
	default:
		return apperrors.StatusCode(err)
	}
}

// respondWithServiceError translates err into an error envelope
func (s *Server) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)

	if code >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		s.respondWithError(w, code, "Internal server error")
		return
	}

	s.logger.Debug("Request rejected", "error", err, "status", code, "path", r.URL.Path)
	s.respondWithError(w, code, err.Error())
}

// respondWithError sends a JSON response with an error message
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, ApiResponse{
		Success: false,
		Error:   message,
	})
}

// respondWithJSON sends a JSON response
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)

	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondOK wraps data in a success envelope
func (s *Server) respondOK(w http.ResponseWriter, code int, data interface{}) {
	s.respondWithJSON(w, code, ApiResponse{Success: true, Data: data})
}
