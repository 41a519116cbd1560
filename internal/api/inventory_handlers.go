package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/vaidashi/catering-api/internal/money"
	"github.com/vaidashi/catering-api/internal/service"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
)

type createInventoryItemRequest struct {
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	MinimumStock   decimal.Decimal `json:"minimum_stock"`
	Unit           string          `json:"unit"`
	UnitCost       money.Cents     `json:"unit_cost"`
	Supplier       string          `json:"supplier"`
	ExpirationDate string          `json:"expiration_date"`
	Location       string          `json:"location"`
}

func (s *Server) createInventoryItemHandler(w http.ResponseWriter, r *http.Request) {
	var req createInventoryItemRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	in := service.CreateInventoryItemInput{
		Name:         req.Name,
		Category:     req.Category,
		CurrentStock: req.CurrentStock,
		MinimumStock: req.MinimumStock,
		Unit:         req.Unit,
		UnitCost:     req.UnitCost,
		Supplier:     req.Supplier,
		Location:     req.Location,
	}

	expires, err := parseDate("expiration_date", req.ExpirationDate)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	if !expires.IsZero() {
		in.ExpirationDate = &expires
	}

	item, err := s.services.Inventory.CreateItem(r.Context(), in)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusCreated, item)
}

func (s *Server) getInventoryItemHandler(w http.ResponseWriter, r *http.Request) {
	item, err := s.services.Inventory.GetItem(r.Context(), mux.Vars(r)["id"])

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, item)
}

// getInventoryAlertsHandler returns low stock and expiry alerts; ?horizon= overrides the configured days
func (s *Server) getInventoryAlertsHandler(w http.ResponseWriter, r *http.Request) {
	horizon := -1

	if raw := r.URL.Query().Get("horizon"); raw != "" {
		h, err := strconv.Atoi(raw)

		if err != nil {
			s.respondWithServiceError(w, r, apperrors.NewInvalidInputError("horizon must be an integer number of days"))
			return
		}
		if h < 0 {
			s.respondWithServiceError(w, r, apperrors.NewInvalidInputError("horizon must not be negative"))
			return
		}
		horizon = h
	}

	report, err := s.services.Inventory.Report(r.Context(), horizon)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, report)
}
