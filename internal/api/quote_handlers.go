package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
	"github.com/vaidashi/catering-api/internal/service"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
)

type createQuoteRequest struct {
	ClientID   string            `json:"client_id"`
	Items      []models.LineItem `json:"items"`
	Discount   money.Cents       `json:"discount_amount"`
	ValidUntil string            `json:"valid_until"`
	Notes      string            `json:"notes"`
}

type convertQuoteRequest struct {
	DeliveryDate string `json:"delivery_date"`
}

func (s *Server) createQuoteHandler(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	validUntil, err := parseDate("valid_until", req.ValidUntil)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	quote, err := s.services.Quotes.CreateQuote(r.Context(), service.CreateQuoteInput{
		ClientID:   req.ClientID,
		Items:      req.Items,
		Discount:   req.Discount,
		ValidUntil: validUntil,
		Notes:      req.Notes,
	})

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusCreated, quote)
}

func (s *Server) getQuotesHandler(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.services.Quotes.ListQuotes(r.Context(), models.Status(r.URL.Query().Get("status")), parseListOptions(r))

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, quotes)
}

func (s *Server) getQuoteByIDHandler(w http.ResponseWriter, r *http.Request) {
	quote, err := s.services.Quotes.GetQuote(r.Context(), mux.Vars(r)["id"])

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, quote)
}

func (s *Server) updateQuoteStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req statusRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	quote, err := s.services.Quotes.UpdateQuoteStatus(r.Context(), mux.Vars(r)["id"], req.Status, actingRole(r))

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, quote)
}

// convertQuoteHandler creates a pending order from an accepted quote
func (s *Server) convertQuoteHandler(w http.ResponseWriter, r *http.Request) {
	var req convertQuoteRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	deliveryDate, err := parseDate("delivery_date", req.DeliveryDate)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	if deliveryDate.IsZero() {
		s.respondWithServiceError(w, r, apperrors.NewInvalidInputError("delivery_date is required"))
		return
	}

	order, err := s.services.Quotes.ConvertQuote(r.Context(), mux.Vars(r)["id"], deliveryDate, actingRole(r))

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusCreated, order)
}
