package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vaidashi/catering-api/internal/service"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
)

type createReservationRequest struct {
	ClientID        string `json:"client_id"`
	EventAt         string `json:"event_at"`
	GuestCount      int    `json:"guest_count"`
	EventType       string `json:"event_type"`
	Venue           string `json:"venue"`
	SpecialRequests string `json:"special_requests"`
}

func (s *Server) createReservationHandler(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	eventAt, err := parseDate("event_at", req.EventAt)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	reservation, err := s.services.Reservations.CreateReservation(r.Context(), service.CreateReservationInput{
		ClientID:        req.ClientID,
		EventAt:         eventAt,
		GuestCount:      req.GuestCount,
		EventType:       req.EventType,
		Venue:           req.Venue,
		SpecialRequests: req.SpecialRequests,
	})

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusCreated, reservation)
}

// getReservationsHandler lists reservations whose event falls in [from, to)
func (s *Server) getReservationsHandler(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate("from", r.URL.Query().Get("from"))

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	to, err := parseDate("to", r.URL.Query().Get("to"))

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	if from.IsZero() || to.IsZero() {
		s.respondWithServiceError(w, r, apperrors.NewInvalidInputError("from and to are required"))
		return
	}

	reservations, err := s.services.Reservations.ListReservations(r.Context(), from, to)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, reservations)
}

func (s *Server) getReservationByIDHandler(w http.ResponseWriter, r *http.Request) {
	reservation, err := s.services.Reservations.GetReservation(r.Context(), mux.Vars(r)["id"])

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, reservation)
}

func (s *Server) updateReservationStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req statusRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	reservation, err := s.services.Reservations.UpdateReservationStatus(r.Context(), mux.Vars(r)["id"], req.Status, actingRole(r))

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, reservation)
}
