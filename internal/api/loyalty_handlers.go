package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) getLoyaltyProgramHandler(w http.ResponseWriter, r *http.Request) {
	s.respondOK(w, http.StatusOK, s.services.Loyalty.Program())
}

func (s *Server) getLoyaltyAccountHandler(w http.ResponseWriter, r *http.Request) {
	account, err := s.services.Loyalty.GetAccount(r.Context(), mux.Vars(r)["clientID"])

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, account)
}
