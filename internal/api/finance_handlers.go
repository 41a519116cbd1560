package api

import (
	"net/http"

	"github.com/vaidashi/catering-api/internal/finance"
	"github.com/vaidashi/catering-api/internal/service"
)

// createTransactionHandler appends a ledger entry
func (s *Server) createTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req service.RecordTransactionInput

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	transaction, err := s.services.Finance.RecordTransaction(r.Context(), req, actingRole(r))

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusCreated, transaction)
}

// getFinanceSummaryHandler aggregates the ledger over ?from=&to= (inclusive days)
func (s *Server) getFinanceSummaryHandler(w http.ResponseWriter, r *http.Request) {
	period, err := finance.ParsePeriod(r.URL.Query().Get("from"), r.URL.Query().Get("to"))

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	summary, err := s.services.Finance.Summary(r.Context(), period)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, summary)
}
