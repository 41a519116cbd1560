package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vaidashi/catering-api/internal/lifecycle"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
	"github.com/vaidashi/catering-api/internal/pricing"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
)

type totalsRequest struct {
	Items    []models.LineItem `json:"items"`
	Discount money.Cents       `json:"discount_amount"`
}

// TransitionsView lists the statuses reachable from one status
type TransitionsView struct {
	Kind        models.EntityKind `json:"kind"`
	Status      models.Status     `json:"status"`
	Terminal    bool              `json:"terminal"`
	Transitions []models.Status   `json:"transitions"`
}

// computeTotalsHandler prices line items without persisting anything
func (s *Server) computeTotalsHandler(w http.ResponseWriter, r *http.Request) {
	var req totalsRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	totals, err := pricing.ComputeTotals(req.Items, s.services.TaxRates, req.Discount)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, totals)
}

// getTransitionsHandler tells a dashboard which actions to offer
func (s *Server) getTransitionsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	kind, ok := models.ParseEntityKind(vars["kind"])

	if !ok || kind == models.KindTransaction {
		s.respondWithServiceError(w, r, apperrors.NewNotFoundError(fmt.Sprintf("no lifecycle for %q", vars["kind"])))
		return
	}

	status := models.Status(vars["status"])

	if !lifecycle.IsKnownStatus(kind, status) {
		s.respondWithServiceError(w, r, apperrors.NewInvalidInputError(fmt.Sprintf("unknown %s status %q", kind, status)))
		return
	}

	transitions := lifecycle.AvailableTransitions(kind, status)
	if transitions == nil {
		transitions = []models.Status{}
	}

	s.respondOK(w, http.StatusOK, TransitionsView{
		Kind:        kind,
		Status:      status,
		Terminal:    lifecycle.IsTerminal(kind, status),
		Transitions: transitions,
	})
}
