package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/repository"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
)

// PaginationResponse wraps a page of dead letter messages
type PaginationResponse struct {
	Items    interface{} `json:"items"`
	Count    int         `json:"count"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Status   string      `json:"status,omitempty"`
}

func parseMessageID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err != nil || id <= 0 {
		return 0, apperrors.NewInvalidInputError("Invalid message ID")
	}
	return id, nil
}

// getDeadLettersHandler returns a page of dead letter messages, optionally filtered by ?status=
func (s *Server) getDeadLettersHandler(w http.ResponseWriter, r *http.Request) {
	status := models.DeadLetterStatus(r.URL.Query().Get("status"))

	switch status {
	case "", models.DeadLetterStatusPending, models.DeadLetterStatusRetrying,
		models.DeadLetterStatusResolved, models.DeadLetterStatusDiscarded:
	default:
		s.respondWithError(w, http.StatusBadRequest, "Unknown dead letter status")
		return
	}

	opts := parseListOptions(r)
	messages, err := s.services.DeadLetters.List(r.Context(), status, opts)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, PaginationResponse{
		Items:    messages,
		Count:    len(messages),
		Page:     opts.Offset/opts.Limit + 1,
		PageSize: opts.Limit,
		Status:   string(status),
	})
}

// getDeadLetterHandler returns one dead letter message
func (s *Server) getDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseMessageID(r)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	message, err := s.services.DeadLetters.GetMessage(r.Context(), id)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, message)
}

// retryDeadLetterHandler puts a message back in front of the dead letter processor
func (s *Server) retryDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseMessageID(r)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	if err := s.services.DeadLetters.Requeue(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Dead letter message not found or already resolved")
			return
		}
		s.respondWithServiceError(w, r, err)
		return
	}

	s.logger.Info("Dead letter message requeued", "messageID", id, "role", actingRole(r))

	s.respondOK(w, http.StatusOK, map[string]interface{}{
		"message": "Dead letter message queued for retry",
		"id":      id,
	})
}

// discardDeadLetterHandler discards a dead letter message
func (s *Server) discardDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseMessageID(r)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}

	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			s.respondWithServiceError(w, r, err)
			return
		}
	}

	if req.Reason == "" {
		req.Reason = "No reason provided"
	}

	if err := s.services.DeadLetters.MarkAsDiscarded(r.Context(), id, req.Reason); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Dead letter message not found")
			return
		}
		s.respondWithServiceError(w, r, err)
		return
	}

	s.logger.Info("Dead letter message discarded", "messageID", id, "reason", req.Reason, "role", actingRole(r))

	s.respondOK(w, http.StatusOK, map[string]interface{}{
		"message": "Dead letter message discarded",
		"id":      id,
	})
}
