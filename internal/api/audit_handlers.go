package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/repository"
	apperrors "github.com/vaidashi/catering-api/pkg/errors"
)

// getAuditLogHandler lists recorded transitions.
// Filters: kind (comma separated), entity_id, role, from, to, page, page_size.
func (s *Server) getAuditLogHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.AuditFilter{
		EntityID:    q.Get("entity_id"),
		ActingRole:  q.Get("role"),
		ListOptions: parseListOptions(r),
	}

	if raw := q.Get("kind"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			kind, ok := models.ParseEntityKind(strings.TrimSpace(part))

			if !ok {
				s.respondWithServiceError(w, r, apperrors.NewInvalidInputError(fmt.Sprintf("unknown entity kind %q", part)))
				return
			}
			filter.Kinds = append(filter.Kinds, kind)
		}
	}

	var err error

	if filter.From, err = parseDate("from", q.Get("from")); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}
	if filter.To, err = parseDate("to", q.Get("to")); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	entries, err := s.services.Audit.List(r.Context(), filter, actingRole(r))

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, entries)
}
