package api

import (
	"net/http"
)

// getRolesHandler returns the role grants currently enforced
func (s *Server) getRolesHandler(w http.ResponseWriter, r *http.Request) {
	if s.services.Roles == nil {
		s.respondWithError(w, http.StatusServiceUnavailable, "Role policy not configured")
		return
	}

	s.respondOK(w, http.StatusOK, s.services.Roles.Snapshot())
}
