package web

import (
	"net/http"

	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListSentinelUsers(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var in core.SentinelInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.service.CreateSentinelUser(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// handleUpdateRecord replaces a record. An empty password keeps the stored one.
func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var in core.SentinelInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.service.UpdateSentinelUser(r.Context(), id, in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.service.DeleteSentinelUser(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
