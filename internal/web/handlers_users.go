package web

import (
	"net/http"

	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds core.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Login(r.Context(), creds)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleCreateAdmin runs behind OptionalAuth: without a token it only
// succeeds while no admin account exists.
func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var in core.AdminInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.service.CreateAdmin(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.ListAdmins(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCountAdmins(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.CountAdmins(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (s *Server) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.service.RefreshToken(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
