package web

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

// handleAuditLogs lists audit entries newest first.
//
// Query parameters: action (exact), actor (substring, case-insensitive),
// from and to (date or RFC 3339), page, pageSize, and all=true|1 to return
// everything up to the configured cap.
func (s *Server) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := parseTimeParam(r, "from", false)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	to, err := parseTimeParam(r, "to", true)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	all := strings.ToLower(q.Get("all"))
	page, err := s.service.QueryAuditLogs(r.Context(), core.AuditQuery{
		Action:   q.Get("action"),
		Actor:    q.Get("actor"),
		From:     from,
		To:       to,
		Page:     parseIntParam(r, "page"),
		PageSize: parseIntParam(r, "pageSize"),
		All:      all == "true" || all == "1",
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
