package http

import (
	"net/http"

	"familyfinance/internal/log"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Stats(r.Context())
	if err != nil {
		s.respondFailure(w, r, log.OpRead, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.stats.Dashboard(r.Context())
	if err != nil {
		s.respondFailure(w, r, log.OpRead, err)
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}
