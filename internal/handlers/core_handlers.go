package handlers

import (
	"net/http"
	"time"
)

// HandleHealth reports liveness plus the collected runtime metrics.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "healthy",
			"server_time": time.Now(),
			"metrics":     s.Metrics.Snapshot(),
		})
	}
}
