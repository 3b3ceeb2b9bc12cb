package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"quartier-watch/internal/models"
	"quartier-watch/internal/utils"

	"github.com/google/uuid"
)

// CreateReportRequest flags a post for admin review
type CreateReportRequest struct {
	PostID string `json:"postId"`
	Reason string `json:"reason"`
}

// ResolveReportRequest closes a report as resolved or rejected
type ResolveReportRequest struct {
	ReportID string `json:"reportId"`
	Status   string `json:"status"`
}

// HandleReports lets users flag posts and admins list open flags.
func (s *Server) HandleReports() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			user, ok := s.currentUser(w, r)
			if !ok {
				return
			}

			var req CreateReportRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			if req.Reason == "" {
				http.Error(w, "Reason is required", http.StatusBadRequest)
				return
			}
			postID, err := uuid.Parse(req.PostID)
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}

			// The report must target a live post.
			if _, err := s.MongoDB.GetPost(r.Context(), postID); err != nil {
				if appErr, ok := err.(*utils.AppError); ok {
					respondAppError(w, appErr)
					return
				}
				http.Error(w, "Failed to load post", http.StatusInternalServerError)
				return
			}

			report := &models.Report{
				ID:           uuid.New(),
				PostID:       postID,
				ReporterID:   user.ID,
				ReporterName: user.DisplayName,
				Reason:       req.Reason,
				Status:       models.ReportPending,
				CreatedAt:    time.Now(),
			}
			if err := s.MongoDB.SaveReport(r.Context(), report); err != nil {
				http.Error(w, "Failed to save report", http.StatusInternalServerError)
				return
			}
			respondJSON(w, http.StatusCreated, report)

		case http.MethodGet:
			if _, ok := s.requireAdmin(w, r); !ok {
				return
			}

			status := r.URL.Query().Get("status")
			reports, err := s.MongoDB.GetReports(r.Context(), status)
			if err != nil {
				http.Error(w, "Failed to list reports", http.StatusInternalServerError)
				return
			}
			respondJSON(w, http.StatusOK, reports)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleReportResolve closes a pending report.
func (s *Server) HandleReportResolve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		admin, ok := s.requireAdmin(w, r)
		if !ok {
			return
		}

		var req ResolveReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		reportID, err := uuid.Parse(req.ReportID)
		if err != nil {
			http.Error(w, "Invalid report ID format", http.StatusBadRequest)
			return
		}
		if req.Status != models.ReportResolved && req.Status != models.ReportRejected {
			http.Error(w, "Status must be RESOLVED or REJECTED", http.StatusBadRequest)
			return
		}

		if err := s.MongoDB.ResolveReport(r.Context(), reportID, req.Status, admin.ID); err != nil {
			if appErr, ok := err.(*utils.AppError); ok {
				respondAppError(w, appErr)
				return
			}
			http.Error(w, "Failed to resolve report", http.StatusInternalServerError)
			return
		}

		report, err := s.MongoDB.GetReport(r.Context(), reportID)
		if err != nil {
			http.Error(w, "Failed to load report", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, report)
	}
}
