package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"quartier-watch/internal/engine/actors"
	"quartier-watch/internal/models"

	"github.com/google/uuid"
)

// CreateAlertRequest represents a request to raise a security alert.
// Location is optional; without it the alert is treated as quartier-wide
// by the geofence.
type CreateAlertRequest struct {
	Category  models.AlertCategory `json:"category"`
	Message   string               `json:"message,omitempty"`
	Latitude  *float64             `json:"latitude,omitempty"`
	Longitude *float64             `json:"longitude,omitempty"`
	Radius    models.Radius        `json:"radius"`
}

// AlertVoteRequest represents a confirm or dispute on an alert
type AlertVoteRequest struct {
	AlertID string `json:"alertId"`
}

// ReviewAlertRequest is an admin override of an alert's status
type ReviewAlertRequest struct {
	AlertID string             `json:"alertId"`
	Status  models.AlertStatus `json:"status"`
}

// HandleAlerts handles alert creation, listing and deletion.
func (s *Server) HandleAlerts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodPost:
			if err := s.Gate.CheckMaintenance(user); err != nil {
				respondGateError(w, err)
				return
			}

			var req CreateAlertRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			if req.Radius == "" {
				req.Radius = models.RadiusQuartier
			}

			var location *models.Location
			if req.Latitude != nil && req.Longitude != nil {
				location = &models.Location{
					Latitude:   *req.Latitude,
					Longitude:  *req.Longitude,
					CapturedAt: time.Now(),
				}
			}

			result, ok := s.requestActor(w, s.Engine.GetAlertSupervisor(), &actors.CreateAlertMsg{
				AuthorID:   user.ID,
				AuthorName: user.DisplayName,
				Quartier:   user.Quartier,
				Category:   req.Category,
				Message:    req.Message,
				Location:   location,
				Radius:     req.Radius,
			})
			if !ok {
				return
			}

			if alert, ok := result.(*models.Alert); ok {
				s.watchAlertForUser(user.ID, alert.ID)
			}
			respondJSON(w, http.StatusCreated, result)

		case http.MethodGet:
			if idStr := r.URL.Query().Get("id"); idStr != "" {
				id, err := uuid.Parse(idStr)
				if err != nil {
					http.Error(w, "Invalid alert ID format", http.StatusBadRequest)
					return
				}
				result, ok := s.requestActor(w, s.Engine.GetAlertSupervisor(), &actors.GetAlertMsg{AlertID: id})
				if !ok {
					return
				}
				respondJSON(w, http.StatusOK, result)
				return
			}

			quartier := r.URL.Query().Get("quartier")
			if quartier == "" {
				quartier = user.Quartier
			}
			result, ok := s.requestActor(w, s.Engine.GetAlertSupervisor(), &actors.GetQuartierAlertsMsg{Quartier: quartier})
			if !ok {
				return
			}
			respondJSON(w, http.StatusOK, result)

		case http.MethodDelete:
			idStr := r.URL.Query().Get("id")
			id, err := uuid.Parse(idStr)
			if err != nil {
				http.Error(w, "Invalid alert ID format", http.StatusBadRequest)
				return
			}

			result, ok := s.requestActor(w, s.Engine.GetAlertSupervisor(), &actors.DeleteAlertMsg{
				AlertID:   id,
				ActorID:   user.ID,
				ActorName: user.DisplayName,
				IsAdmin:   user.IsAdmin,
			})
			if !ok {
				return
			}
			respondJSON(w, http.StatusOK, result)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleAlertVote handles confirm (confirm=true) and dispute votes.
func (s *Server) HandleAlertVote(confirm bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}

		var req AlertVoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		alertID, err := uuid.Parse(req.AlertID)
		if err != nil {
			http.Error(w, "Invalid alert ID format", http.StatusBadRequest)
			return
		}

		var msg interface{}
		if confirm {
			msg = &actors.ConfirmAlertMsg{AlertID: alertID, UserID: user.ID}
		} else {
			msg = &actors.DisputeAlertMsg{AlertID: alertID, UserID: user.ID}
		}

		result, ok := s.requestActor(w, s.Engine.GetAlertSupervisor(), msg)
		if !ok {
			return
		}

		// Voters follow the alert so they see the consensus land.
		s.watchAlertForUser(user.ID, alertID)
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleAlertReview lets an admin override an alert's status.
func (s *Server) HandleAlertReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		admin, ok := s.requireAdmin(w, r)
		if !ok {
			return
		}

		var req ReviewAlertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		alertID, err := uuid.Parse(req.AlertID)
		if err != nil {
			http.Error(w, "Invalid alert ID format", http.StatusBadRequest)
			return
		}

		result, ok := s.requestActor(w, s.Engine.GetAlertSupervisor(), &actors.ReviewAlertMsg{
			AlertID: alertID,
			AdminID: admin.ID,
			Status:  req.Status,
		})
		if !ok {
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// watchAlertForUser attaches a dedicated status watcher to the user's
// live notification router, if they have one connected.
func (s *Server) watchAlertForUser(userID, alertID uuid.UUID) {
	if router := s.Notifier.Router(userID); router != nil {
		router.WatchAlertStatus(context.Background(), alertID)
	}
}
