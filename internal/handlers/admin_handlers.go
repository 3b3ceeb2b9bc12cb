package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"quartier-watch/internal/database"
	"quartier-watch/internal/models"
	"quartier-watch/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// UserStatusRequest is an admin patch of a user's account flags; nil
// fields are left untouched.
type UserStatusRequest struct {
	UserID    string  `json:"userId"`
	Quartier  *string `json:"quartier,omitempty"`
	IsPremium *bool   `json:"isPremium,omitempty"`
	IsAdmin   *bool   `json:"isAdmin,omitempty"`
	IsActive  *bool   `json:"isActive,omitempty"`
	IsBlocked *bool   `json:"isBlocked,omitempty"`
}

// HandleAdminUsers lists accounts, optionally filtered by quartier.
// With count=true only the number of matching accounts is returned.
func (s *Server) HandleAdminUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}

		quartier := r.URL.Query().Get("quartier")

		if r.URL.Query().Get("count") == "true" {
			var (
				count int64
				err   error
			)
			if quartier != "" {
				count, err = s.MongoDB.CountUsersByQuartier(r.Context(), quartier)
			} else {
				count, err = s.MongoDB.CountUsers(r.Context(), bson.M{})
			}
			if err != nil {
				http.Error(w, "Failed to count users", http.StatusInternalServerError)
				return
			}
			respondJSON(w, http.StatusOK, map[string]int64{"count": count})
			return
		}

		var (
			users []*models.User
			err   error
		)
		if quartier != "" {
			users, err = s.MongoDB.GetUsersByQuartier(r.Context(), quartier)
		} else {
			users, err = s.MongoDB.GetAllUsers(r.Context())
		}
		if err != nil {
			http.Error(w, "Failed to list users", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, users)
	}
}

// HandleAdminPosts lists every post for the moderation view.
func (s *Server) HandleAdminPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}

		posts, err := s.MongoDB.GetAllPosts(r.Context())
		if err != nil {
			http.Error(w, "Failed to list posts", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, posts)
	}
}

// HandleAdminAlerts lists every alert, optionally filtered by consensus
// status.
func (s *Server) HandleAdminAlerts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}

		var (
			alerts []*models.Alert
			err    error
		)
		if status := r.URL.Query().Get("status"); status != "" {
			alerts, err = s.MongoDB.GetAlertsByStatus(r.Context(), models.AlertStatus(status))
		} else {
			alerts, err = s.MongoDB.GetAllAlerts(r.Context())
		}
		if err != nil {
			http.Error(w, "Failed to list alerts", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, alerts)
	}
}

// HandleAdminUserStatus blocks/unblocks accounts and grants or revokes
// premium and admin flags.
func (s *Server) HandleAdminUserStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}

		var req UserStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			http.Error(w, "Invalid user ID format", http.StatusBadRequest)
			return
		}
		if req.Quartier != nil && !models.IsValidQuartier(*req.Quartier) {
			http.Error(w, "Unknown quartier", http.StatusBadRequest)
			return
		}

		patch := database.UserStatusPatch{
			Quartier:  req.Quartier,
			IsPremium: req.IsPremium,
			IsAdmin:   req.IsAdmin,
			IsActive:  req.IsActive,
			IsBlocked: req.IsBlocked,
		}
		if err := s.MongoDB.UpdateUserStatus(r.Context(), userID, patch); err != nil {
			if appErr, ok := err.(*utils.AppError); ok {
				respondAppError(w, appErr)
				return
			}
			http.Error(w, "Failed to update user", http.StatusInternalServerError)
			return
		}

		user, err := s.MongoDB.GetUser(r.Context(), userID)
		if err != nil {
			http.Error(w, "Failed to load user", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, user)
	}
}

// HandleAdminSettings serves and patches the system settings singleton.
func (s *Server) HandleAdminSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, ok := s.requireAdmin(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			respondJSON(w, http.StatusOK, s.Gate.Current())

		case http.MethodPut:
			var patch models.SettingsPatch
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			updated, err := s.Gate.Update(r.Context(), patch, admin.DisplayName)
			if err != nil {
				if appErr, ok := err.(*utils.AppError); ok {
					respondAppError(w, appErr)
					return
				}
				http.Error(w, "Failed to update settings", http.StatusInternalServerError)
				return
			}
			respondJSON(w, http.StatusOK, updated)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleAdminSettingsReset restores the default settings.
func (s *Server) HandleAdminSettingsReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		admin, ok := s.requireAdmin(w, r)
		if !ok {
			return
		}

		restored, err := s.Gate.Reset(r.Context(), admin.DisplayName)
		if err != nil {
			if appErr, ok := err.(*utils.AppError); ok {
				respondAppError(w, appErr)
				return
			}
			http.Error(w, "Failed to reset settings", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, restored)
	}
}

// HandleAdminDeletionLogs lists the deletion audit trail, newest first.
func (s *Server) HandleAdminDeletionLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}

		var limit int64 = 100
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.ParseInt(limitStr, 10, 64)
			if err != nil || parsed < 0 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		logs, err := s.MongoDB.GetDeletionLogs(r.Context(), limit)
		if err != nil {
			http.Error(w, "Failed to list deletion logs", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, logs)
	}
}

// HandleAdminDeletionStats summarizes the audit trail.
func (s *Server) HandleAdminDeletionStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}

		stats, err := s.MongoDB.GetDeletionStats(r.Context())
		if err != nil {
			http.Error(w, "Failed to compute deletion stats", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, stats)
	}
}

// HandleAdminStats serves the platform-wide dashboard counters.
func (s *Server) HandleAdminStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}

		stats, err := s.MongoDB.GetPlatformStats(r.Context())
		if err != nil {
			http.Error(w, "Failed to compute platform stats", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, stats)
	}
}
