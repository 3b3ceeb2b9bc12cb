package handlers

import (
	"encoding/json"
	"net/http"

	"quartier-watch/internal/engine/actors"
	"quartier-watch/internal/models"

	"github.com/google/uuid"
)

// UpdateProfileRequest carries the editable profile fields; nil fields
// are left untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty"`
	Quartier    *string `json:"quartier,omitempty"`
}

// ProfileResponse is a profile plus the user's live connection state.
type ProfileResponse struct {
	User      *models.User `json:"user"`
	Connected bool         `json:"connected"`
}

// HandleUserProfile serves and updates the authenticated user's profile.
// Admins may read any profile via the userId query parameter.
func (s *Server) HandleUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			targetID := user.ID
			if idStr := r.URL.Query().Get("userId"); idStr != "" {
				id, err := uuid.Parse(idStr)
				if err != nil {
					http.Error(w, "Invalid user ID format", http.StatusBadRequest)
					return
				}
				if id != user.ID && !user.IsAdmin {
					http.Error(w, "Admin access required", http.StatusForbidden)
					return
				}
				targetID = id
			}

			result, ok := s.requestActor(w, s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: targetID})
			if !ok {
				return
			}
			profile, ok := result.(*models.User)
			if !ok {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			respondJSON(w, http.StatusOK, &ProfileResponse{
				User:      profile,
				Connected: s.Hub.IsConnected(profile.ID),
			})

		case http.MethodPut:
			var req UpdateProfileRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			result, ok := s.requestActor(w, s.Engine.GetUserActor(), &actors.UpdateProfileMsg{
				UserID:      user.ID,
				DisplayName: req.DisplayName,
				Quartier:    req.Quartier,
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

// HandleUserStats returns authored post/alert counts and likes received.
// Users can read their own stats; admins can read anyone's.
func (s *Server) HandleUserStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}

		targetID := user.ID
		if idStr := r.URL.Query().Get("userId"); idStr != "" {
			id, err := uuid.Parse(idStr)
			if err != nil {
				http.Error(w, "Invalid user ID format", http.StatusBadRequest)
				return
			}
			if id != user.ID && !user.IsAdmin {
				http.Error(w, "Admin access required", http.StatusForbidden)
				return
			}
			targetID = id
		}

		stats, err := s.MongoDB.GetUserStats(r.Context(), targetID)
		if err != nil {
			http.Error(w, "Failed to compute user stats", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, stats)
	}
}
