package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"quartier-watch/internal/engine/actors"
	"quartier-watch/internal/middleware"
	"quartier-watch/internal/models"
)

// RegisterRequest represents a request to register a new user
type RegisterRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Quartier    string `json:"quartier"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a response to a login request
type LoginResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token,omitempty"`
	User    *models.User `json:"user,omitempty"`
}

// HandleRegister handles requests to register a new user. Registration
// is closed while maintenance mode is on or sign-ups are disabled.
func (s *Server) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		if err := s.Gate.CheckMaintenance(nil); err != nil {
			respondGateError(w, err)
			return
		}
		if err := s.Gate.CheckRegistration(); err != nil {
			respondGateError(w, err)
			return
		}

		result, ok := s.requestActor(w, s.Engine.GetUserActor(), &actors.RegisterUserMsg{
			DisplayName: req.DisplayName,
			Email:       req.Email,
			Password:    req.Password,
			Quartier:    req.Quartier,
		})
		if !ok {
			return
		}

		user, ok := result.(*models.User)
		if !ok {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		token, err := middleware.GenerateToken(user.ID)
		if err != nil {
			log.Printf("HTTP Handler: Failed to generate token: %v", err)
			http.Error(w, "Failed to generate auth token", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusCreated, &LoginResponse{
			Success: true,
			Token:   token,
			User:    user,
		})
	}
}

// HandleLogin handles requests to log in a user
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		result, ok := s.requestActor(w, s.Engine.GetUserActor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		})
		if !ok {
			return
		}

		user, ok := result.(*models.User)
		if !ok {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if err := s.Gate.CheckUser(user); err != nil {
			respondGateError(w, err)
			return
		}
		// Admins can still log in during maintenance.
		if err := s.Gate.CheckMaintenance(user); err != nil {
			respondGateError(w, err)
			return
		}

		token, err := middleware.GenerateToken(user.ID)
		if err != nil {
			log.Printf("HTTP Handler: Failed to generate token: %v", err)
			http.Error(w, "Failed to generate auth token", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, &LoginResponse{
			Success: true,
			Token:   token,
			User:    user,
		})
	}
}
