package handlers

import (
	"encoding/json"
	"net/http"

	"quartier-watch/internal/engine/actors"
	"quartier-watch/internal/models"

	"github.com/google/uuid"
)

// CreatePostRequest represents a request to create a new post
type CreatePostRequest struct {
	Content string        `json:"content"`
	Radius  models.Radius `json:"radius"`
}

// LikeRequest represents a like toggle on a post
type LikeRequest struct {
	PostID string `json:"postId"`
}

// HandlePosts handles post creation, listing and deletion. Posts are
// always created in the author's own quartier.
func (s *Server) HandlePosts() http.HandlerFunc {
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

			var req CreatePostRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			if req.Radius == "" {
				req.Radius = models.RadiusQuartier
			}

			result, ok := s.requestActor(w, s.Engine.GetPostActor(), &actors.CreatePostMsg{
				AuthorID:   user.ID,
				AuthorName: user.DisplayName,
				Quartier:   user.Quartier,
				Content:    req.Content,
				Radius:     req.Radius,
			})
			if !ok {
				return
			}
			respondJSON(w, http.StatusCreated, result)

		case http.MethodGet:
			if idStr := r.URL.Query().Get("id"); idStr != "" {
				id, err := uuid.Parse(idStr)
				if err != nil {
					http.Error(w, "Invalid post ID format", http.StatusBadRequest)
					return
				}
				result, ok := s.requestActor(w, s.Engine.GetPostActor(), &actors.GetPostMsg{PostID: id})
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
			result, ok := s.requestActor(w, s.Engine.GetPostActor(), &actors.GetQuartierPostsMsg{Quartier: quartier})
			if !ok {
				return
			}
			respondJSON(w, http.StatusOK, result)

		case http.MethodDelete:
			idStr := r.URL.Query().Get("id")
			id, err := uuid.Parse(idStr)
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}

			result, ok := s.requestActor(w, s.Engine.GetPostActor(), &actors.DeletePostMsg{
				PostID:    id,
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

// HandlePostLike toggles the caller's like on a post.
func (s *Server) HandlePostLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}

		var req LikeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		postID, err := uuid.Parse(req.PostID)
		if err != nil {
			http.Error(w, "Invalid post ID format", http.StatusBadRequest)
			return
		}

		result, ok := s.requestActor(w, s.Engine.GetPostActor(), &actors.LikePostMsg{
			PostID: postID,
			UserID: user.ID,
		})
		if !ok {
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandlePostQuota reports the caller's remaining daily post budget.
func (s *Server) HandlePostQuota() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}

		result, ok := s.requestActor(w, s.Engine.GetPostActor(), &actors.GetPostQuotaMsg{AuthorID: user.ID})
		if !ok {
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}
