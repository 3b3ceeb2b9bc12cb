package handlers

import (
	"encoding/json"
	"net/http"

	"quartier-watch/internal/engine/actors"

	"github.com/google/uuid"
)

// CreateCommentRequest represents a request to comment on a post
type CreateCommentRequest struct {
	PostID string `json:"postId"`
	Body   string `json:"body"`
}

// CreateReplyRequest represents a request to reply to a comment
type CreateReplyRequest struct {
	CommentID string `json:"commentId"`
	Body      string `json:"body"`
}

// CommentLikeRequest toggles a like on a comment
type CommentLikeRequest struct {
	CommentID string `json:"commentId"`
}

// ReplyLikeRequest toggles a like on a reply
type ReplyLikeRequest struct {
	ReplyID string `json:"replyId"`
}

// HandleComments handles comment creation, listing and deletion.
func (s *Server) HandleComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodPost:
			var req CreateCommentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			postID, err := uuid.Parse(req.PostID)
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}

			result, ok := s.requestActor(w, s.Engine.GetCommentActor(), &actors.CreateCommentMsg{
				PostID:     postID,
				AuthorID:   user.ID,
				AuthorName: user.DisplayName,
				Body:       req.Body,
			})
			if !ok {
				return
			}
			respondJSON(w, http.StatusCreated, result)

		case http.MethodGet:
			postID, err := uuid.Parse(r.URL.Query().Get("postId"))
			if err != nil {
				http.Error(w, "Invalid post ID format", http.StatusBadRequest)
				return
			}
			result, ok := s.requestActor(w, s.Engine.GetCommentActor(), &actors.GetPostCommentsMsg{PostID: postID})
			if !ok {
				return
			}
			respondJSON(w, http.StatusOK, result)

		case http.MethodDelete:
			commentID, err := uuid.Parse(r.URL.Query().Get("id"))
			if err != nil {
				http.Error(w, "Invalid comment ID format", http.StatusBadRequest)
				return
			}
			result, ok := s.requestActor(w, s.Engine.GetCommentActor(), &actors.DeleteCommentMsg{
				CommentID: commentID,
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

// HandleReplies handles reply creation, listing and deletion.
func (s *Server) HandleReplies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodPost:
			var req CreateReplyRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			commentID, err := uuid.Parse(req.CommentID)
			if err != nil {
				http.Error(w, "Invalid comment ID format", http.StatusBadRequest)
				return
			}

			result, ok := s.requestActor(w, s.Engine.GetCommentActor(), &actors.CreateReplyMsg{
				CommentID:  commentID,
				AuthorID:   user.ID,
				AuthorName: user.DisplayName,
				Body:       req.Body,
			})
			if !ok {
				return
			}
			respondJSON(w, http.StatusCreated, result)

		case http.MethodGet:
			commentID, err := uuid.Parse(r.URL.Query().Get("commentId"))
			if err != nil {
				http.Error(w, "Invalid comment ID format", http.StatusBadRequest)
				return
			}
			result, ok := s.requestActor(w, s.Engine.GetCommentActor(), &actors.GetCommentRepliesMsg{CommentID: commentID})
			if !ok {
				return
			}
			respondJSON(w, http.StatusOK, result)

		case http.MethodDelete:
			replyID, err := uuid.Parse(r.URL.Query().Get("id"))
			if err != nil {
				http.Error(w, "Invalid reply ID format", http.StatusBadRequest)
				return
			}
			result, ok := s.requestActor(w, s.Engine.GetCommentActor(), &actors.DeleteReplyMsg{
				ReplyID:   replyID,
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

// HandleCommentLike toggles the caller's like on a comment.
func (s *Server) HandleCommentLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}

		var req CommentLikeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		commentID, err := uuid.Parse(req.CommentID)
		if err != nil {
			http.Error(w, "Invalid comment ID format", http.StatusBadRequest)
			return
		}

		result, ok := s.requestActor(w, s.Engine.GetCommentActor(), &actors.LikeCommentMsg{
			CommentID: commentID,
			UserID:    user.ID,
		})
		if !ok {
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleReplyLike toggles the caller's like on a reply.
func (s *Server) HandleReplyLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}

		var req ReplyLikeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		replyID, err := uuid.Parse(req.ReplyID)
		if err != nil {
			http.Error(w, "Invalid reply ID format", http.StatusBadRequest)
			return
		}

		result, ok := s.requestActor(w, s.Engine.GetCommentActor(), &actors.LikeReplyMsg{
			ReplyID: replyID,
			UserID:  user.ID,
		})
		if !ok {
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}
